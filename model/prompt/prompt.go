package prompt

import (
	"encoding/json"
	"strings"
)

// DefaultMessage is substituted when a prompt is created without one.
const DefaultMessage = "Pipeline has paused and needs your input before proceeding"

// Default button captions.
const (
	DefaultOK     = "Proceed"
	DefaultCancel = "Abort"
)

// Prompt is the immutable description of what a checkpoint asks: the message
// shown to the approver, the declared input parameters, the submitter policy
// and the button captions. Created once when the execution suspends, never
// mutated afterwards.
type Prompt struct {
	Message string `json:"message"`

	// ID uniquely identifies this prompt among all prompts of the same
	// execution. Derived from the message digest when not set explicitly.
	ID string `json:"id,omitempty"`

	// Submitter is an optional comma-separated allow-list of principal or
	// group names permitted to settle. Empty means anyone holding the
	// baseline build capability.
	Submitter string `json:"submitter,omitempty"`

	// SubmitterParameter, when set, names the key under which the deciding
	// principal's identity is injected into the proceed value map.
	SubmitterParameter string `json:"submitterParameter,omitempty"`

	// Parameters declares the inputs collected on proceed, in order.
	Parameters []*Definition `json:"parameters,omitempty"`

	OK     string `json:"ok,omitempty"`
	Cancel string `json:"cancel,omitempty"`
}

// Option customizes a prompt at construction.
type Option func(*Prompt)

// WithID sets an explicit id. The id is capitalized on its first character
// and validated by New.
func WithID(id string) Option {
	return func(p *Prompt) { p.ID = Capitalize(strings.TrimSpace(id)) }
}

// WithSubmitter sets the comma-separated submitter allow-list.
func WithSubmitter(submitter string) Option {
	return func(p *Prompt) { p.Submitter = strings.TrimSpace(submitter) }
}

// WithSubmitterParameter sets the name under which the approver identity is
// injected into the proceed value map.
func WithSubmitterParameter(name string) Option {
	return func(p *Prompt) { p.SubmitterParameter = strings.TrimSpace(name) }
}

// WithParameters declares the prompt's input parameters.
func WithParameters(definitions ...*Definition) Option {
	return func(p *Prompt) { p.Parameters = definitions }
}

// WithCaptions overrides the proceed and abort button captions.
func WithCaptions(ok, cancel string) Option {
	return func(p *Prompt) {
		p.OK = strings.TrimSpace(ok)
		p.Cancel = strings.TrimSpace(cancel)
	}
}

// New creates a prompt. An empty message is substituted with DefaultMessage.
// It fails with ErrUnsafeID when an explicitly supplied id is not URL safe
// and the AllowUnsafeIDs escape hatch is off.
func New(message string, options ...Option) (*Prompt, error) {
	if message == "" {
		message = DefaultMessage
	}
	ret := &Prompt{Message: message}
	for _, option := range options {
		option(ret)
	}
	if err := checkSafeID(ret.ID); err != nil {
		return nil, err
	}
	return ret, nil
}

// EffectiveID returns the explicit id, or lazily derives one from the message
// digest, caching the result.
func (p *Prompt) EffectiveID() string {
	if p.ID == "" {
		p.ID = DeriveID(p.Message)
	}
	return p.ID
}

// SubmitterList parses the comma-separated submitter policy into trimmed
// names. A nil result means no restriction.
func (p *Prompt) SubmitterList() []string {
	if p.Submitter == "" {
		return nil
	}
	parts := strings.Split(p.Submitter, ",")
	ret := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			ret = append(ret, name)
		}
	}
	if len(ret) == 0 {
		return nil
	}
	return ret
}

// Parameter returns the declared definition with the given name or nil.
func (p *Prompt) Parameter(name string) *Definition {
	for _, definition := range p.Parameters {
		if definition.Name == name {
			return definition
		}
	}
	return nil
}

// OKCaption returns the proceed button caption, defaulted if unset.
func (p *Prompt) OKCaption() string {
	if p.OK != "" {
		return p.OK
	}
	return DefaultOK
}

// CancelCaption returns the abort button caption, defaulted if unset.
func (p *Prompt) CancelCaption() string {
	if p.Cancel != "" {
		return p.Cancel
	}
	return DefaultCancel
}

// UnmarshalJSON re-checks id safety so that data stored before validation was
// introduced is detected rather than silently trusted.
func (p *Prompt) UnmarshalJSON(data []byte) error {
	type alias Prompt
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := checkSafeID(raw.ID); err != nil {
		return err
	}
	*p = Prompt(raw)
	return nil
}
