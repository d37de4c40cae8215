package approval

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/inputgate/auth"
	"github.com/viant/inputgate/internal/clock"
	"github.com/viant/inputgate/model/prompt"
	"github.com/viant/inputgate/model/run"
)

// Pending is one live approval awaiting a decision. It owns the state
// machine: Pending transitions exactly once to Proceeded or Aborted, the
// check and the transition are a single critical section so that two racing
// decisions can never both apply, the loser observes ErrConflict.
type Pending struct {
	runID        string
	prompt       *prompt.Prompt
	continuation Continuation
	checkpoint   Checkpoint

	authorizer  auth.Service
	converter   *prompt.Converter
	coordinator *Coordinator

	// registry is a back-reference for lookup only, attached when the
	// approval is added or reattached during reconciliation.
	registry *Registry

	mu      sync.Mutex
	outcome *Outcome
}

// PendingOption customizes a pending approval at construction.
type PendingOption func(*Pending)

// WithAuthorizer sets the authorization collaborator, defaults to
// auth.Disabled.
func WithAuthorizer(authorizer auth.Service) PendingOption {
	return func(p *Pending) { p.authorizer = authorizer }
}

// WithConverter sets the parameter value converter.
func WithConverter(converter *prompt.Converter) PendingOption {
	return func(p *Pending) { p.converter = converter }
}

// WithCoordinator sets the settlement coordinator.
func WithCoordinator(coordinator *Coordinator) PendingOption {
	return func(p *Pending) { p.coordinator = coordinator }
}

// NewPending creates a live approval for a suspended computation. The
// continuation is resumed and the checkpoint annotated once a decision is
// made.
func NewPending(runID string, pr *prompt.Prompt, continuation Continuation, checkpoint Checkpoint, options ...PendingOption) *Pending {
	ret := &Pending{
		runID:        runID,
		prompt:       pr,
		continuation: continuation,
		checkpoint:   checkpoint,
	}
	for _, option := range options {
		option(ret)
	}
	if ret.authorizer == nil {
		ret.authorizer = auth.Disabled
	}
	if ret.converter == nil {
		ret.converter = prompt.NewConverter(nil)
	}
	if ret.coordinator == nil {
		ret.coordinator = NewCoordinator()
	}
	return ret
}

// ID returns the approval identifier, derived from the prompt message when
// not set explicitly.
func (p *Pending) ID() string { return p.prompt.EffectiveID() }

// RunID returns the owning execution identifier.
func (p *Pending) RunID() string { return p.runID }

// Prompt returns the immutable request description.
func (p *Pending) Prompt() *prompt.Prompt { return p.prompt }

// DisplayName returns the prompt message truncated for list surfaces.
func (p *Pending) DisplayName() string {
	message := []rune(p.prompt.Message)
	if len(message) < 32 {
		return p.prompt.Message
	}
	return string(message[:32]) + "..."
}

// IsSettled reports whether the approval has been decided one way or the
// other.
func (p *Pending) IsSettled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome != nil
}

// Outcome returns the terminal outcome or nil while still pending.
func (p *Pending) Outcome() *Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcome
}

// CanSettle reports whether the principal attached to ctx may proceed this
// approval.
func (p *Pending) CanSettle(ctx context.Context) bool {
	return p.canSettle(auth.Identity(ctx))
}

// CanCancel reports whether the principal attached to ctx may abort this
// approval irrespective of the submitter allow-list.
func (p *Pending) CanCancel(ctx context.Context) bool {
	return p.canCancel(auth.Identity(ctx))
}

// canSettle: without an allow-list the baseline build capability decides,
// with one, security-off or the administer override win, otherwise the
// principal name or any group membership must match an entry under the
// deployment's comparison policy.
func (p *Pending) canSettle(principal string) bool {
	submitters := p.prompt.SubmitterList()
	if len(submitters) == 0 {
		return p.authorizer.HasCapability(principal, auth.CapabilityBuild)
	}
	if !p.authorizer.UseSecurity() || p.authorizer.HasCapability(principal, auth.CapabilityAdminister) {
		return true
	}
	strategy := p.authorizer.Strategy()
	if auth.MemberOf(principal, submitters, strategy.User) {
		return true
	}
	for _, group := range p.authorizer.GroupsOf(principal) {
		if auth.MemberOf(group, submitters, strategy.Group) {
			return true
		}
	}
	return false
}

func (p *Pending) canCancel(principal string) bool {
	return !p.authorizer.UseSecurity() || p.authorizer.HasCapability(principal, auth.CapabilityCancel)
}

// preDecisionCheck validates a decision attempt. Callers must hold p.mu. The
// error messages name the allow-list or capability that would satisfy the
// check so the caller can display actionable text.
func (p *Pending) preDecisionCheck(principal string, intent State) error {
	if p.outcome != nil {
		return ErrConflict
	}
	switch intent {
	case StateProceeded:
		if !p.canSettle(principal) {
			if p.prompt.Submitter != "" {
				return fmt.Errorf("%w: you need to be %s to submit this", ErrNotAuthorized, p.prompt.Submitter)
			}
			return fmt.Errorf("%w: you need to have %s permission to submit this", ErrNotAuthorized, auth.CapabilityBuild)
		}
	case StateAborted:
		if !p.canCancel(principal) && !p.canSettle(principal) {
			if p.prompt.Submitter != "" {
				return fmt.Errorf("%w: you need to be '%s' (or have %s permission) to cancel this", ErrNotAuthorized, p.prompt.Submitter, auth.CapabilityCancel)
			}
			return fmt.Errorf("%w: you need to have %s permission to cancel this", ErrNotAuthorized, auth.CapabilityCancel)
		}
	}
	return nil
}

// ParseSubmission converts raw submitted values into the declared parameter
// types. A submitted name with no matching definition is rejected before any
// state mutation. Declared parameters that were not submitted fall back to
// their default when one is set. When the prompt names a submitter
// parameter, the deciding principal's identity is injected under that key. A
// nil result distinguishes a zero-parameter proceed from one with values.
func (p *Pending) ParseSubmission(raw map[string]interface{}, principal string) (map[string]interface{}, error) {
	for name := range raw {
		if p.prompt.Parameter(name) == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
		}
	}
	result := make(map[string]interface{})
	for _, definition := range p.prompt.Parameters {
		value, ok := raw[definition.Name]
		if !ok {
			if definition.Default == nil {
				continue
			}
			value = definition.Default
		}
		converted, err := p.converter.Convert(definition, value)
		if err != nil {
			return nil, err
		}
		result[definition.Name] = converted
	}
	if name := p.prompt.SubmitterParameter; name != "" {
		result[name] = principal
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

// Proceed settles the approval positively with the raw submitted parameter
// values and resumes the suspended computation. It returns the resume value:
// a single collected parameter unwraps to its bare value, several stay a
// map, none yields nil.
func (p *Pending) Proceed(ctx context.Context, raw map[string]interface{}) (interface{}, error) {
	return p.proceed(ctx, func(principal string) (map[string]interface{}, error) {
		return p.ParseSubmission(raw, principal)
	})
}

func (p *Pending) proceed(ctx context.Context, collect func(principal string) (map[string]interface{}, error)) (interface{}, error) {
	principal := auth.Identity(ctx)

	p.mu.Lock()
	if err := p.preDecisionCheck(principal, StateProceeded); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	values, err := collect(principal)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	var value interface{}
	switch len(values) {
	case 0:
	case 1:
		for _, v := range values {
			value = v
		}
	default:
		value = values
	}
	outcome := &Outcome{
		State:    StateProceeded,
		Value:    value,
		Values:   values,
		Approver: approverOf(principal),
		At:       clock.Now(),
	}
	p.outcome = outcome
	p.mu.Unlock()

	p.coordinator.Settle(ctx, p, outcome)
	return value, nil
}

// ProceedEmpty settles the approval positively with no submitted form, used
// when the prompt declares no parameters.
func (p *Pending) ProceedEmpty(ctx context.Context) (interface{}, error) {
	return p.Proceed(ctx, nil)
}

// ProceedValue is a compatibility entry point accepting an already-shaped
// value: maps pass through, nil means empty, anything else is recorded under
// the "parameter" key. The value settles as supplied, bypassing parameter
// definitions and type conversion, but still subject to the authorization
// and conflict checks.
func (p *Pending) ProceedValue(ctx context.Context, value interface{}) (interface{}, error) {
	return p.proceed(ctx, func(string) (map[string]interface{}, error) {
		switch actual := value.(type) {
		case nil:
			return nil, nil
		case map[string]interface{}:
			if len(actual) == 0 {
				return nil, nil
			}
			return actual, nil
		default:
			return map[string]interface{}{"parameter": actual}, nil
		}
	})
}

// Abort settles the approval negatively, recording the rejecting principal,
// and fails the suspended computation with the rejection as cause.
func (p *Pending) Abort(ctx context.Context) error {
	principal := auth.Identity(ctx)

	p.mu.Lock()
	if err := p.preDecisionCheck(principal, StateAborted); err != nil {
		p.mu.Unlock()
		return err
	}
	rejection := &Rejection{User: approverOf(principal), At: clock.Now()}
	outcome := &Outcome{
		State:    StateAborted,
		Cause:    rejection,
		Approver: rejection.User,
		At:       rejection.At,
	}
	p.outcome = outcome
	p.mu.Unlock()

	p.coordinator.Settle(ctx, p, outcome)
	return nil
}

// decisionOf shapes an outcome as the durable decision record.
func (p *Pending) decisionOf(outcome *Outcome) *run.Decision {
	return &run.Decision{
		ApprovalID: p.ID(),
		Approver:   outcome.Approver,
		Parameters: outcome.Values,
		Rejected:   outcome.State == StateAborted,
		DecidedAt:  outcome.At,
	}
}

// approverOf maps the anonymous and system identities to an empty approver,
// the decision record keeps no approver in those cases.
func approverOf(principal string) string {
	if principal == auth.Anonymous || principal == auth.System {
		return ""
	}
	return principal
}

func (p *Pending) attach(registry *Registry) { p.registry = registry }
