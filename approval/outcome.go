package approval

import (
	"errors"
	"time"
)

// Sentinel errors surfaced to decision callers.
var (
	// ErrConflict is returned when a decision is attempted on an approval
	// that has already been settled. The surrounding execution is not
	// affected.
	ErrConflict = errors.New("approval: this input has already been given")

	// ErrNotAuthorized is returned when the principal lacks the capability
	// or allow-list membership required for the attempted decision.
	ErrNotAuthorized = errors.New("approval: not authorized")

	// ErrStateLoad is returned by mutating registry operations when the
	// baseline pending list could not be established.
	ErrStateLoad = errors.New("approval: cannot load state")

	// ErrUnknownParameter is returned when a submitted value names a
	// parameter with no matching definition.
	ErrUnknownParameter = errors.New("approval: no such parameter definition")
)

// State enumerates the approval state machine: Pending transitions exactly
// once to Proceeded or Aborted, both terminal.
type State int

const (
	StatePending State = iota
	StateProceeded
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateProceeded:
		return "proceeded"
	case StateAborted:
		return "aborted"
	}
	return "pending"
}

// Outcome is the terminal result of a settled approval.
type Outcome struct {
	State State

	// Value is the unwrapped resume value: the bare value for a single
	// collected parameter, the whole map for several, nil for none.
	Value interface{}

	// Values is the structured parameter map as collected.
	Values map[string]interface{}

	// Approver is the deciding principal, empty when anonymous.
	Approver string

	// Cause carries the rejection when the approval was aborted.
	Cause *Rejection

	At time.Time
}

// Rejection is the cause attached when a human aborts. It implements error so
// it can travel to the suspended computation as the failure cause.
type Rejection struct {
	User string    `json:"user,omitempty"`
	At   time.Time `json:"at"`
}

func (r *Rejection) Error() string {
	if r.User != "" && r.User != "anonymous" {
		return "rejected by " + r.User
	}
	return "rejected"
}
