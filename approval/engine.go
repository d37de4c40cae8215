package approval

import (
	"context"

	"github.com/viant/inputgate/model/run"
)

// Engine is the slice of the execution engine the gate depends on. After a
// restart the engine re-materializes its suspended computations, the registry
// asks it for the live pending approvals of a run and reattaches those whose
// identifier it persisted.
type Engine interface {
	// LiveApprovals returns the pending approvals whose suspended
	// computations are currently live within the given run. When block is
	// true the engine may wait for its own state to finish reattaching,
	// bounded by ctx.
	LiveApprovals(ctx context.Context, runID string, block bool) ([]*Pending, error)
}

// Tracker is optionally implemented by engines that need to be told when a
// pending approval becomes live or settles, the in-memory engine uses it.
type Tracker interface {
	Track(runID string, pending *Pending)
	Untrack(runID string, pending *Pending)
}

// Continuation resumes a suspended computation with the decision result.
type Continuation interface {
	ResumeSuccess(ctx context.Context, value interface{}) error
	ResumeFailure(ctx context.Context, cause error) error
}

// Checkpoint is the execution-history point where the computation suspended.
// The decision record and the end of the pause marker are attached to it.
type Checkpoint interface {
	RecordDecision(ctx context.Context, decision *run.Decision) error
	EndPause(ctx context.Context) error
}
