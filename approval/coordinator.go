package approval

import (
	"context"
	"errors"
	"log/slog"

	"github.com/viant/inputgate/auth"
	"github.com/viant/inputgate/service/notifier"
	"github.com/viant/inputgate/tracing"
)

// Coordinator drives the side effects of a settled approval: the decision is
// recorded on the checkpoint, the approval leaves its registry, the pause is
// closed and the suspended computation resumed. Individual side-effect
// failures are logged rather than propagated, the in-memory outcome already
// holds the decision and the remaining effects must still be attempted.
type Coordinator struct {
	notifier *notifier.Service
	tracker  Tracker
	logger   *slog.Logger
}

// CoordinatorOption customizes a coordinator.
type CoordinatorOption func(*Coordinator)

// WithNotifier publishes lifecycle events through the supplied notifier.
func WithNotifier(service *notifier.Service) CoordinatorOption {
	return func(c *Coordinator) { c.notifier = service }
}

// WithTracker informs the tracker when an approval settles.
func WithTracker(tracker Tracker) CoordinatorOption {
	return func(c *Coordinator) { c.tracker = tracker }
}

// WithCoordinatorLogger sets the coordinator logger.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = logger }
}

// NewCoordinator creates a coordinator.
func NewCoordinator(options ...CoordinatorOption) *Coordinator {
	ret := &Coordinator{logger: slog.Default()}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Settle applies the side effects of an already decided approval. The
// outcome was set under the pending mutex before this call, so settlement
// runs exactly once per approval.
func (c *Coordinator) Settle(ctx context.Context, pending *Pending, outcome *Outcome) {
	spanCtx, span := tracing.StartSpan(ctx, "approval.settle", "INTERNAL")
	defer tracing.EndSpan(span, nil)
	span.WithAttributes(map[string]string{
		"approval.id":    pending.ID(),
		"approval.run":   pending.RunID(),
		"approval.state": outcome.State.String(),
	})

	if err := pending.checkpoint.RecordDecision(spanCtx, pending.decisionOf(outcome)); err != nil {
		c.logger.Warn("failed to record approval decision", "approval", pending.ID(), "error", err)
	}
	if registry := pending.registry; registry != nil {
		if err := registry.Remove(spanCtx, pending); err != nil {
			c.logger.Warn("failed to remove settled approval", "approval", pending.ID(), "error", err)
		}
	}
	if err := pending.checkpoint.EndPause(spanCtx); err != nil {
		c.logger.Warn("failed to end approval pause", "approval", pending.ID(), "error", err)
	}
	if c.tracker != nil {
		c.tracker.Untrack(pending.RunID(), pending)
	}

	switch outcome.State {
	case StateProceeded:
		c.notify(spanCtx, notifier.EventProceeded, pending, outcome)
		if err := pending.continuation.ResumeSuccess(spanCtx, outcome.Value); err != nil {
			c.logger.Warn("failed to resume after approval", "approval", pending.ID(), "error", err)
		}
	case StateAborted:
		c.notify(spanCtx, notifier.EventAborted, pending, outcome)
		var cause error = outcome.Cause
		if outcome.Cause == nil {
			cause = &Rejection{At: outcome.At}
		}
		if err := pending.continuation.ResumeFailure(spanCtx, cause); err != nil {
			c.logger.Warn("failed to resume after rejection", "approval", pending.ID(), "error", err)
		}
	}
}

// Created announces a freshly registered approval.
func (c *Coordinator) Created(ctx context.Context, pending *Pending) {
	if c.tracker != nil {
		c.tracker.Track(pending.RunID(), pending)
	}
	c.notify(ctx, notifier.EventCreated, pending, nil)
}

// Interrupt aborts the approval on behalf of the system, typically when the
// owning run is being stopped. The abort runs on its own goroutine because
// interrupts arrive on the engine thread and settlement resumes the
// computation synchronously. An approval decided concurrently by a user is
// left alone.
func (c *Coordinator) Interrupt(pending *Pending) {
	go func() {
		ctx := auth.WithSystem(context.Background())
		if err := pending.Abort(ctx); err != nil && !errors.Is(err, ErrConflict) {
			c.logger.Warn("failed to abort interrupted approval", "approval", pending.ID(), "error", err)
		}
	}()
}

func (c *Coordinator) notify(ctx context.Context, eventType string, pending *Pending, outcome *Outcome) {
	if c.notifier == nil {
		return
	}
	event := notifier.NewEvent(eventType, pending.RunID(), pending.ID())
	event.Prompt = pending.Prompt()
	if outcome != nil {
		event.Approver = outcome.Approver
	}
	c.notifier.Notify(ctx, event)
}
