package approval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/inputgate/model/run"
	"github.com/viant/inputgate/service/dao"
	"github.com/viant/inputgate/tracing"
)

// DefaultLoadTimeout bounds how long reconciliation blocks waiting for the
// engine to reattach its own state after a restart.
const DefaultLoadTimeout = 60 * time.Second

// Registry is the per-execution durable collection of pending approvals.
// Only the identifiers are persisted, live handles are reattached lazily by
// reconciliation on first access after the owning record is loaded from
// storage. All mutating and reconciling operations share one exclusive
// critical section, a second caller can never observe a half-reconciled
// state, and once an approval is removed no later reconciliation can
// reintroduce it.
type Registry struct {
	runID  string
	record *run.Record
	dao    dao.Service[string, run.Record]
	engine Engine

	logger      *slog.Logger
	loadTimeout time.Duration

	mu sync.Mutex
	// pending is nil until reconciliation establishes the baseline list.
	pending   []*Pending
	completed []*Pending
}

// RegistryOption customizes a registry.
type RegistryOption func(*Registry)

// WithLoadTimeout bounds the engine query during reconciliation, non-positive
// values keep the default.
func WithLoadTimeout(timeout time.Duration) RegistryOption {
	return func(r *Registry) {
		if timeout > 0 {
			r.loadTimeout = timeout
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a registry for a fresh run, the baseline list is
// already established so no reconciliation is needed.
func NewRegistry(record *run.Record, store dao.Service[string, run.Record], engine Engine, options ...RegistryOption) *Registry {
	ret := newRegistry(record, store, engine, options...)
	ret.pending = []*Pending{}
	return ret
}

// OpenRegistry creates a registry over a record loaded from storage, live
// handles are reattached by reconciliation on first access.
func OpenRegistry(record *run.Record, store dao.Service[string, run.Record], engine Engine, options ...RegistryOption) *Registry {
	return newRegistry(record, store, engine, options...)
}

func newRegistry(record *run.Record, store dao.Service[string, run.Record], engine Engine, options ...RegistryOption) *Registry {
	ret := &Registry{
		runID:       record.ID,
		record:      record,
		dao:         store,
		engine:      engine,
		loadTimeout: DefaultLoadTimeout,
		logger:      slog.Default(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// RunID returns the owning execution identifier.
func (r *Registry) RunID() string { return r.runID }

// Record returns the durable run record. Callers must not mutate it.
func (r *Registry) Record() *run.Record { return r.record }

// Add registers a pending approval and persists the owning record. It fails
// with ErrStateLoad when the baseline list could not be established.
func (r *Registry) Add(ctx context.Context, pending *Pending) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reconcileLocked(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStateLoad, err)
	}
	pending.attach(r)
	r.pending = append(r.pending, pending)
	r.record.AddPendingID(pending.ID())
	return r.persistLocked(ctx)
}

// Remove takes a settled approval out of the pending list, appends it to the
// completed history, records its decision and persists, all under one
// critical section. Idempotent with respect to an already removed approval.
func (r *Registry) Remove(ctx context.Context, pending *Pending) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reconcileLocked(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStateLoad, err)
	}
	removed := false
	for i, candidate := range r.pending {
		if candidate == pending || candidate.ID() == pending.ID() {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			removed = true
			break
		}
	}
	if !removed && !r.record.HasPendingID(pending.ID()) {
		return nil
	}
	r.record.RemovePendingID(pending.ID())
	r.completed = append(r.completed, pending)
	if outcome := pending.Outcome(); outcome != nil {
		r.record.AppendDecision(&run.Decision{
			ApprovalID: pending.ID(),
			Approver:   outcome.Approver,
			Parameters: outcome.Values,
			Rejected:   outcome.State == StateAborted,
			DecidedAt:  outcome.At,
		})
	}
	return r.persistLocked(ctx)
}

// Get resolves a pending approval by id, dao.ErrNotFound when absent.
func (r *Registry) Get(ctx context.Context, id string) (*Pending, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reconcileLocked(ctx); err != nil {
		r.logger.Warn("failed to load pending approvals", "run", r.runID, "error", err)
		return nil, dao.ErrNotFound
	}
	for _, pending := range r.pending {
		if pending.ID() == id {
			return pending, nil
		}
	}
	return nil, dao.ErrNotFound
}

// List returns the pending approvals in insertion order. When the baseline
// list cannot be established the listing degrades to empty with a warning
// rather than failing.
func (r *Registry) List(ctx context.Context) []*Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reconcileLocked(ctx); err != nil {
		r.logger.Warn("failed to load pending approvals", "run", r.runID, "error", err)
		return nil
	}
	return append([]*Pending(nil), r.pending...)
}

// Completed returns the settled approvals retained for display.
func (r *Registry) Completed() []*Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Pending(nil), r.completed...)
}

// IsWaiting reports whether any approval is still awaiting a decision.
func (r *Registry) IsWaiting(ctx context.Context) bool {
	return len(r.List(ctx)) > 0
}

// Reconcile eagerly establishes the baseline list, useful for callers that
// want to pay the engine-query cost off the latency-sensitive path.
func (r *Registry) Reconcile(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconcileLocked(ctx)
}

// reconcileLocked reattaches persisted approval identifiers to live handles.
// Callers must hold r.mu. It is a no-op once the baseline list exists. The
// engine query blocks up to the configured timeout because the engine may
// still be reattaching its own state after a restart. When fewer live
// handles match than identifiers were persisted the orphans are logged and
// stay permanently pending but unreachable, a known limitation.
func (r *Registry) reconcileLocked(ctx context.Context) error {
	if r.pending != nil {
		return nil
	}
	if r.record.Migrate() {
		r.logger.Info("migrated legacy pending approvals", "run", r.runID, "ids", r.record.PendingIDs)
	}
	if len(r.record.PendingIDs) == 0 {
		r.pending = []*Pending{}
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.loadTimeout)
	defer cancel()
	spanCtx, span := tracing.StartSpan(ctx, "approval.reconcile", "INTERNAL")
	live, err := r.engine.LiveApprovals(spanCtx, r.runID, true)
	tracing.EndSpan(span, err)
	if err != nil {
		return err
	}
	byID := make(map[string]*Pending, len(live))
	for _, pending := range live {
		byID[pending.ID()] = pending
	}
	matched := make([]*Pending, 0, len(r.record.PendingIDs))
	for _, id := range r.record.PendingIDs {
		pending, ok := byID[id]
		if !ok {
			continue
		}
		pending.attach(r)
		matched = append(matched, pending)
	}
	if len(matched) < len(r.record.PendingIDs) {
		r.logger.Warn("some pending approval ids could not be reattached",
			"run", r.runID, "persisted", len(r.record.PendingIDs), "reattached", len(matched))
	}
	r.pending = matched
	return nil
}

// persistLocked saves the run record, callers must hold r.mu so that removal
// and persistence are one atomic unit.
func (r *Registry) persistLocked(ctx context.Context) error {
	r.record.Touch()
	if err := r.dao.Save(ctx, r.record); err != nil {
		return fmt.Errorf("failed to persist run record %v: %w", r.runID, err)
	}
	return nil
}
