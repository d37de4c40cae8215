// Package memory provides an in-process approval engine for embedded use
// and tests. Live approvals are tracked per run in memory, LiveApprovals in
// blocking mode waits until the run's approvals were tracked at least once,
// mirroring an engine that is still reattaching its state.
package memory

import (
	"context"
	"sync"

	"github.com/viant/inputgate/approval"
)

// Engine tracks live pending approvals per run.
type Engine struct {
	mu      sync.Mutex
	runs    map[string][]*approval.Pending
	waiters map[string][]chan struct{}
}

// New creates an in-memory engine.
func New() *Engine {
	return &Engine{
		runs:    make(map[string][]*approval.Pending),
		waiters: make(map[string][]chan struct{}),
	}
}

// Track registers a live approval for a run and wakes blocked LiveApprovals
// callers.
func (e *Engine) Track(runID string, pending *approval.Pending) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, candidate := range e.runs[runID] {
		if candidate == pending {
			return
		}
	}
	e.runs[runID] = append(e.runs[runID], pending)
	for _, waiter := range e.waiters[runID] {
		close(waiter)
	}
	delete(e.waiters, runID)
}

// Untrack removes a settled approval from the run's live list.
func (e *Engine) Untrack(runID string, pending *approval.Pending) {
	e.mu.Lock()
	defer e.mu.Unlock()
	live := e.runs[runID]
	for i, candidate := range live {
		if candidate == pending || candidate.ID() == pending.ID() {
			e.runs[runID] = append(live[:i], live[i+1:]...)
			break
		}
	}
	if len(e.runs[runID]) == 0 {
		delete(e.runs, runID)
	}
}

// LiveApprovals returns the live pending approvals of a run. In blocking
// mode a run with no tracked approvals waits, bounded by ctx, for the first
// Track call, a non-blocking call returns the current snapshot immediately.
func (e *Engine) LiveApprovals(ctx context.Context, runID string, block bool) ([]*approval.Pending, error) {
	for {
		e.mu.Lock()
		live, ok := e.runs[runID]
		if ok || !block {
			snapshot := append([]*approval.Pending(nil), live...)
			e.mu.Unlock()
			return snapshot, nil
		}
		waiter := make(chan struct{})
		e.waiters[runID] = append(e.waiters[runID], waiter)
		e.mu.Unlock()

		select {
		case <-waiter:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

var (
	_ approval.Engine  = (*Engine)(nil)
	_ approval.Tracker = (*Engine)(nil)
)
