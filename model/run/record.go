package run

import (
	"time"

	"github.com/viant/inputgate/model/prompt"
)

// Record is the durable per-execution shape of the approval gate: the ordered
// identifiers of approvals still awaiting a decision plus the permanent
// decision history. It is the only state of the subsystem that must survive a
// process restart, live approval handles are reattached by reconciliation.
type Record struct {
	ID         string      `json:"id"`
	PendingIDs []string    `json:"pendingIds,omitempty"`
	Decisions  []*Decision `json:"decisions,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`

	// Legacy carries embedded pending snapshots written by the old record
	// format that predates identifier-based persistence. Migrate synthesizes
	// PendingIDs from it once and discards it.
	Legacy []*Snapshot `json:"pending,omitempty"`
}

// Snapshot is the old-format embedded representation of a pending approval.
// Only the identifier is still meaningful.
type Snapshot struct {
	ID     string         `json:"id"`
	Prompt *prompt.Prompt `json:"prompt,omitempty"`
}

// Decision is the permanent record of a settlement, kept independently of the
// transient pending approval and attached to the execution history.
type Decision struct {
	ApprovalID string                 `json:"approvalId"`
	Approver   string                 `json:"approver,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Rejected   bool                   `json:"rejected,omitempty"`
	DecidedAt  time.Time              `json:"decidedAt"`
}

// New creates a fresh record for the given run.
func New(id string) *Record {
	now := time.Now()
	return &Record{ID: id, CreatedAt: now, UpdatedAt: now}
}

// AddPendingID appends id preserving insertion order, duplicates are ignored.
func (r *Record) AddPendingID(id string) {
	if r.HasPendingID(id) {
		return
	}
	r.PendingIDs = append(r.PendingIDs, id)
}

// RemovePendingID removes id, a no-op when absent.
func (r *Record) RemovePendingID(id string) {
	for i, candidate := range r.PendingIDs {
		if candidate == id {
			r.PendingIDs = append(r.PendingIDs[:i], r.PendingIDs[i+1:]...)
			return
		}
	}
}

// HasPendingID reports whether id is still pending.
func (r *Record) HasPendingID(id string) bool {
	for _, candidate := range r.PendingIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// AppendDecision records a settlement in the permanent history.
func (r *Record) AppendDecision(decision *Decision) {
	if decision == nil {
		return
	}
	r.Decisions = append(r.Decisions, decision)
}

// Migrate converts an old-format record: identifiers are synthesized from the
// embedded snapshots, which are then discarded. It returns true when a
// migration took place.
func (r *Record) Migrate() bool {
	if r.Legacy == nil {
		return false
	}
	for _, snapshot := range r.Legacy {
		if snapshot == nil {
			continue
		}
		id := snapshot.ID
		if id == "" && snapshot.Prompt != nil {
			id = snapshot.Prompt.EffectiveID()
		}
		if id != "" {
			r.AddPendingID(id)
		}
	}
	r.Legacy = nil
	return true
}

// Touch updates the modification timestamp.
func (r *Record) Touch() {
	r.UpdatedAt = time.Now()
}
