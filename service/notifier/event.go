package notifier

import (
	"time"

	"github.com/viant/inputgate/internal/clock"
	"github.com/viant/inputgate/internal/idgen"
	"github.com/viant/inputgate/model/prompt"
)

// Event types emitted over an approval lifecycle.
const (
	EventCreated   = "approval.created"
	EventProceeded = "approval.proceeded"
	EventAborted   = "approval.aborted"
)

// Event describes a lifecycle transition of a single pending approval.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	RunID      string                 `json:"runID"`
	ApprovalID string                 `json:"approvalID"`
	Prompt     *prompt.Prompt         `json:"prompt,omitempty"`
	Approver   string                 `json:"approver,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// NewEvent creates an event with a generated identifier and timestamp.
func NewEvent(eventType, runID, approvalID string) *Event {
	return &Event{
		ID:         idgen.New(),
		Type:       eventType,
		RunID:      runID,
		ApprovalID: approvalID,
		Metadata:   make(map[string]interface{}),
		CreatedAt:  clock.Now(),
	}
}
