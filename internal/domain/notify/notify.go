package notify

import "context"

// Event types emitted by the workflow engine.
const (
	EventAssigned     = "approval_assigned"
	EventApproved     = "approval_approved"
	EventRejected     = "approval_rejected"
	EventEscalated    = "approval_escalated"
	EventSLAWarning   = "sla_warning"
	EventSLABreached  = "sla_breached"
	EventDailySummary = "sla_daily_summary"
)

// Event is the logical notification payload. Delivery (email, in-app, chat)
// is entirely outside this service.
type Event struct {
	Type         string         `json:"event_type"`
	UserID       string         `json:"user_id,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	WorkflowName string         `json:"workflow_name,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Publisher emits workflow events. Implementations must be non-fatal: a
// failed publish is logged by the implementation and never surfaces to the
// approval operation that produced it.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Noop discards all events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
