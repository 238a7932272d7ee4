package workflow

import (
	"time"
)

type CreateInput struct {
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Reference   string         `json:"reference"` // generated when empty
	Title       string         `json:"title"`
	RequestedBy string         `json:"requested_by"`
	Amount      *float64       `json:"amount"`
	Priority    string         `json:"priority"`
	Facts       map[string]any `json:"facts"`
}

type RequestDTO struct {
	RequestID    string     `json:"request_id"`
	EntityType   string     `json:"entity_type"`
	EntityID     string     `json:"entity_id"`
	Reference    string     `json:"reference"`
	Title        string     `json:"title"`
	RequestedBy  string     `json:"requested_by"`
	Amount       *float64   `json:"amount,omitempty"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	CurrentLevel int        `json:"current_level"`
	TotalLevels  int        `json:"total_levels"`
	Deadline     time.Time  `json:"deadline"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type HistoryDTO struct {
	Level   int       `json:"level"`
	Action  string    `json:"action"`
	Actor   string    `json:"actor,omitempty"`
	Comment string    `json:"comment,omitempty"`
	At      time.Time `json:"at"`
}

// PendingTaskDTO is one approver-inbox row: an open work item joined with
// its request.
type PendingTaskDTO struct {
	TaskID     string    `json:"task_id"`
	RequestID  string    `json:"request_id"`
	EntityType string    `json:"entity_type"`
	Title      string    `json:"title"`
	Priority   string    `json:"priority"`
	Level      int       `json:"level"`
	DueAt      time.Time `json:"due_at"`
	SLAStatus  string    `json:"sla_status"`
}
