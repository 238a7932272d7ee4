package request

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("approval request not found")
	ErrChainNotFound        = errors.New("no active approval chain for entity type")
	ErrNoApplicableLevels   = errors.New("no approval level applies to the request")
	ErrInvalidState         = errors.New("request is not pending")
	ErrUnauthorizedApprover = errors.New("actor is not an approver for the current level")
	ErrEscalationTarget     = errors.New("escalation target level not found")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	// StatusExpired is never produced by the state machine itself; deadlines
	// are advisory and drive escalation, not termination. Kept for API
	// consumers that filter by status.
	StatusExpired Status = "expired"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Table: approval_requests
type ApprovalRequest struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	RequestID   string   `gorm:"column:request_id;type:char(32);not null;uniqueIndex:ux_requests_request_id_active"`
	EntityType  string   `gorm:"column:entity_type;size:64;not null;index:idx_requests_entity"`
	EntityID    string   `gorm:"column:entity_id;size:64;not null;index:idx_requests_entity"`
	Reference   string   `gorm:"column:reference;size:64;not null"`
	Title       string   `gorm:"column:title;size:255;not null"`
	RequestedBy string   `gorm:"column:requested_by;size:64;not null"`
	Amount      *float64 `gorm:"column:amount;type:decimal(18,2)"`
	Priority    Priority `gorm:"column:priority;size:16;default:'medium'"`
	Status      Status   `gorm:"column:status;size:16;not null;default:'pending';index:idx_requests_status"`
	// Request-relative level number (1..TotalLevels over the applicable set);
	// monotonically non-decreasing while pending.
	CurrentLevel int `gorm:"column:current_level;not null"`
	// Count of levels applicable at creation; fixed for the request lifetime.
	TotalLevels int    `gorm:"column:total_levels;not null"`
	ChainID     uint64 `gorm:"column:chain_id;not null;index"`
	// Current level's SLA due timestamp.
	Deadline    time.Time      `gorm:"column:deadline;not null;index:idx_requests_deadline"`
	CompletedAt *time.Time     `gorm:"column:completed_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (ApprovalRequest) TableName() string { return "approval_requests" }

// Pending reports whether the request still accepts approvals.
func (r *ApprovalRequest) Pending() bool { return r.Status == StatusPending }

// Table: approval_request_levels
//
// RequestLevel is the resolved snapshot of one chain level captured at
// request creation. Chain edits after creation never reach in-flight
// requests; the snapshot is what the state machine reads. Levels applicable
// to the request's facts carry LevelNumber 1..TotalLevels; non-applicable
// levels are captured with LevelNumber 0 so auto-escalation can still target
// them by chain sequence.
type RequestLevel struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	RequestID uint64 `gorm:"column:request_id;not null;index;uniqueIndex:ux_request_levels_seq"`
	// Request-relative number used by CurrentLevel/history; 0 if not yet numbered.
	LevelNumber int `gorm:"column:level_number;not null"`
	// Original sequence within the chain.
	ChainSequence      int       `gorm:"column:chain_sequence;not null;uniqueIndex:ux_request_levels_seq"`
	ApproverIDs        string    `gorm:"column:approver_ids;type:text;not null"`
	RequiredCount      int       `gorm:"column:required_count;not null"`
	SLAHours           int       `gorm:"column:sla_hours;not null"`
	Applicable         bool      `gorm:"column:applicable;not null"`
	AutoEscalate       bool      `gorm:"column:auto_escalate;not null"`
	EscalateToLevel    *int      `gorm:"column:escalate_to_level"`
	EscalateAfterHours *int      `gorm:"column:escalate_after_hours"`
	NotifyOnBreach     bool      `gorm:"column:notify_on_breach;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (RequestLevel) TableName() string { return "approval_request_levels" }

// Approvers decodes the snapshot's approver set.
func (l *RequestLevel) Approvers() []string {
	var out []string
	_ = json.Unmarshal([]byte(l.ApproverIDs), &out)
	return out
}

// HasApprover reports whether id is in the level's approver set.
func (l *RequestLevel) HasApprover(id string) bool {
	for _, a := range l.Approvers() {
		if a == id {
			return true
		}
	}
	return false
}

type Action string

const (
	ActionPending   Action = "pending"
	ActionApproved  Action = "approved"
	ActionRejected  Action = "rejected"
	ActionEscalated Action = "escalated"
)

// Table: approval_history
//
// Append-only audit log; one row per state transition. Never updated or
// deleted. Quorum at a level is the count of distinct actors with an
// "approved" row at that level.
type ApprovalHistory struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	RequestID uint64    `gorm:"column:request_id;not null;index:idx_history_request"`
	Level     int       `gorm:"column:level;not null"`
	Action    Action    `gorm:"column:action;size:16;not null"`
	Actor     string    `gorm:"column:actor;size:64"`
	Comment   string    `gorm:"column:comment;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ApprovalHistory) TableName() string { return "approval_history" }
