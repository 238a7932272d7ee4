package task

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("work item not found")

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	// StatusSuperseded marks items closed because the level advanced or the
	// request terminated without this assignee acting.
	StatusSuperseded Status = "superseded"
	StatusEscalated  Status = "escalated"
)

type SLAStatus string

const (
	SLAOnTrack  SLAStatus = "on_track"
	SLAWarning  SLAStatus = "warning"
	SLABreached SLAStatus = "breached"
)

// Table: approval_work_items
//
// One row per (request, level, assignee) while that level is open. Items are
// transitioned on close, never deleted, so the audit trail stays complete.
type WorkItem struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	TaskID      string     `gorm:"column:task_id;type:char(32);not null;uniqueIndex"`
	RequestID   uint64     `gorm:"column:request_id;not null;index:idx_work_items_request"`
	LevelNumber int        `gorm:"column:level_number;not null"`
	Assignee    string     `gorm:"column:assignee;size:64;not null;index:idx_work_items_assignee"`
	DueAt       time.Time  `gorm:"column:due_at;not null"`
	Status      Status     `gorm:"column:status;size:16;not null;default:'pending';index:idx_work_items_status"`
	SLAStatus   SLAStatus  `gorm:"column:sla_status;size:16;not null;default:'on_track'"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (WorkItem) TableName() string { return "approval_work_items" }

// Open reports whether the item still awaits its assignee.
func (w *WorkItem) Open() bool { return w.Status == StatusPending }
