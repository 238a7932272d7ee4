package request

import (
	"context"
	"time"
)

type Repository interface {
	// Create a request with its level snapshot in one shot
	Create(ctx context.Context, r *ApprovalRequest, levels []RequestLevel) error

	// Get by public request_id
	GetByRequestID(ctx context.Context, requestID string) (*ApprovalRequest, error)

	// Get by internal numeric id (work item joins)
	GetByID(ctx context.Context, id uint64) (*ApprovalRequest, error)

	// Get by public request_id with a row lock (SELECT ... FOR UPDATE inside a tx)
	GetByRequestIDForUpdate(ctx context.Context, requestID string) (*ApprovalRequest, error)

	// Save mutated aggregate fields (status, current_level, deadline, completed_at)
	Save(ctx context.Context, r *ApprovalRequest) error

	// Level snapshot reads/writes
	GetLevels(ctx context.Context, requestNumericID uint64) ([]RequestLevel, error)
	SaveLevel(ctx context.Context, l *RequestLevel) error

	// History
	AppendHistory(ctx context.Context, h *ApprovalHistory) error
	GetHistory(ctx context.Context, requestNumericID uint64) ([]ApprovalHistory, error)
	// Distinct actors with an approved entry at the given level
	CountApprovalsAtLevel(ctx context.Context, requestNumericID uint64, level int) (int, error)
	HasApprovedAtLevel(ctx context.Context, requestNumericID uint64, level int, actor string) (bool, error)

	// Monitor feed
	ListPending(ctx context.Context) ([]ApprovalRequest, error)
	ListByEntity(ctx context.Context, entityType, entityID string) ([]ApprovalRequest, error)
	// Requests whose SLA was first marked breached inside [from, to), for the
	// daily breach summary. Counted from the breached work-item rows so that
	// auto-escalated and since-resolved requests still count.
	CountBreachedBetween(ctx context.Context, from, to time.Time) (int64, error)
}
