package task

import "context"

type Repository interface {
	Create(ctx context.Context, w *WorkItem) error
	Save(ctx context.Context, w *WorkItem) error

	// Open (status=pending) items for one level of one request
	ListOpenByRequestLevel(ctx context.Context, requestNumericID uint64, level int) ([]WorkItem, error)

	// All open items for a request regardless of level
	ListOpenByRequest(ctx context.Context, requestNumericID uint64) ([]WorkItem, error)

	// Open items assigned to a user (approver inbox)
	ListOpenByAssignee(ctx context.Context, assignee string) ([]WorkItem, error)
}
