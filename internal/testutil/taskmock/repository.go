package taskmock

import (
	"context"

	"approvalflow-backend/internal/domain/task"
)

// Repo is a function-backed mock that satisfies task.Repository.
type Repo struct {
	CreateFn                 func(ctx context.Context, w *task.WorkItem) error
	SaveFn                   func(ctx context.Context, w *task.WorkItem) error
	ListOpenByRequestLevelFn func(ctx context.Context, requestNumericID uint64, level int) ([]task.WorkItem, error)
	ListOpenByRequestFn      func(ctx context.Context, requestNumericID uint64) ([]task.WorkItem, error)
	ListOpenByAssigneeFn     func(ctx context.Context, assignee string) ([]task.WorkItem, error)
}

func (m *Repo) Create(ctx context.Context, w *task.WorkItem) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, w)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, w *task.WorkItem) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, w)
	}
	return nil
}

func (m *Repo) ListOpenByRequestLevel(ctx context.Context, requestNumericID uint64, level int) ([]task.WorkItem, error) {
	if m.ListOpenByRequestLevelFn != nil {
		return m.ListOpenByRequestLevelFn(ctx, requestNumericID, level)
	}
	return nil, nil
}

func (m *Repo) ListOpenByRequest(ctx context.Context, requestNumericID uint64) ([]task.WorkItem, error) {
	if m.ListOpenByRequestFn != nil {
		return m.ListOpenByRequestFn(ctx, requestNumericID)
	}
	return nil, nil
}

func (m *Repo) ListOpenByAssignee(ctx context.Context, assignee string) ([]task.WorkItem, error) {
	if m.ListOpenByAssigneeFn != nil {
		return m.ListOpenByAssigneeFn(ctx, assignee)
	}
	return nil, nil
}
