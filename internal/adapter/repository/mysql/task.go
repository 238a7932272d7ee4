package mysql

import (
	"context"

	taskDomain "approvalflow-backend/internal/domain/task"

	"gorm.io/gorm"
)

type TaskRepository struct{ db *gorm.DB }

func NewTaskRepository(db *gorm.DB) *TaskRepository { return &TaskRepository{db: db} }

func (r *TaskRepository) Create(ctx context.Context, w *taskDomain.WorkItem) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *TaskRepository) Save(ctx context.Context, w *taskDomain.WorkItem) error {
	return r.db.WithContext(ctx).Save(w).Error
}

func (r *TaskRepository) ListOpenByRequestLevel(ctx context.Context, requestNumericID uint64, level int) ([]taskDomain.WorkItem, error) {
	var out []taskDomain.WorkItem
	res := r.db.WithContext(ctx).
		Where("request_id = ? AND level_number = ? AND status = ?",
			requestNumericID, level, taskDomain.StatusPending).
		Find(&out)
	return out, res.Error
}

func (r *TaskRepository) ListOpenByRequest(ctx context.Context, requestNumericID uint64) ([]taskDomain.WorkItem, error) {
	var out []taskDomain.WorkItem
	res := r.db.WithContext(ctx).
		Where("request_id = ? AND status = ?", requestNumericID, taskDomain.StatusPending).
		Find(&out)
	return out, res.Error
}

func (r *TaskRepository) ListOpenByAssignee(ctx context.Context, assignee string) ([]taskDomain.WorkItem, error) {
	var out []taskDomain.WorkItem
	res := r.db.WithContext(ctx).
		Where("assignee = ? AND status = ?", assignee, taskDomain.StatusPending).
		Order("due_at ASC").
		Find(&out)
	return out, res.Error
}
