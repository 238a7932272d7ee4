package requestmock

import (
	"context"
	"time"

	domain "approvalflow-backend/internal/domain/request"
)

// Repo is a function-backed mock that satisfies request.Repository.
// Fill in the function fields a test needs; unfilled ones return zero values
// or context.Canceled so a forgotten stub fails loudly.
type Repo struct {
	CreateFn                  func(ctx context.Context, r *domain.ApprovalRequest, levels []domain.RequestLevel) error
	GetByRequestIDFn          func(ctx context.Context, requestID string) (*domain.ApprovalRequest, error)
	GetByRequestIDForUpdateFn func(ctx context.Context, requestID string) (*domain.ApprovalRequest, error)
	GetByIDFn                 func(ctx context.Context, id uint64) (*domain.ApprovalRequest, error)
	SaveFn                    func(ctx context.Context, r *domain.ApprovalRequest) error
	GetLevelsFn               func(ctx context.Context, requestNumericID uint64) ([]domain.RequestLevel, error)
	SaveLevelFn               func(ctx context.Context, l *domain.RequestLevel) error
	AppendHistoryFn           func(ctx context.Context, h *domain.ApprovalHistory) error
	GetHistoryFn              func(ctx context.Context, requestNumericID uint64) ([]domain.ApprovalHistory, error)
	CountApprovalsAtLevelFn   func(ctx context.Context, requestNumericID uint64, level int) (int, error)
	HasApprovedAtLevelFn      func(ctx context.Context, requestNumericID uint64, level int, actor string) (bool, error)
	ListPendingFn             func(ctx context.Context) ([]domain.ApprovalRequest, error)
	ListByEntityFn            func(ctx context.Context, entityType, entityID string) ([]domain.ApprovalRequest, error)
	CountBreachedBetweenFn    func(ctx context.Context, from, to time.Time) (int64, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.ApprovalRequest, levels []domain.RequestLevel) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r, levels)
	}
	return nil
}

func (m *Repo) GetByRequestID(ctx context.Context, requestID string) (*domain.ApprovalRequest, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*domain.ApprovalRequest, error) {
	if m.GetByRequestIDForUpdateFn != nil {
		return m.GetByRequestIDForUpdateFn(ctx, requestID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.ApprovalRequest, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, r *domain.ApprovalRequest) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetLevels(ctx context.Context, requestNumericID uint64) ([]domain.RequestLevel, error) {
	if m.GetLevelsFn != nil {
		return m.GetLevelsFn(ctx, requestNumericID)
	}
	return nil, nil
}

func (m *Repo) SaveLevel(ctx context.Context, l *domain.RequestLevel) error {
	if m.SaveLevelFn != nil {
		return m.SaveLevelFn(ctx, l)
	}
	return nil
}

func (m *Repo) AppendHistory(ctx context.Context, h *domain.ApprovalHistory) error {
	if m.AppendHistoryFn != nil {
		return m.AppendHistoryFn(ctx, h)
	}
	return nil
}

func (m *Repo) GetHistory(ctx context.Context, requestNumericID uint64) ([]domain.ApprovalHistory, error) {
	if m.GetHistoryFn != nil {
		return m.GetHistoryFn(ctx, requestNumericID)
	}
	return nil, nil
}

func (m *Repo) CountApprovalsAtLevel(ctx context.Context, requestNumericID uint64, level int) (int, error) {
	if m.CountApprovalsAtLevelFn != nil {
		return m.CountApprovalsAtLevelFn(ctx, requestNumericID, level)
	}
	return 0, nil
}

func (m *Repo) HasApprovedAtLevel(ctx context.Context, requestNumericID uint64, level int, actor string) (bool, error) {
	if m.HasApprovedAtLevelFn != nil {
		return m.HasApprovedAtLevelFn(ctx, requestNumericID, level, actor)
	}
	return false, nil
}

func (m *Repo) ListPending(ctx context.Context) ([]domain.ApprovalRequest, error) {
	if m.ListPendingFn != nil {
		return m.ListPendingFn(ctx)
	}
	return nil, nil
}

func (m *Repo) ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.ApprovalRequest, error) {
	if m.ListByEntityFn != nil {
		return m.ListByEntityFn(ctx, entityType, entityID)
	}
	return nil, nil
}

func (m *Repo) CountBreachedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	if m.CountBreachedBetweenFn != nil {
		return m.CountBreachedBetweenFn(ctx, from, to)
	}
	return 0, nil
}
