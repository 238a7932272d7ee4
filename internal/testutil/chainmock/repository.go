package chainmock

import (
	"context"

	domain "approvalflow-backend/internal/domain/chain"
)

// Repo is a function-backed mock that satisfies chain.Repository.
// Only methods you need are included; add more as tests require.
type Repo struct {
	CreateFn                 func(ctx context.Context, c *domain.ApprovalChain) error
	GetActiveByEntityTypeFn  func(ctx context.Context, entityType string) (*domain.ApprovalChain, error)
	GetByNameAndEntityTypeFn func(ctx context.Context, name, entityType string) (*domain.ApprovalChain, error)
	GetByChainIDFn           func(ctx context.Context, chainID string) (*domain.ApprovalChain, error)
	ListActiveFn             func(ctx context.Context) ([]domain.ApprovalChain, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.ApprovalChain) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetActiveByEntityType(ctx context.Context, entityType string) (*domain.ApprovalChain, error) {
	if m.GetActiveByEntityTypeFn != nil {
		return m.GetActiveByEntityTypeFn(ctx, entityType)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByNameAndEntityType(ctx context.Context, name, entityType string) (*domain.ApprovalChain, error) {
	if m.GetByNameAndEntityTypeFn != nil {
		return m.GetByNameAndEntityTypeFn(ctx, name, entityType)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByChainID(ctx context.Context, chainID string) (*domain.ApprovalChain, error) {
	if m.GetByChainIDFn != nil {
		return m.GetByChainIDFn(ctx, chainID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListActive(ctx context.Context) ([]domain.ApprovalChain, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx)
	}
	return nil, nil
}
