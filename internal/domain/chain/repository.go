package chain

import "context"

type Repository interface {
	// Create a chain with its levels in one shot
	Create(ctx context.Context, c *ApprovalChain) error

	// Get the single active chain (with levels, sequence ascending) for an entity type
	GetActiveByEntityType(ctx context.Context, entityType string) (*ApprovalChain, error)

	// Get active chain by name + entity type (idempotent re-seed check)
	GetByNameAndEntityType(ctx context.Context, name, entityType string) (*ApprovalChain, error)

	// Get by public chain_id
	GetByChainID(ctx context.Context, chainID string) (*ApprovalChain, error)

	// List all active chains with levels
	ListActive(ctx context.Context) ([]ApprovalChain, error)
}
