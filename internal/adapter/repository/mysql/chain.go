package mysql

import (
	"context"

	chainDomain "approvalflow-backend/internal/domain/chain"

	"gorm.io/gorm"
)

type ChainRepository struct{ db *gorm.DB }

func NewChainRepository(db *gorm.DB) *ChainRepository { return &ChainRepository{db: db} }

func (r *ChainRepository) Create(ctx context.Context, c *chainDomain.ApprovalChain) error {
	// Levels ride along via the association; one insert batch.
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ChainRepository) GetActiveByEntityType(ctx context.Context, entityType string) (*chainDomain.ApprovalChain, error) {
	var out chainDomain.ApprovalChain
	res := r.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("entity_type = ? AND active = ?", entityType, true).
		First(&out)
	return &out, res.Error
}

func (r *ChainRepository) GetByNameAndEntityType(ctx context.Context, name, entityType string) (*chainDomain.ApprovalChain, error) {
	var out chainDomain.ApprovalChain
	res := r.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("name = ? AND entity_type = ? AND active = ?", name, entityType, true).
		First(&out)
	return &out, res.Error
}

func (r *ChainRepository) GetByChainID(ctx context.Context, chainID string) (*chainDomain.ApprovalChain, error) {
	var out chainDomain.ApprovalChain
	res := r.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("chain_id = ?", chainID).
		First(&out)
	return &out, res.Error
}

func (r *ChainRepository) ListActive(ctx context.Context) ([]chainDomain.ApprovalChain, error) {
	var out []chainDomain.ApprovalChain
	res := r.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("active = ?", true).
		Order("entity_type ASC").
		Find(&out)
	return out, res.Error
}
