package chainadmin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	domainChain "approvalflow-backend/internal/domain/chain"
	"approvalflow-backend/pkg/id"
)

var ErrDuplicateChain = errors.New("another active chain exists for entity type")

type Usecase struct {
	repo domainChain.Repository
	log  zerolog.Logger
}

func NewUsecase(r domainChain.Repository, log zerolog.Logger) *Usecase {
	return &Usecase{repo: r, log: log}
}

type LevelInput struct {
	Sequence           int      `json:"sequence"`
	ApproverIDs        []string `json:"approver_ids"`
	RequiredCount      int      `json:"required_count"`
	SLAHours           int      `json:"sla_hours"`
	Condition          string   `json:"condition"`
	AutoEscalate       bool     `json:"auto_escalate"`
	EscalateToLevel    *int     `json:"escalate_to_level"`
	EscalateAfterHours *int     `json:"escalate_after_hours"`
	NotifyOnBreach     bool     `json:"notify_on_breach"`
}

type RegisterInput struct {
	Name       string       `json:"name"`
	EntityType string       `json:"entity_type"`
	Levels     []LevelInput `json:"levels"`
}

type LevelDTO struct {
	Sequence        int      `json:"sequence"`
	ApproverIDs     []string `json:"approver_ids"`
	RequiredCount   int      `json:"required_count"`
	SLAHours        int      `json:"sla_hours"`
	Condition       string   `json:"condition,omitempty"`
	AutoEscalate    bool     `json:"auto_escalate"`
	EscalateToLevel *int     `json:"escalate_to_level,omitempty"`
}

type ChainDTO struct {
	ChainID    string     `json:"chain_id"`
	Name       string     `json:"name"`
	EntityType string     `json:"entity_type"`
	Active     bool       `json:"active"`
	Levels     []LevelDTO `json:"levels"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Register creates a chain with its levels. Idempotent on (name, entityType):
// re-seeding an existing chain returns it unchanged. A *different* active
// chain for the same entity type is rejected: two active chains would make
// resolution ambiguous.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*ChainDTO, error) {
	if in.Name == "" || in.EntityType == "" || len(in.Levels) == 0 {
		return nil, fmt.Errorf("%w: name, entity_type and levels are required", domainChain.ErrInvalidConfig)
	}

	c := &domainChain.ApprovalChain{
		ChainID:    id.NewID32(),
		Name:       in.Name,
		EntityType: in.EntityType,
		Active:     true,
	}
	for _, li := range in.Levels {
		c.Levels = append(c.Levels, domainChain.ApprovalLevel{
			Sequence:           li.Sequence,
			ApproverIDs:        domainChain.EncodeApprovers(li.ApproverIDs),
			RequiredCount:      li.RequiredCount,
			SLAHours:           li.SLAHours,
			Condition:          li.Condition,
			AutoEscalate:       li.AutoEscalate,
			EscalateToLevel:    li.EscalateToLevel,
			EscalateAfterHours: li.EscalateAfterHours,
			NotifyOnBreach:     li.NotifyOnBreach,
		})
	}
	if err := validateLevels(c.Levels); err != nil {
		return nil, err
	}

	// Idempotent re-seed: same name + entity type -> return the existing one.
	existing, err := u.repo.GetByNameAndEntityType(ctx, in.Name, in.EntityType)
	switch {
	case err == nil:
		u.log.Debug().Str("name", in.Name).Str("entity_type", in.EntityType).Msg("chain already registered, skipping")
		return toChainDTO(existing), nil
	case !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, domainChain.ErrNotFound):
		return nil, err
	}

	// A different active chain for this entity type is a configuration error.
	other, err := u.repo.GetActiveByEntityType(ctx, in.EntityType)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s (existing chain %q)", ErrDuplicateChain, in.EntityType, other.Name)
	case !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, domainChain.ErrNotFound):
		return nil, err
	}

	if err := u.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	u.log.Info().
		Str("chain_id", c.ChainID).
		Str("entity_type", c.EntityType).
		Int("levels", len(c.Levels)).
		Msg("approval chain registered")
	return toChainDTO(c), nil
}

// Resolve returns the chain applicable to an entity type and fact set.
// Callers must treat ErrNotFound as a configuration error, never as
// auto-approve.
func (u *Usecase) Resolve(ctx context.Context, entityType string, facts domainChain.Facts) (*domainChain.ResolvedChain, error) {
	c, err := u.repo.GetActiveByEntityType(ctx, entityType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainChain.ErrNotFound
		}
		return nil, err
	}
	return domainChain.Resolve(c, facts)
}

func (u *Usecase) Get(ctx context.Context, chainID string) (*ChainDTO, error) {
	c, err := u.repo.GetByChainID(ctx, chainID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainChain.ErrNotFound
		}
		return nil, err
	}
	return toChainDTO(c), nil
}

func (u *Usecase) List(ctx context.Context) ([]ChainDTO, error) {
	chains, err := u.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ChainDTO, 0, len(chains))
	for i := range chains {
		out = append(out, *toChainDTO(&chains[i]))
	}
	return out, nil
}

// validateLevels enforces the static chain contract: contiguous 1-based
// sequences, sane quorums and SLAs, parseable conditions, escalation targets
// that exist.
func validateLevels(levels []domainChain.ApprovalLevel) error {
	maxSeq := 0
	for i := range levels {
		if levels[i].Sequence > maxSeq {
			maxSeq = levels[i].Sequence
		}
	}
	seen := make(map[int]bool, len(levels))
	for i := range levels {
		if err := levels[i].Validate(maxSeq); err != nil {
			return err
		}
		if seen[levels[i].Sequence] {
			return fmt.Errorf("%w: duplicate sequence %d", domainChain.ErrInvalidConfig, levels[i].Sequence)
		}
		seen[levels[i].Sequence] = true
	}
	for s := 1; s <= maxSeq; s++ {
		if !seen[s] {
			return fmt.Errorf("%w: sequence gap at %d", domainChain.ErrInvalidConfig, s)
		}
	}
	return nil
}

func toChainDTO(c *domainChain.ApprovalChain) *ChainDTO {
	dto := &ChainDTO{
		ChainID:    c.ChainID,
		Name:       c.Name,
		EntityType: c.EntityType,
		Active:     c.Active,
		CreatedAt:  c.CreatedAt,
	}
	for i := range c.Levels {
		approvers, _ := c.Levels[i].ApproverList()
		dto.Levels = append(dto.Levels, LevelDTO{
			Sequence:        c.Levels[i].Sequence,
			ApproverIDs:     approvers,
			RequiredCount:   c.Levels[i].RequiredCount,
			SLAHours:        c.Levels[i].SLAHours,
			Condition:       c.Levels[i].Condition,
			AutoEscalate:    c.Levels[i].AutoEscalate,
			EscalateToLevel: c.Levels[i].EscalateToLevel,
		})
	}
	return dto
}
