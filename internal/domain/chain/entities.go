package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("approval chain not found")
	ErrInvalidConfig = errors.New("invalid chain configuration")
)

// Table: approval_chains
type ApprovalChain struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	ChainID    string          `gorm:"column:chain_id;type:char(32);not null;uniqueIndex:ux_chains_chain_id_active"`
	Name       string          `gorm:"column:name;size:128;not null"`
	EntityType string          `gorm:"column:entity_type;size:64;not null;index:idx_chains_entity_type"`
	Active     bool            `gorm:"column:active;not null;default:true"`
	Levels     []ApprovalLevel `gorm:"foreignKey:ChainID;references:ID"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

func (ApprovalChain) TableName() string { return "approval_chains" }

// Table: approval_levels
//
// ApproverIDs and Condition are stored as JSON text; both are parsed once at
// chain load (see ParseCondition / ApproverList) and validated at
// registration time, never re-interpreted ad hoc per evaluation.
type ApprovalLevel struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	ChainID uint64 `gorm:"column:chain_id;not null;index;uniqueIndex:ux_levels_chain_sequence"`
	// 1-based, unique within chain
	Sequence      int    `gorm:"column:sequence;not null;uniqueIndex:ux_levels_chain_sequence"`
	ApproverIDs   string `gorm:"column:approver_ids;type:text;not null"`
	RequiredCount int    `gorm:"column:required_count;not null;default:1"`
	SLAHours      int    `gorm:"column:sla_hours;not null"`
	// Empty condition means the level is always applicable.
	Condition          string     `gorm:"column:condition;type:text"`
	AutoEscalate       bool       `gorm:"column:auto_escalate;not null;default:false"`
	EscalateToLevel    *int       `gorm:"column:escalate_to_level"`
	EscalateAfterHours *int       `gorm:"column:escalate_after_hours"`
	NotifyOnBreach     bool       `gorm:"column:notify_on_breach;not null;default:true"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (ApprovalLevel) TableName() string { return "approval_levels" }

// ApproverList decodes the JSON approver array.
func (l *ApprovalLevel) ApproverList() ([]string, error) {
	if l.ApproverIDs == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(l.ApproverIDs), &out); err != nil {
		return nil, fmt.Errorf("level %d: decode approver_ids: %w", l.Sequence, err)
	}
	return out, nil
}

// EncodeApprovers marshals an approver set into the stored JSON form.
func EncodeApprovers(ids []string) string {
	b, _ := json.Marshal(ids)
	return string(b)
}

// Validate checks a level's static configuration. Malformed conditions and
// escalation targets are rejected here, at registration time, rather than
// surfacing during evaluation of a live request.
func (l *ApprovalLevel) Validate(maxSequence int) error {
	if l.Sequence < 1 {
		return fmt.Errorf("%w: level sequence %d must be >= 1", ErrInvalidConfig, l.Sequence)
	}
	approvers, err := l.ApproverList()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(approvers) == 0 {
		return fmt.Errorf("%w: level %d has no approvers", ErrInvalidConfig, l.Sequence)
	}
	if l.RequiredCount < 1 || l.RequiredCount > len(approvers) {
		return fmt.Errorf("%w: level %d required_count %d out of range (1..%d)",
			ErrInvalidConfig, l.Sequence, l.RequiredCount, len(approvers))
	}
	if l.SLAHours <= 0 {
		return fmt.Errorf("%w: level %d sla_hours must be > 0", ErrInvalidConfig, l.Sequence)
	}
	if _, err := ParseCondition(l.Condition); err != nil {
		return fmt.Errorf("%w: level %d condition: %v", ErrInvalidConfig, l.Sequence, err)
	}
	if l.EscalateToLevel != nil {
		if t := *l.EscalateToLevel; t < 1 || t > maxSequence {
			return fmt.Errorf("%w: level %d escalate_to_level %d does not exist in chain",
				ErrInvalidConfig, l.Sequence, t)
		}
	}
	if l.EscalateAfterHours != nil && *l.EscalateAfterHours <= 0 {
		return fmt.Errorf("%w: level %d escalate_after_hours must be > 0", ErrInvalidConfig, l.Sequence)
	}
	return nil
}
