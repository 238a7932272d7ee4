package mysql

import (
	"context"
	"time"

	requestDomain "approvalflow-backend/internal/domain/request"
	taskDomain "approvalflow-backend/internal/domain/task"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) *RequestRepository { return &RequestRepository{db: db} }

func (r *RequestRepository) Create(ctx context.Context, req *requestDomain.ApprovalRequest, levels []requestDomain.RequestLevel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		for i := range levels {
			levels[i].RequestID = req.ID
		}
		return tx.Create(&levels).Error
	})
}

func (r *RequestRepository) GetByRequestID(ctx context.Context, requestID string) (*requestDomain.ApprovalRequest, error) {
	var out requestDomain.ApprovalRequest
	res := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out)
	return &out, res.Error
}

// GetByRequestIDForUpdate locks the request row; only meaningful inside a tx.
func (r *RequestRepository) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*requestDomain.ApprovalRequest, error) {
	var out requestDomain.ApprovalRequest
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", requestID).
		First(&out)
	return &out, res.Error
}

func (r *RequestRepository) GetByID(ctx context.Context, id uint64) (*requestDomain.ApprovalRequest, error) {
	var out requestDomain.ApprovalRequest
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *RequestRepository) Save(ctx context.Context, req *requestDomain.ApprovalRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *RequestRepository) GetLevels(ctx context.Context, requestNumericID uint64) ([]requestDomain.RequestLevel, error) {
	var out []requestDomain.RequestLevel
	res := r.db.WithContext(ctx).
		Where("request_id = ?", requestNumericID).
		Order("chain_sequence ASC").
		Find(&out)
	return out, res.Error
}

func (r *RequestRepository) SaveLevel(ctx context.Context, l *requestDomain.RequestLevel) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *RequestRepository) AppendHistory(ctx context.Context, h *requestDomain.ApprovalHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *RequestRepository) GetHistory(ctx context.Context, requestNumericID uint64) ([]requestDomain.ApprovalHistory, error) {
	var out []requestDomain.ApprovalHistory
	res := r.db.WithContext(ctx).
		Where("request_id = ?", requestNumericID).
		Order("created_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}

// CountApprovalsAtLevel counts distinct approvers, so a double vote can
// never satisfy a quorum even if one slips past the usecase guard.
func (r *RequestRepository) CountApprovalsAtLevel(ctx context.Context, requestNumericID uint64, level int) (int, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&requestDomain.ApprovalHistory{}).
		Where("request_id = ? AND level = ? AND action = ?", requestNumericID, level, requestDomain.ActionApproved).
		Distinct("actor").
		Count(&n)
	return int(n), res.Error
}

func (r *RequestRepository) HasApprovedAtLevel(ctx context.Context, requestNumericID uint64, level int, actor string) (bool, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&requestDomain.ApprovalHistory{}).
		Where("request_id = ? AND level = ? AND action = ? AND actor = ?",
			requestNumericID, level, requestDomain.ActionApproved, actor).
		Count(&n)
	return n > 0, res.Error
}

func (r *RequestRepository) ListPending(ctx context.Context) ([]requestDomain.ApprovalRequest, error) {
	var out []requestDomain.ApprovalRequest
	res := r.db.WithContext(ctx).
		Where("status = ?", requestDomain.StatusPending).
		Order("deadline ASC").
		Find(&out)
	return out, res.Error
}

func (r *RequestRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]requestDomain.ApprovalRequest, error) {
	var out []requestDomain.ApprovalRequest
	res := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}

// CountBreachedBetween counts distinct requests with a work item marked
// breached inside the window. Breached items keep their sla_status when the
// level escalates or the request resolves, so the count is stable against
// everything the sweep did after detecting the breach.
func (r *RequestRepository) CountBreachedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&taskDomain.WorkItem{}).
		Where("sla_status = ? AND updated_at >= ? AND updated_at < ?", taskDomain.SLABreached, from, to).
		Distinct("request_id").
		Count(&n)
	return n, res.Error
}
