package workflow

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domainRequest "approvalflow-backend/internal/domain/request"
)

// GetRequest returns the request by public id, any status.
func (u *Usecase) GetRequest(ctx context.Context, requestID string) (*RequestDTO, error) {
	req, err := u.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainRequest.ErrNotFound
		}
		return nil, err
	}
	return toRequestDTO(req), nil
}

// GetHistory returns the full audit trail, ascending by time. Available
// regardless of request status.
func (u *Usecase) GetHistory(ctx context.Context, requestID string) ([]HistoryDTO, error) {
	req, err := u.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainRequest.ErrNotFound
		}
		return nil, err
	}
	rows, err := u.requests.GetHistory(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryDTO, 0, len(rows))
	for _, h := range rows {
		out = append(out, HistoryDTO{
			Level:   h.Level,
			Action:  string(h.Action),
			Actor:   h.Actor,
			Comment: h.Comment,
			At:      h.CreatedAt,
		})
	}
	return out, nil
}

// ListByEntity returns all requests ever opened for one business entity.
func (u *Usecase) ListByEntity(ctx context.Context, entityType, entityID string) ([]RequestDTO, error) {
	rows, err := u.requests.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	out := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toRequestDTO(&rows[i]))
	}
	return out, nil
}

// GetPendingForUser is the approver inbox: open work items joined with their
// requests.
func (u *Usecase) GetPendingForUser(ctx context.Context, userID string) ([]PendingTaskDTO, error) {
	if userID == "" {
		return nil, errors.New("invalid input")
	}
	items, err := u.tasks.ListOpenByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]PendingTaskDTO, 0, len(items))
	for _, w := range items {
		req, err := u.requests.GetByID(ctx, w.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Request soft-deleted underneath its item; skip rather than
				// fail the whole inbox.
				continue
			}
			return nil, fmt.Errorf("load request for work item %s: %w", w.TaskID, err)
		}
		out = append(out, PendingTaskDTO{
			TaskID:     w.TaskID,
			RequestID:  req.RequestID,
			EntityType: req.EntityType,
			Title:      req.Title,
			Priority:   string(req.Priority),
			Level:      w.LevelNumber,
			DueAt:      w.DueAt,
			SLAStatus:  string(w.SLAStatus),
		})
	}
	return out, nil
}
