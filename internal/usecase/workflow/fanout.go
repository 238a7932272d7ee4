package workflow

import (
	"context"
	"time"

	domainRequest "approvalflow-backend/internal/domain/request"
	domainTask "approvalflow-backend/internal/domain/task"
	"approvalflow-backend/internal/domain/uow"
	"approvalflow-backend/pkg/id"
)

// openLevel fans a level out into one work item per approver. Idempotent per
// (request, level, assignee): approvers that already hold an open item at
// this level are skipped, so a repeated call never duplicates. Returns only
// the items actually created.
func openLevel(ctx context.Context, r uow.Repos, req *domainRequest.ApprovalRequest, lvl *domainRequest.RequestLevel, due time.Time) ([]domainTask.WorkItem, error) {
	existing, err := r.Tasks.ListOpenByRequestLevel(ctx, req.ID, lvl.LevelNumber)
	if err != nil {
		return nil, err
	}
	open := make(map[string]bool, len(existing))
	for _, w := range existing {
		open[w.Assignee] = true
	}

	var created []domainTask.WorkItem
	for _, approver := range lvl.Approvers() {
		if open[approver] {
			continue
		}
		w := domainTask.WorkItem{
			TaskID:      id.NewID32(),
			RequestID:   req.ID,
			LevelNumber: lvl.LevelNumber,
			Assignee:    approver,
			DueAt:       due,
			Status:      domainTask.StatusPending,
			SLAStatus:   domainTask.SLAOnTrack,
		}
		if err := r.Tasks.Create(ctx, &w); err != nil {
			return nil, err
		}
		created = append(created, w)
	}
	return created, nil
}

// closeLevel transitions every still-pending item of one level to the given
// terminal status. Items are closed, not deleted.
func closeLevel(ctx context.Context, r uow.Repos, requestNumericID uint64, level int, status domainTask.Status, now time.Time) error {
	items, err := r.Tasks.ListOpenByRequestLevel(ctx, requestNumericID, level)
	if err != nil {
		return err
	}
	return closeItems(ctx, r, items, status, now)
}

// closeAllOpen closes every open item of a request, any level. Used on
// terminal transitions.
func closeAllOpen(ctx context.Context, r uow.Repos, requestNumericID uint64, status domainTask.Status, now time.Time) error {
	items, err := r.Tasks.ListOpenByRequest(ctx, requestNumericID)
	if err != nil {
		return err
	}
	return closeItems(ctx, r, items, status, now)
}

func closeItems(ctx context.Context, r uow.Repos, items []domainTask.WorkItem, status domainTask.Status, now time.Time) error {
	for i := range items {
		items[i].Status = status
		items[i].CompletedAt = &now
		if err := r.Tasks.Save(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// completeItemFor marks the acting approver's own open item done.
func completeItemFor(ctx context.Context, r uow.Repos, req *domainRequest.ApprovalRequest, approver string, now time.Time) error {
	items, err := r.Tasks.ListOpenByRequestLevel(ctx, req.ID, req.CurrentLevel)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].Assignee != approver {
			continue
		}
		items[i].Status = domainTask.StatusCompleted
		items[i].CompletedAt = &now
		return r.Tasks.Save(ctx, &items[i])
	}
	// No open item (e.g. approver acted through a stale inbox after manual
	// reassignment); the history entry is still the source of truth.
	return nil
}
