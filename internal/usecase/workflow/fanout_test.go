package workflow

import (
	"context"
	"testing"
	"time"

	domainRequest "approvalflow-backend/internal/domain/request"
	domainTask "approvalflow-backend/internal/domain/task"
	"approvalflow-backend/internal/domain/uow"
	"approvalflow-backend/internal/testutil/taskmock"
)

func fanoutRepos(items *[]domainTask.WorkItem) uow.Repos {
	return uow.Repos{
		Tasks: &taskmock.Repo{
			CreateFn: func(ctx context.Context, w *domainTask.WorkItem) error {
				w.ID = uint64(len(*items) + 1)
				*items = append(*items, *w)
				return nil
			},
			SaveFn: func(ctx context.Context, w *domainTask.WorkItem) error {
				for i := range *items {
					if (*items)[i].TaskID == w.TaskID {
						(*items)[i] = *w
						return nil
					}
				}
				return domainTask.ErrNotFound
			},
			ListOpenByRequestLevelFn: func(ctx context.Context, requestNumericID uint64, level int) ([]domainTask.WorkItem, error) {
				var out []domainTask.WorkItem
				for _, w := range *items {
					if w.RequestID == requestNumericID && w.LevelNumber == level && w.Open() {
						out = append(out, w)
					}
				}
				return out, nil
			},
			ListOpenByRequestFn: func(ctx context.Context, requestNumericID uint64) ([]domainTask.WorkItem, error) {
				var out []domainTask.WorkItem
				for _, w := range *items {
					if w.RequestID == requestNumericID && w.Open() {
						out = append(out, w)
					}
				}
				return out, nil
			},
		},
	}
}

func TestOpenLevel_IdempotentPerAssignee(t *testing.T) {
	var items []domainTask.WorkItem
	r := fanoutRepos(&items)
	req := &domainRequest.ApprovalRequest{ID: 1, CurrentLevel: 1}
	lvl := &domainRequest.RequestLevel{
		LevelNumber: 1,
		ApproverIDs: `["a1","a2"]`,
	}
	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	created, err := openLevel(context.Background(), r, req, lvl, due)
	if err != nil {
		t.Fatalf("openLevel: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("first open created %d items, want 2", len(created))
	}

	// Second call with an overlapping set only fills the gap.
	lvl.ApproverIDs = `["a2","a3"]`
	created, err = openLevel(context.Background(), r, req, lvl, due)
	if err != nil {
		t.Fatalf("openLevel repeat: %v", err)
	}
	if len(created) != 1 || created[0].Assignee != "a3" {
		t.Fatalf("repeat open created %+v, want only a3", created)
	}
	if len(items) != 3 {
		t.Fatalf("store holds %d items, want 3", len(items))
	}
	for _, w := range items {
		if !w.DueAt.Equal(due) || w.SLAStatus != domainTask.SLAOnTrack {
			t.Fatalf("item %+v", w)
		}
	}
}

func TestCloseAllOpen_LeavesClosedItemsAlone(t *testing.T) {
	var items []domainTask.WorkItem
	r := fanoutRepos(&items)
	done := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	items = append(items,
		domainTask.WorkItem{TaskID: "t1", RequestID: 1, LevelNumber: 1, Assignee: "a1", Status: domainTask.StatusCompleted, CompletedAt: &done},
		domainTask.WorkItem{TaskID: "t2", RequestID: 1, LevelNumber: 1, Assignee: "a2", Status: domainTask.StatusPending},
		domainTask.WorkItem{TaskID: "t3", RequestID: 1, LevelNumber: 2, Assignee: "a3", Status: domainTask.StatusPending},
	)

	now := time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC)
	if err := closeAllOpen(context.Background(), r, 1, domainTask.StatusSuperseded, now); err != nil {
		t.Fatalf("closeAllOpen: %v", err)
	}

	if items[0].Status != domainTask.StatusCompleted || !items[0].CompletedAt.Equal(done) {
		t.Fatalf("completed item was touched: %+v", items[0])
	}
	for _, w := range items[1:] {
		if w.Status != domainTask.StatusSuperseded || w.CompletedAt == nil {
			t.Fatalf("item not superseded: %+v", w)
		}
	}
}

func TestCompleteItemFor_MissingItemIsNoop(t *testing.T) {
	var items []domainTask.WorkItem
	r := fanoutRepos(&items)
	req := &domainRequest.ApprovalRequest{ID: 1, CurrentLevel: 1}
	if err := completeItemFor(context.Background(), r, req, "ghost", time.Now()); err != nil {
		t.Fatalf("completeItemFor without an item must be a no-op, got %v", err)
	}
}
