package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "approvalflow-backend/internal/domain/request"
	"approvalflow-backend/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// --- SQLite-friendly schema only for tests ---

type requestSQLite struct {
	ID           uint64         `gorm:"primaryKey;column:id"`
	RequestID    string         `gorm:"size:32;column:request_id"`
	EntityType   string         `gorm:"column:entity_type"`
	EntityID     string         `gorm:"column:entity_id"`
	Reference    string         `gorm:"column:reference"`
	Title        string         `gorm:"column:title"`
	RequestedBy  string         `gorm:"column:requested_by"`
	Amount       *float64       `gorm:"column:amount"`
	Priority     string         `gorm:"column:priority"`
	Status       string         `gorm:"column:status"`
	CurrentLevel int            `gorm:"column:current_level"`
	TotalLevels  int            `gorm:"column:total_levels"`
	ChainID      uint64         `gorm:"column:chain_id"`
	Deadline     time.Time      `gorm:"column:deadline"`
	CompletedAt  *time.Time     `gorm:"column:completed_at"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (requestSQLite) TableName() string { return "approval_requests" }

type requestLevelSQLite struct {
	ID                 uint64    `gorm:"primaryKey;column:id"`
	RequestID          uint64    `gorm:"column:request_id"`
	LevelNumber        int       `gorm:"column:level_number"`
	ChainSequence      int       `gorm:"column:chain_sequence"`
	ApproverIDs        string    `gorm:"type:text;column:approver_ids"`
	RequiredCount      int       `gorm:"column:required_count"`
	SLAHours           int       `gorm:"column:sla_hours"`
	Applicable         bool      `gorm:"column:applicable"`
	AutoEscalate       bool      `gorm:"column:auto_escalate"`
	EscalateToLevel    *int      `gorm:"column:escalate_to_level"`
	EscalateAfterHours *int      `gorm:"column:escalate_after_hours"`
	NotifyOnBreach     bool      `gorm:"column:notify_on_breach"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (requestLevelSQLite) TableName() string { return "approval_request_levels" }

type historySQLite struct {
	ID        uint64    `gorm:"primaryKey;column:id"`
	RequestID uint64    `gorm:"column:request_id"`
	Level     int       `gorm:"column:level"`
	Action    string    `gorm:"column:action"`
	Actor     string    `gorm:"column:actor"`
	Comment   string    `gorm:"type:text;column:comment"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (historySQLite) TableName() string { return "approval_history" }

func openRequestTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&requestSQLite{}, &requestLevelSQLite{}, &historySQLite{}, &workItemSQLite{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeRequest(requestID string, deadline time.Time) *domain.ApprovalRequest {
	return &domain.ApprovalRequest{
		RequestID:    requestID,
		EntityType:   "purchase_order",
		EntityID:     "po-1",
		Reference:    "PO-20260831-abcdef01",
		Title:        "office chairs",
		RequestedBy:  "requester1",
		Priority:     domain.PriorityMedium,
		Status:       domain.StatusPending,
		CurrentLevel: 1,
		TotalLevels:  2,
		ChainID:      1,
		Deadline:     deadline,
	}
}

func makeLevels() []domain.RequestLevel {
	return []domain.RequestLevel{
		{LevelNumber: 1, ChainSequence: 1, ApproverIDs: `["manager1"]`, RequiredCount: 1, SLAHours: 24, Applicable: true, NotifyOnBreach: true},
		{LevelNumber: 2, ChainSequence: 2, ApproverIDs: `["director1","director2"]`, RequiredCount: 2, SLAHours: 48, Applicable: true, NotifyOnBreach: true},
		{LevelNumber: 0, ChainSequence: 3, ApproverIDs: `["cfo"]`, RequiredCount: 1, SLAHours: 72, Applicable: false, NotifyOnBreach: true},
	}
}

func TestRequestCreateAndGet(t *testing.T) {
	db := openRequestTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	requestID := id.NewID32()
	req := makeRequest(requestID, time.Now().UTC().Add(24*time.Hour))
	if err := repo.Create(ctx, req, makeLevels()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.ID == 0 {
		t.Fatal("Create did not set auto-increment ID")
	}

	got, err := repo.GetByRequestID(ctx, requestID)
	if err != nil {
		t.Fatalf("GetByRequestID: %v", err)
	}
	if got.ID != req.ID || got.Status != domain.StatusPending {
		t.Fatalf("got %+v", got)
	}

	byID, err := repo.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.RequestID != requestID {
		t.Fatalf("GetByID returned %q", byID.RequestID)
	}

	levels, err := repo.GetLevels(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetLevels: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("levels = %d, want 3", len(levels))
	}
	for i, want := range []int{1, 2, 3} {
		if levels[i].ChainSequence != want {
			t.Fatalf("level %d sequence = %d, want %d", i, levels[i].ChainSequence, want)
		}
		if levels[i].RequestID != req.ID {
			t.Fatalf("level %d not bound to request", i)
		}
	}

	if _, err := repo.GetByRequestID(ctx, "ffffffffffffffffffffffffffffffff"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("want ErrRecordNotFound, got %v", err)
	}
}

func TestRequestSaveAndSaveLevel(t *testing.T) {
	db := openRequestTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	req := makeRequest(id.NewID32(), time.Now().UTC().Add(24*time.Hour))
	if err := repo.Create(ctx, req, makeLevels()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	req.Status = domain.StatusApproved
	req.CompletedAt = &now
	if err := repo.Save(ctx, req); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.GetByRequestID(ctx, req.RequestID)
	if err != nil {
		t.Fatalf("GetByRequestID: %v", err)
	}
	if got.Status != domain.StatusApproved || got.CompletedAt == nil {
		t.Fatalf("saved request = %+v", got)
	}

	levels, _ := repo.GetLevels(ctx, req.ID)
	levels[2].LevelNumber = 3
	if err := repo.SaveLevel(ctx, &levels[2]); err != nil {
		t.Fatalf("SaveLevel: %v", err)
	}
	levels, _ = repo.GetLevels(ctx, req.ID)
	if levels[2].LevelNumber != 3 {
		t.Fatalf("level not persisted: %+v", levels[2])
	}
}

func TestRequestHistoryAndQuorumCounting(t *testing.T) {
	db := openRequestTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	req := makeRequest(id.NewID32(), time.Now().UTC().Add(24*time.Hour))
	if err := repo.Create(ctx, req, makeLevels()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows := []domain.ApprovalHistory{
		{RequestID: req.ID, Level: 1, Action: domain.ActionPending, Actor: "requester1"},
		{RequestID: req.ID, Level: 1, Action: domain.ActionApproved, Actor: "manager1"},
		{RequestID: req.ID, Level: 2, Action: domain.ActionPending},
		{RequestID: req.ID, Level: 2, Action: domain.ActionApproved, Actor: "director1"},
		// Same actor twice: must count once.
		{RequestID: req.ID, Level: 2, Action: domain.ActionApproved, Actor: "director1"},
	}
	for i := range rows {
		if err := repo.AppendHistory(ctx, &rows[i]); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	hist, err := repo.GetHistory(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(hist) != 5 || hist[0].Action != domain.ActionPending || hist[4].Actor != "director1" {
		t.Fatalf("history = %+v", hist)
	}

	n, err := repo.CountApprovalsAtLevel(ctx, req.ID, 2)
	if err != nil {
		t.Fatalf("CountApprovalsAtLevel: %v", err)
	}
	if n != 1 {
		t.Fatalf("distinct approvals at level 2 = %d, want 1", n)
	}

	ok, err := repo.HasApprovedAtLevel(ctx, req.ID, 2, "director1")
	if err != nil || !ok {
		t.Fatalf("HasApprovedAtLevel(director1) = %v, %v", ok, err)
	}
	ok, err = repo.HasApprovedAtLevel(ctx, req.ID, 2, "director2")
	if err != nil || ok {
		t.Fatalf("HasApprovedAtLevel(director2) = %v, %v", ok, err)
	}
}

func TestRequestListPendingAndBreachWindow(t *testing.T) {
	db := openRequestTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()

	late := makeRequest(id.NewID32(), now.Add(-2*time.Hour))
	early := makeRequest(id.NewID32(), now.Add(48*time.Hour))
	done := makeRequest(id.NewID32(), now.Add(-5*time.Hour))
	done.Status = domain.StatusApproved
	for _, r := range []*domain.ApprovalRequest{early, late, done} {
		if err := repo.Create(ctx, r, makeLevels()); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	pending, err := repo.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	// Soonest deadline first.
	if pending[0].RequestID != late.RequestID {
		t.Fatalf("pending order: %q first", pending[0].RequestID)
	}
}

func TestRequestCountBreachedBetween(t *testing.T) {
	db := openRequestTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour)

	// Request 1 breached inside the window, then escalated: two items of the
	// breached level, one of them already closed. Counts once.
	// Request 2 breached inside the window and was approved afterwards.
	// Request 3 breached two days ago, request 4 never breached.
	completed := now.Add(-2 * time.Hour)
	items := []workItemSQLite{
		{TaskID: "a1", RequestID: 1, LevelNumber: 1, Assignee: "manager1",
			Status: "escalated", SLAStatus: "breached", CompletedAt: &completed, UpdatedAt: now.Add(-2 * time.Hour)},
		{TaskID: "a2", RequestID: 1, LevelNumber: 1, Assignee: "manager2",
			Status: "escalated", SLAStatus: "breached", CompletedAt: &completed, UpdatedAt: now.Add(-2 * time.Hour)},
		{TaskID: "a3", RequestID: 1, LevelNumber: 2, Assignee: "director1",
			Status: "pending", SLAStatus: "on_track", UpdatedAt: now.Add(-2 * time.Hour)},
		{TaskID: "b1", RequestID: 2, LevelNumber: 1, Assignee: "manager1",
			Status: "completed", SLAStatus: "breached", CompletedAt: &completed, UpdatedAt: now.Add(-1 * time.Hour)},
		{TaskID: "c1", RequestID: 3, LevelNumber: 1, Assignee: "manager1",
			Status: "pending", SLAStatus: "breached", UpdatedAt: now.Add(-48 * time.Hour)},
		{TaskID: "d1", RequestID: 4, LevelNumber: 1, Assignee: "manager1",
			Status: "pending", SLAStatus: "warning", UpdatedAt: now.Add(-1 * time.Hour)},
	}
	for i := range items {
		items[i].DueAt = now.Add(-3 * time.Hour)
		items[i].CreatedAt = now.Add(-26 * time.Hour)
		if err := db.Create(&items[i]).Error; err != nil {
			t.Fatalf("seed item %s: %v", items[i].TaskID, err)
		}
	}

	n, err := repo.CountBreachedBetween(ctx, from, now)
	if err != nil {
		t.Fatalf("CountBreachedBetween: %v", err)
	}
	// Requests 1 and 2: the escalated and the since-approved one both keep
	// counting; the old breach and the warning do not.
	if n != 2 {
		t.Fatalf("breached = %d, want 2", n)
	}
}

func TestRequestListByEntity(t *testing.T) {
	db := openRequestTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	a := makeRequest(id.NewID32(), time.Now().UTC().Add(time.Hour))
	b := makeRequest(id.NewID32(), time.Now().UTC().Add(time.Hour))
	b.EntityID = "po-2"
	for _, r := range []*domain.ApprovalRequest{a, b} {
		if err := repo.Create(ctx, r, makeLevels()); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.ListByEntity(ctx, "purchase_order", "po-1")
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(got) != 1 || got[0].RequestID != a.RequestID {
		t.Fatalf("ListByEntity = %+v", got)
	}
}
