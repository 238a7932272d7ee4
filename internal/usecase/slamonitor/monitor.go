package slamonitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"approvalflow-backend/internal/domain/notify"
	domainRequest "approvalflow-backend/internal/domain/request"
	domainTask "approvalflow-backend/internal/domain/task"
	"approvalflow-backend/internal/domain/uow"
	"approvalflow-backend/pkg/id"
)

// systemActor is recorded on history rows the monitor writes.
const systemActor = "sla-monitor"

// Monitor periodically sweeps pending requests, classifies them against
// their deadline and escalates breached levels that are configured for it.
// Deadlines are advisory: a breach never terminates a request by itself.
type Monitor struct {
	requests  domainRequest.Repository
	uow       uow.UnitOfWork
	publisher notify.Publisher
	log       zerolog.Logger

	interval      time.Duration
	warningWindow time.Duration
	now           func() time.Time
}

func New(requests domainRequest.Repository, tx uow.UnitOfWork, pub notify.Publisher, log zerolog.Logger, interval time.Duration, warningHours int) *Monitor {
	if pub == nil {
		pub = notify.Noop{}
	}
	return &Monitor{
		requests:      requests,
		uow:           tx,
		publisher:     pub,
		log:           log,
		interval:      interval,
		warningWindow: time.Duration(warningHours) * time.Hour,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks until ctx is canceled: one ticker for the SLA sweep, one for
// the daily breach summary.
func (m *Monitor) Run(ctx context.Context) {
	sweep := time.NewTicker(m.interval)
	defer sweep.Stop()
	daily := time.NewTicker(24 * time.Hour)
	defer daily.Stop()

	m.log.Info().Dur("interval", m.interval).Msg("sla monitor started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("sla monitor stopped")
			return
		case <-sweep.C:
			if err := m.SweepOnce(ctx); err != nil {
				m.log.Error().Err(err).Msg("sla sweep failed")
			}
		case <-daily.C:
			if err := m.DailySummary(ctx); err != nil {
				m.log.Error().Err(err).Msg("daily sla summary failed")
			}
		}
	}
}

// SweepOnce classifies every pending request. A failure on one request is
// logged and never aborts the rest of the sweep.
func (m *Monitor) SweepOnce(ctx context.Context) error {
	pending, err := m.requests.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending requests: %w", err)
	}

	for i := range pending {
		if err := m.sweepRequest(ctx, pending[i].RequestID); err != nil {
			m.log.Error().Err(err).
				Str("request_id", pending[i].RequestID).
				Msg("sweep: request skipped")
		}
	}
	return nil
}

// Classify buckets a deadline by time remaining.
func (m *Monitor) Classify(deadline, now time.Time) domainTask.SLAStatus {
	remaining := deadline.Sub(now)
	switch {
	case remaining < 0:
		return domainTask.SLABreached
	case remaining <= m.warningWindow:
		return domainTask.SLAWarning
	default:
		return domainTask.SLAOnTrack
	}
}

func (m *Monitor) sweepRequest(ctx context.Context, requestID string) error {
	now := m.now()
	var events []notify.Event

	err := m.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.ApprovalRequest) error {
		// Re-read under the lock: an approve/reject racing with the sweep may
		// already have advanced or resolved the request since ListPending.
		if !req.Pending() {
			return nil
		}

		class := m.Classify(req.Deadline, now)

		items, err := r.Tasks.ListOpenByRequestLevel(ctx, req.ID, req.CurrentLevel)
		if err != nil {
			return err
		}

		firstBreach := false
		for i := range items {
			prev := items[i].SLAStatus
			if prev == class {
				continue
			}
			items[i].SLAStatus = class
			if err := r.Tasks.Save(ctx, &items[i]); err != nil {
				return err
			}
			// Notify only on the transition edge, never for an unchanged state.
			switch {
			case class == domainTask.SLABreached:
				firstBreach = true
				events = append(events, slaEvent(notify.EventSLABreached, req, items[i].Assignee))
			case class == domainTask.SLAWarning && prev == domainTask.SLAOnTrack:
				events = append(events, slaEvent(notify.EventSLAWarning, req, items[i].Assignee))
			}
		}

		if class != domainTask.SLABreached || !firstBreach {
			return nil
		}

		escalated, evs, err := m.autoEscalate(ctx, r, req, now)
		if err != nil {
			return err
		}
		if escalated {
			events = append(events, evs...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, ev := range events {
		m.publisher.Publish(ctx, ev)
	}
	return nil
}

// autoEscalate moves a breached request to its escalation target level:
// outstanding items are marked escalated, the target's approvers get fresh
// items and the deadline restarts from the target's SLA. The original
// level's quorum is never required to have been met.
func (m *Monitor) autoEscalate(ctx context.Context, r uow.Repos, req *domainRequest.ApprovalRequest, now time.Time) (bool, []notify.Event, error) {
	levels, err := r.Requests.GetLevels(ctx, req.ID)
	if err != nil {
		return false, nil, err
	}

	var active *domainRequest.RequestLevel
	for i := range levels {
		if levels[i].LevelNumber == req.CurrentLevel {
			active = &levels[i]
			break
		}
	}
	if active == nil || !active.AutoEscalate {
		return false, nil, nil
	}

	// Target resolves against the full captured level set, not just the
	// applicable subset: the fallback level may not itself have matched the
	// request's facts.
	targetSeq := active.ChainSequence + 1
	if active.EscalateToLevel != nil {
		targetSeq = *active.EscalateToLevel
	}
	var target *domainRequest.RequestLevel
	for i := range levels {
		if levels[i].ChainSequence == targetSeq {
			target = &levels[i]
			break
		}
	}
	if target == nil {
		return false, nil, fmt.Errorf("%w: sequence %d of request %s",
			domainRequest.ErrEscalationTarget, targetSeq, req.RequestID)
	}

	if target.LevelNumber == 0 {
		target.LevelNumber = nextLevelNumber(levels, target.ChainSequence)
		if err := r.Requests.SaveLevel(ctx, target); err != nil {
			return false, nil, err
		}
	}
	if target.LevelNumber < req.CurrentLevel {
		// CurrentLevel must never decrease while pending; a backward target
		// is a configuration defect, not a reason to corrupt the request.
		return false, nil, fmt.Errorf("%w: target level %d behind current %d",
			domainRequest.ErrEscalationTarget, target.LevelNumber, req.CurrentLevel)
	}

	if err := closeLevelItems(ctx, r, req.ID, req.CurrentLevel, now); err != nil {
		return false, nil, err
	}

	fromLevel := req.CurrentLevel
	req.CurrentLevel = target.LevelNumber
	req.Deadline = now.Add(time.Duration(target.SLAHours) * time.Hour)
	if err := r.Requests.Save(ctx, req); err != nil {
		return false, nil, err
	}

	if err := r.Requests.AppendHistory(ctx, &domainRequest.ApprovalHistory{
		RequestID: req.ID,
		Level:     req.CurrentLevel,
		Action:    domainRequest.ActionEscalated,
		Actor:     systemActor,
		Comment:   fmt.Sprintf("sla breached at level %d", fromLevel),
	}); err != nil {
		return false, nil, err
	}

	var events []notify.Event
	for _, approver := range target.Approvers() {
		w := domainTask.WorkItem{
			TaskID:      id.NewID32(),
			RequestID:   req.ID,
			LevelNumber: target.LevelNumber,
			Assignee:    approver,
			DueAt:       req.Deadline,
			Status:      domainTask.StatusPending,
			SLAStatus:   domainTask.SLAOnTrack,
		}
		if err := r.Tasks.Create(ctx, &w); err != nil {
			return false, nil, err
		}
		events = append(events, notify.Event{
			Type:      notify.EventAssigned,
			UserID:    approver,
			RequestID: req.RequestID,
			Extra:     map[string]any{"level": target.LevelNumber, "due_at": req.Deadline, "escalated": true},
		})
	}
	events = append(events, notify.Event{
		Type:      notify.EventEscalated,
		UserID:    req.RequestedBy,
		RequestID: req.RequestID,
		Extra:     map[string]any{"from_level": fromLevel, "to_level": req.CurrentLevel},
	})

	m.log.Warn().
		Str("request_id", req.RequestID).
		Int("from_level", fromLevel).
		Int("to_level", req.CurrentLevel).
		Msg("request auto-escalated on sla breach")
	return true, events, nil
}

// DailySummary aggregates breaches over the prior day. Read-only; the
// 5-minute sweep already produced all state changes.
func (m *Monitor) DailySummary(ctx context.Context) error {
	now := m.now()
	from := now.Add(-24 * time.Hour)
	breached, err := m.requests.CountBreachedBetween(ctx, from, now)
	if err != nil {
		return err
	}

	m.log.Info().
		Int64("breached", breached).
		Time("from", from).
		Msg("daily sla summary")
	m.publisher.Publish(ctx, notify.Event{
		Type:  notify.EventDailySummary,
		Extra: map[string]any{"breached": breached, "from": from, "to": now},
	})
	return nil
}

func slaEvent(eventType string, req *domainRequest.ApprovalRequest, userID string) notify.Event {
	return notify.Event{
		Type:      eventType,
		UserID:    userID,
		RequestID: req.RequestID,
		Extra:     map[string]any{"level": req.CurrentLevel, "deadline": req.Deadline, "title": req.Title},
	}
}

func closeLevelItems(ctx context.Context, r uow.Repos, requestNumericID uint64, level int, now time.Time) error {
	items, err := r.Tasks.ListOpenByRequestLevel(ctx, requestNumericID, level)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Status = domainTask.StatusEscalated
		items[i].CompletedAt = &now
		if err := r.Tasks.Save(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// nextLevelNumber numbers a previously unnumbered snapshot row. The chain
// sequence is used when free; otherwise one past the highest assigned number.
func nextLevelNumber(levels []domainRequest.RequestLevel, chainSequence int) int {
	max := 0
	taken := false
	for i := range levels {
		if levels[i].LevelNumber > max {
			max = levels[i].LevelNumber
		}
		if levels[i].LevelNumber == chainSequence {
			taken = true
		}
	}
	if !taken && chainSequence > 0 {
		return chainSequence
	}
	return max + 1
}
