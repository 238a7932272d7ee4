package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	domainChain "approvalflow-backend/internal/domain/chain"
	"approvalflow-backend/internal/domain/notify"
	domainRequest "approvalflow-backend/internal/domain/request"
	domainTask "approvalflow-backend/internal/domain/task"
	"approvalflow-backend/internal/domain/uow"
	"approvalflow-backend/pkg/id"
)

// Usecase is the approval request state machine: Pending(level 1..N) ->
// Approved | Rejected, with work-item fan-out per open level. All mutations
// run inside the UnitOfWork so concurrent approvals on one request are
// serialized behind the request row lock.
type Usecase struct {
	requests  domainRequest.Repository
	tasks     domainTask.Repository
	uow       uow.UnitOfWork
	publisher notify.Publisher
	log       zerolog.Logger

	now func() time.Time
}

func NewUsecase(requests domainRequest.Repository, tasks domainTask.Repository, tx uow.UnitOfWork, pub notify.Publisher, log zerolog.Logger) *Usecase {
	if pub == nil {
		pub = notify.Noop{}
	}
	return &Usecase{
		requests:  requests,
		tasks:     tasks,
		uow:       tx,
		publisher: pub,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create resolves the active chain for the entity type, filters its levels
// by the request's facts, and opens the request at level 1. A missing chain
// or an empty applicable set is a hard error; nothing is persisted in
// either case.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*RequestDTO, error) {
	if u.uow == nil {
		return nil, domainRequest.ErrInvalidState
	}
	if in.EntityType == "" || in.Title == "" || in.RequestedBy == "" {
		return nil, errors.New("invalid input")
	}

	now := u.now()
	facts := domainChain.Facts{}
	for k, v := range in.Facts {
		facts[k] = v
	}
	if in.Amount != nil {
		facts["amount"] = *in.Amount
	}

	var (
		dto    *RequestDTO
		events []notify.Event
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		c, err := r.Chains.GetActiveByEntityType(ctx, in.EntityType)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, domainChain.ErrNotFound) {
				return fmt.Errorf("%w: %s", domainRequest.ErrChainNotFound, in.EntityType)
			}
			return err
		}

		resolved, err := domainChain.Resolve(c, facts)
		if err != nil {
			return err
		}
		if len(resolved.Applicable) == 0 {
			return fmt.Errorf("%w: entity_type %s", domainRequest.ErrNoApplicableLevels, in.EntityType)
		}

		reference := in.Reference
		if reference == "" {
			reference = id.NewReference("apr", now)
		}
		priority := domainRequest.Priority(in.Priority)
		if priority == "" {
			priority = domainRequest.PriorityMedium
		}

		first := resolved.Applicable[0]
		req := &domainRequest.ApprovalRequest{
			RequestID:    id.NewID32(),
			EntityType:   in.EntityType,
			EntityID:     in.EntityID,
			Reference:    reference,
			Title:        in.Title,
			RequestedBy:  in.RequestedBy,
			Amount:       in.Amount,
			Priority:     priority,
			Status:       domainRequest.StatusPending,
			CurrentLevel: 1,
			TotalLevels:  len(resolved.Applicable),
			ChainID:      c.ID,
			Deadline:     now.Add(time.Duration(first.SLAHours) * time.Hour),
		}

		levels := snapshotLevels(resolved)
		if err := r.Requests.Create(ctx, req, levels); err != nil {
			return err
		}

		if err := r.Requests.AppendHistory(ctx, &domainRequest.ApprovalHistory{
			RequestID: req.ID,
			Level:     1,
			Action:    domainRequest.ActionPending,
			Actor:     in.RequestedBy,
		}); err != nil {
			return err
		}

		active, err := activeLevel(ctx, r, req)
		if err != nil {
			return err
		}
		opened, err := openLevel(ctx, r, req, active, req.Deadline)
		if err != nil {
			return err
		}
		events = assignedEvents(req, c.Name, opened)

		dto = toRequestDTO(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.publishAll(ctx, events)
	u.log.Info().
		Str("request_id", dto.RequestID).
		Str("entity_type", dto.EntityType).
		Int("total_levels", dto.TotalLevels).
		Msg("approval request created")
	return dto, nil
}

// Approve records one approver's decision at the request's current level.
// The level advances once the count of distinct approvers with an approved
// history entry reaches the level's required count; the last level's quorum
// completes the request. A repeat approval by the same approver at the same
// level is a no-op, not a second vote.
func (u *Usecase) Approve(ctx context.Context, requestID, approverID, comment string) (*RequestDTO, error) {
	if u.uow == nil {
		return nil, domainRequest.ErrInvalidState
	}

	now := u.now()
	var (
		dto    *RequestDTO
		events []notify.Event
	)
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.ApprovalRequest) error {
		if !req.Pending() {
			return fmt.Errorf("%w: status %s", domainRequest.ErrInvalidState, req.Status)
		}

		active, err := activeLevel(ctx, r, req)
		if err != nil {
			return err
		}
		if !active.HasApprover(approverID) {
			return domainRequest.ErrUnauthorizedApprover
		}

		already, err := r.Requests.HasApprovedAtLevel(ctx, req.ID, req.CurrentLevel, approverID)
		if err != nil {
			return err
		}
		if already {
			// Distinct-approver quorum: the repeat vote neither counts nor
			// appends history.
			dto = toRequestDTO(req)
			return nil
		}

		if err := r.Requests.AppendHistory(ctx, &domainRequest.ApprovalHistory{
			RequestID: req.ID,
			Level:     req.CurrentLevel,
			Action:    domainRequest.ActionApproved,
			Actor:     approverID,
			Comment:   comment,
		}); err != nil {
			return err
		}
		if err := completeItemFor(ctx, r, req, approverID, now); err != nil {
			return err
		}

		count, err := r.Requests.CountApprovalsAtLevel(ctx, req.ID, req.CurrentLevel)
		if err != nil {
			return err
		}
		if count < active.RequiredCount {
			// Partial quorum: stay pending at the same level.
			dto = toRequestDTO(req)
			return nil
		}

		if req.CurrentLevel < req.TotalLevels {
			events, err = u.advance(ctx, r, req, now)
			if err != nil {
				return err
			}
		} else {
			if err := u.complete(ctx, r, req, now); err != nil {
				return err
			}
			events = []notify.Event{{
				Type:      notify.EventApproved,
				UserID:    req.RequestedBy,
				RequestID: req.RequestID,
				Extra:     map[string]any{"approved_by": approverID},
			}}
		}
		dto = toRequestDTO(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.publishAll(ctx, events)
	u.log.Info().
		Str("request_id", requestID).
		Str("approver", approverID).
		Str("status", dto.Status).
		Int("level", dto.CurrentLevel).
		Msg("approval recorded")
	return dto, nil
}

// Reject terminates the whole request. One rejection kills the chain no
// matter how many approvals the current level already collected; that
// asymmetry is deliberate.
func (u *Usecase) Reject(ctx context.Context, requestID, approverID, reason string) (*RequestDTO, error) {
	if u.uow == nil {
		return nil, domainRequest.ErrInvalidState
	}

	now := u.now()
	var dto *RequestDTO
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.ApprovalRequest) error {
		if !req.Pending() {
			return fmt.Errorf("%w: status %s", domainRequest.ErrInvalidState, req.Status)
		}

		active, err := activeLevel(ctx, r, req)
		if err != nil {
			return err
		}
		if !active.HasApprover(approverID) {
			return domainRequest.ErrUnauthorizedApprover
		}

		if err := r.Requests.AppendHistory(ctx, &domainRequest.ApprovalHistory{
			RequestID: req.ID,
			Level:     req.CurrentLevel,
			Action:    domainRequest.ActionRejected,
			Actor:     approverID,
			Comment:   reason,
		}); err != nil {
			return err
		}

		req.Status = domainRequest.StatusRejected
		req.CompletedAt = &now
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		if err := closeAllOpen(ctx, r, req.ID, domainTask.StatusSuperseded, now); err != nil {
			return err
		}
		dto = toRequestDTO(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.publisher.Publish(ctx, notify.Event{
		Type:      notify.EventRejected,
		UserID:    dto.RequestedBy,
		RequestID: dto.RequestID,
		Extra:     map[string]any{"rejected_by": approverID, "reason": reason},
	})
	u.log.Info().
		Str("request_id", requestID).
		Str("approver", approverID).
		Msg("request rejected")
	return dto, nil
}

// Escalate manually reassigns the request's current level to a new approver
// set. No breach check: any pending request can be escalated. Open items are
// marked escalated (never deleted) and fresh items open for the targets; the
// level and its deadline stay put.
func (u *Usecase) Escalate(ctx context.Context, requestID, escalatedBy string, targetApprovers []string, reason string) (*RequestDTO, error) {
	if u.uow == nil {
		return nil, domainRequest.ErrInvalidState
	}
	if len(targetApprovers) == 0 {
		return nil, errors.New("invalid input: no target approvers")
	}

	now := u.now()
	var (
		dto    *RequestDTO
		events []notify.Event
	)
	err := u.uow.WithinRequestTx(ctx, requestID, func(r uow.Repos, req *domainRequest.ApprovalRequest) error {
		if !req.Pending() {
			return fmt.Errorf("%w: status %s", domainRequest.ErrInvalidState, req.Status)
		}

		active, err := activeLevel(ctx, r, req)
		if err != nil {
			return err
		}

		if err := closeLevel(ctx, r, req.ID, req.CurrentLevel, domainTask.StatusEscalated, now); err != nil {
			return err
		}

		active.ApproverIDs = domainChain.EncodeApprovers(targetApprovers)
		if active.RequiredCount > len(targetApprovers) {
			active.RequiredCount = len(targetApprovers)
		}
		if err := r.Requests.SaveLevel(ctx, active); err != nil {
			return err
		}

		if err := r.Requests.AppendHistory(ctx, &domainRequest.ApprovalHistory{
			RequestID: req.ID,
			Level:     req.CurrentLevel,
			Action:    domainRequest.ActionEscalated,
			Actor:     escalatedBy,
			Comment:   reason,
		}); err != nil {
			return err
		}

		opened, err := openLevel(ctx, r, req, active, req.Deadline)
		if err != nil {
			return err
		}
		events = assignedEvents(req, "", opened)
		events = append(events, notify.Event{
			Type:      notify.EventEscalated,
			UserID:    req.RequestedBy,
			RequestID: req.RequestID,
			Extra:     map[string]any{"escalated_by": escalatedBy, "reason": reason},
		})
		dto = toRequestDTO(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.publishAll(ctx, events)
	u.log.Info().
		Str("request_id", requestID).
		Str("escalated_by", escalatedBy).
		Int("targets", len(targetApprovers)).
		Msg("request manually escalated")
	return dto, nil
}

// advance moves a pending request to its next applicable level: new
// deadline from that level's SLA, pending history marker, fresh fan-out.
func (u *Usecase) advance(ctx context.Context, r uow.Repos, req *domainRequest.ApprovalRequest, now time.Time) ([]notify.Event, error) {
	if err := closeLevel(ctx, r, req.ID, req.CurrentLevel, domainTask.StatusSuperseded, now); err != nil {
		return nil, err
	}

	req.CurrentLevel++
	next, err := activeLevel(ctx, r, req)
	if err != nil {
		return nil, err
	}
	req.Deadline = now.Add(time.Duration(next.SLAHours) * time.Hour)
	if err := r.Requests.Save(ctx, req); err != nil {
		return nil, err
	}

	if err := r.Requests.AppendHistory(ctx, &domainRequest.ApprovalHistory{
		RequestID: req.ID,
		Level:     req.CurrentLevel,
		Action:    domainRequest.ActionPending,
	}); err != nil {
		return nil, err
	}

	opened, err := openLevel(ctx, r, req, next, req.Deadline)
	if err != nil {
		return nil, err
	}
	return assignedEvents(req, "", opened), nil
}

func (u *Usecase) complete(ctx context.Context, r uow.Repos, req *domainRequest.ApprovalRequest, now time.Time) error {
	req.Status = domainRequest.StatusApproved
	req.CompletedAt = &now
	if err := r.Requests.Save(ctx, req); err != nil {
		return err
	}
	return closeAllOpen(ctx, r, req.ID, domainTask.StatusSuperseded, now)
}

func (u *Usecase) publishAll(ctx context.Context, events []notify.Event) {
	for _, ev := range events {
		u.publisher.Publish(ctx, ev)
	}
}

// activeLevel returns the snapshot row whose LevelNumber matches the
// request's current level.
func activeLevel(ctx context.Context, r uow.Repos, req *domainRequest.ApprovalRequest) (*domainRequest.RequestLevel, error) {
	levels, err := r.Requests.GetLevels(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	for i := range levels {
		if levels[i].LevelNumber == req.CurrentLevel {
			return &levels[i], nil
		}
	}
	return nil, fmt.Errorf("%w: level %d of request %s", domainRequest.ErrEscalationTarget, req.CurrentLevel, req.RequestID)
}

// snapshotLevels captures the chain's full level set for one request.
// Applicable levels get request-relative numbers 1..N; the rest stay
// unnumbered until an escalation targets them.
func snapshotLevels(resolved *domainChain.ResolvedChain) []domainRequest.RequestLevel {
	out := make([]domainRequest.RequestLevel, 0, len(resolved.All))
	num := 0
	for _, rl := range resolved.All {
		levelNumber := 0
		if rl.Applicable {
			num++
			levelNumber = num
		}
		out = append(out, domainRequest.RequestLevel{
			LevelNumber:        levelNumber,
			ChainSequence:      rl.Level.Sequence,
			ApproverIDs:        rl.Level.ApproverIDs,
			RequiredCount:      rl.Level.RequiredCount,
			SLAHours:           rl.Level.SLAHours,
			Applicable:         rl.Applicable,
			AutoEscalate:       rl.Level.AutoEscalate,
			EscalateToLevel:    rl.Level.EscalateToLevel,
			EscalateAfterHours: rl.Level.EscalateAfterHours,
			NotifyOnBreach:     rl.Level.NotifyOnBreach,
		})
	}
	return out
}

func assignedEvents(req *domainRequest.ApprovalRequest, workflowName string, opened []domainTask.WorkItem) []notify.Event {
	out := make([]notify.Event, 0, len(opened))
	for _, w := range opened {
		out = append(out, notify.Event{
			Type:         notify.EventAssigned,
			UserID:       w.Assignee,
			RequestID:    req.RequestID,
			WorkflowName: workflowName,
			Extra:        map[string]any{"level": w.LevelNumber, "due_at": w.DueAt, "title": req.Title},
		})
	}
	return out
}

func toRequestDTO(r *domainRequest.ApprovalRequest) *RequestDTO {
	return &RequestDTO{
		RequestID:    r.RequestID,
		EntityType:   r.EntityType,
		EntityID:     r.EntityID,
		Reference:    r.Reference,
		Title:        r.Title,
		RequestedBy:  r.RequestedBy,
		Amount:       r.Amount,
		Priority:     string(r.Priority),
		Status:       string(r.Status),
		CurrentLevel: r.CurrentLevel,
		TotalLevels:  r.TotalLevels,
		Deadline:     r.Deadline,
		CompletedAt:  r.CompletedAt,
		CreatedAt:    r.CreatedAt,
	}
}
