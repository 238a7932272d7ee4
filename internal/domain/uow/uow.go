package uow

import (
	"context"

	"approvalflow-backend/internal/domain/chain"
	"approvalflow-backend/internal/domain/request"
	"approvalflow-backend/internal/domain/task"
)

type Repos struct {
	Chains   chain.Repository
	Requests request.Repository
	Tasks    task.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the request row first, then pass it in. This is the
	// per-request serialization boundary: Approve/Reject/Escalate and the
	// SLA sweep all go through it, so two writers never tally the same level
	// concurrently.
	WithinRequestTx(ctx context.Context, requestID string, fn func(r Repos, req *request.ApprovalRequest) error) error
}
