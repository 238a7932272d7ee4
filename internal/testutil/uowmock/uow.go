package uowmock

import (
	"context"
	"errors"

	"approvalflow-backend/internal/domain/request"
	"approvalflow-backend/internal/domain/uow"
)

var errUnimplemented = errors.New("uowmock: fn not set")

// UoW is a function-backed mock of uow.UnitOfWork. Tests that only need
// pass-through transactions can use Passthrough instead of wiring the fields.
type UoW struct {
	WithinTxFn        func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinRequestTxFn func(ctx context.Context, requestID string, fn func(r uow.Repos, req *request.ApprovalRequest) error) error
}

var _ uow.UnitOfWork = (*UoW)(nil)

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinRequestTx(ctx context.Context, requestID string, fn func(r uow.Repos, req *request.ApprovalRequest) error) error {
	if m.WithinRequestTxFn != nil {
		return m.WithinRequestTxFn(ctx, requestID, fn)
	}
	return errUnimplemented
}

// Passthrough builds a UoW that runs callbacks directly against the given
// repos, with WithinRequestTx resolving the request through Repos.Requests
// the same way the real implementation does.
func Passthrough(r uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(r uow.Repos) error) error {
			return fn(r)
		},
		WithinRequestTxFn: func(ctx context.Context, requestID string, fn func(r uow.Repos, req *request.ApprovalRequest) error) error {
			req, err := r.Requests.GetByRequestIDForUpdate(ctx, requestID)
			if err != nil {
				return err
			}
			return fn(r, req)
		},
	}
}
