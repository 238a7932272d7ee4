package http

import (
	"errors"
	stdhttp "net/http"
	"strings"

	domainChain "approvalflow-backend/internal/domain/chain"
	domainRequest "approvalflow-backend/internal/domain/request"
	"approvalflow-backend/internal/usecase/chainadmin"
)

// ---- helpers ----

// statusForError maps domain errors to HTTP status codes. Unknown errors go
// out as 500 without leaking internals.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domainRequest.ErrNotFound), errors.Is(err, domainChain.ErrNotFound):
		return stdhttp.StatusNotFound, "not found"
	case errors.Is(err, domainRequest.ErrChainNotFound):
		return stdhttp.StatusNotFound, err.Error()
	case errors.Is(err, domainRequest.ErrInvalidState), errors.Is(err, chainadmin.ErrDuplicateChain):
		return stdhttp.StatusConflict, err.Error()
	case errors.Is(err, domainRequest.ErrNoApplicableLevels), errors.Is(err, domainChain.ErrInvalidConfig):
		return stdhttp.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domainRequest.ErrUnauthorizedApprover):
		return stdhttp.StatusForbidden, err.Error()
	default:
		return stdhttp.StatusInternalServerError, "internal error"
	}
}

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
