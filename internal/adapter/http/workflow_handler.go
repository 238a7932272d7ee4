package http

import (
	"net/http"

	"approvalflow-backend/internal/usecase/workflow"

	"github.com/labstack/echo/v4"
)

type WorkflowHandler struct{ uc *workflow.Usecase }

func NewWorkflowHandler(uc *workflow.Usecase) *WorkflowHandler { return &WorkflowHandler{uc: uc} }

type createRequestReq struct {
	EntityType  string         `json:"entity_type"  validate:"required"`
	EntityID    string         `json:"entity_id"    validate:"required"`
	Reference   string         `json:"reference"`
	Title       string         `json:"title"        validate:"required"`
	RequestedBy string         `json:"requested_by" validate:"required"`
	Amount      *float64       `json:"amount"       validate:"omitempty,gte=0"`
	Priority    string         `json:"priority"     validate:"omitempty,oneof=low medium high urgent"`
	Facts       map[string]any `json:"facts"`
}

func (h *WorkflowHandler) CreateRequest(c echo.Context) error {
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Create(c.Request().Context(), workflow.CreateInput{
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Reference:   req.Reference,
		Title:       req.Title,
		RequestedBy: req.RequestedBy,
		Amount:      req.Amount,
		Priority:    req.Priority,
		Facts:       req.Facts,
	})
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusCreated, dto)
}

type decisionReq struct {
	ApproverID string `json:"approver_id" validate:"required"`
	Comment    string `json:"comment"`
}

func (h *WorkflowHandler) Approve(c echo.Context) error {
	requestID := c.Param("request_id")
	if requestID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing request_id path param"})
	}
	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Approve(c.Request().Context(), requestID, req.ApproverID, req.Comment)
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, dto)
}

type rejectReq struct {
	ApproverID string `json:"approver_id" validate:"required"`
	Reason     string `json:"reason"      validate:"required"`
}

func (h *WorkflowHandler) Reject(c echo.Context) error {
	requestID := c.Param("request_id")
	if requestID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing request_id path param"})
	}
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Reject(c.Request().Context(), requestID, req.ApproverID, req.Reason)
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, dto)
}

type escalateReq struct {
	EscalatedBy     string   `json:"escalated_by"     validate:"required"`
	TargetApprovers []string `json:"target_approvers" validate:"required,min=1"`
	Reason          string   `json:"reason"           validate:"required"`
}

func (h *WorkflowHandler) Escalate(c echo.Context) error {
	requestID := c.Param("request_id")
	if requestID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing request_id path param"})
	}
	var req escalateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Escalate(c.Request().Context(), requestID, req.EscalatedBy, req.TargetApprovers, req.Reason)
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *WorkflowHandler) GetRequest(c echo.Context) error {
	dto, err := h.uc.GetRequest(c.Request().Context(), c.Param("request_id"))
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *WorkflowHandler) GetHistory(c echo.Context) error {
	rows, err := h.uc.GetHistory(c.Request().Context(), c.Param("request_id"))
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *WorkflowHandler) GetPendingForUser(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing user_id path param"})
	}
	rows, err := h.uc.GetPendingForUser(c.Request().Context(), userID)
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *WorkflowHandler) ListByEntity(c echo.Context) error {
	entityType := c.Param("entity_type")
	entityID := c.Param("entity_id")
	if entityType == "" || entityID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing entity_type or entity_id path param"})
	}
	rows, err := h.uc.ListByEntity(c.Request().Context(), entityType, entityID)
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, rows)
}
