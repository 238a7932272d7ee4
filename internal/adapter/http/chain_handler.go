package http

import (
	"net/http"

	"approvalflow-backend/internal/usecase/chainadmin"

	"github.com/labstack/echo/v4"
)

type ChainHandler struct{ uc *chainadmin.Usecase }

func NewChainHandler(uc *chainadmin.Usecase) *ChainHandler { return &ChainHandler{uc: uc} }

type registerLevelReq struct {
	Sequence           int      `json:"sequence"             validate:"required,gte=1"`
	ApproverIDs        []string `json:"approver_ids"         validate:"required,min=1"`
	RequiredCount      int      `json:"required_count"       validate:"required,gte=1"`
	SLAHours           int      `json:"sla_hours"            validate:"required,gt=0"`
	Condition          string   `json:"condition"`
	AutoEscalate       bool     `json:"auto_escalate"`
	EscalateToLevel    *int     `json:"escalate_to_level"    validate:"omitempty,gte=1"`
	EscalateAfterHours *int     `json:"escalate_after_hours" validate:"omitempty,gt=0"`
	NotifyOnBreach     bool     `json:"notify_on_breach"`
}

type registerChainReq struct {
	Name       string             `json:"name"        validate:"required"`
	EntityType string             `json:"entity_type" validate:"required"`
	Levels     []registerLevelReq `json:"levels"      validate:"required,min=1,dive"`
}

func (h *ChainHandler) RegisterChain(c echo.Context) error {
	var req registerChainReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	in := chainadmin.RegisterInput{Name: req.Name, EntityType: req.EntityType}
	for _, lvl := range req.Levels {
		in.Levels = append(in.Levels, chainadmin.LevelInput{
			Sequence:           lvl.Sequence,
			ApproverIDs:        lvl.ApproverIDs,
			RequiredCount:      lvl.RequiredCount,
			SLAHours:           lvl.SLAHours,
			Condition:          lvl.Condition,
			AutoEscalate:       lvl.AutoEscalate,
			EscalateToLevel:    lvl.EscalateToLevel,
			EscalateAfterHours: lvl.EscalateAfterHours,
			NotifyOnBreach:     lvl.NotifyOnBreach,
		})
	}

	dto, err := h.uc.Register(c.Request().Context(), in)
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ChainHandler) GetChain(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("chain_id"))
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ChainHandler) ListChains(c echo.Context) error {
	rows, err := h.uc.List(c.Request().Context())
	if err != nil {
		code, msg := statusForError(err)
		return c.JSON(code, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, rows)
}
