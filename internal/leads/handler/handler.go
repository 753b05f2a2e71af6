package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"outreach_backend/internal/leads/management"
	"outreach_backend/internal/leads/transport"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the outreach board and pipeline.
type Handler struct {
	mgmt *management.Service
	val  *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

// New creates a new leads handler.
func New(mgmt *management.Service, val *validator.Validator) *Handler {
	return &Handler{mgmt: mgmt, val: val}
}

// RegisterOutreachRoutes mounts the board, batch and run routes.
func (h *Handler) RegisterOutreachRoutes(rg *gin.RouterGroup) {
	rg.GET("/board", h.Board)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/engage-batch/mark", h.MarkEngageBatch)
	rg.POST("/dm-batch/mark", h.MarkDMBatch)
	rg.GET("/runs", h.Runs)
	rg.POST("/runs/:kind/toggle", h.ToggleRun)
	rg.DELETE("/runs/:kind", h.CancelRun)
	rg.POST("/drafts/sweep", h.RequestDraftSweep)
}

// RegisterLeadRoutes mounts the pipeline routes.
func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PATCH("/:id/stage", h.ChangeStage)
}

func (h *Handler) Board(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}

	board, err := h.mgmt.Board(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, board)
}

func (h *Handler) Refresh(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}

	board, err := h.mgmt.Refresh(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, board)
}

func (h *Handler) List(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.mgmt.List(c.Request.Context(), sessionID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ChangeStage(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	var req transport.ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	lead, err := h.mgmt.ChangeStage(c.Request.Context(), sessionID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) MarkEngageBatch(c *gin.Context) {
	h.markBatch(c, h.mgmt.MarkEngageBatch)
}

func (h *Handler) MarkDMBatch(c *gin.Context) {
	h.markBatch(c, h.mgmt.MarkDMBatch)
}

type markFunc func(ctx context.Context, sessionID uuid.UUID, req transport.MarkBatchRequest) (transport.MarkBatchResponse, error)

func (h *Handler) markBatch(c *gin.Context, mark markFunc) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}

	var req transport.MarkBatchRequest
	// An empty body marks the current batch.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := mark(c.Request.Context(), sessionID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ToggleRun(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}

	run, err := h.mgmt.ToggleRun(c.Request.Context(), sessionID, c.Param("kind"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, run)
}

func (h *Handler) CancelRun(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}

	run, err := h.mgmt.CancelRun(sessionID, c.Param("kind"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, run)
}

func (h *Handler) Runs(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}

	runs, err := h.mgmt.Runs(sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, runs)
}

func (h *Handler) RequestDraftSweep(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}

	var req transport.DraftSweepRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.mgmt.RequestDraftSweep(c.Request.Context(), sessionID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, result)
}
