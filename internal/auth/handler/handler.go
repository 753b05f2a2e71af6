package handler

import (
	"net/http"

	"outreach_backend/internal/auth/service"
	"outreach_backend/internal/auth/transport"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) Unlock(c *gin.Context) {
	var req transport.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	unlocked, err := h.svc.Unlock(c.Request.Context(), req.PIN, c.ClientIP())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.UnlockResponse{
		AccessToken: unlocked.AccessToken,
		SessionID:   unlocked.SessionID.String(),
		ExpiresAt:   unlocked.ExpiresAt,
	})
}

func (h *Handler) Lock(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}
	h.svc.Lock(sessionID)
	c.Status(http.StatusNoContent)
}
