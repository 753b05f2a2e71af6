package exports

import (
	"net/http"

	"outreach_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles export requests.
type Handler struct {
	svc *Service
}

// NewHandler creates a new export handler. A nil service means object storage is not configured.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) HandleExport(c *gin.Context) {
	sessionID, ok := httpkit.MustSessionID(c)
	if !ok {
		return
	}
	if h.svc == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "export storage is not configured", nil)
		return
	}

	result, err := h.svc.Export(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
