package exports

import (
	"outreach_backend/internal/adapters/storage"
	apphttp "outreach_backend/internal/http"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the exports module. With a nil store the
// route answers 503.
func NewModule(boards BoardReader, store storage.StorageService, bucket string) *Module {
	var svc *Service
	if store != nil {
		svc = NewService(boards, store, bucket)
	}
	return &Module{handler: NewHandler(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/outreach/export", m.handler.HandleExport)
}

var _ apphttp.Module = (*Module)(nil)
