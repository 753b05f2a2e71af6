// Package leads provides the outreach pipeline bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"
	"time"

	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/leads/handler"
	"outreach_backend/internal/leads/management"
	"outreach_backend/internal/leads/quota"
	"outreach_backend/internal/leads/session"
	"outreach_backend/internal/notification/sse"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"
)

const sessionSweepInterval = time.Minute

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	management *management.Service
	registry   *session.Registry
	sse        *sse.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(store session.Store, eventBus events.Bus, val *validator.Validator, cfg Config, log *logger.Logger) *Module {
	sseService := sse.New(log)

	registry := session.NewRegistry(session.Deps{
		Store:          store,
		Tracker:        quota.NewTracker(cfg.GetDailyEngageLimit(), cfg.GetLocation()),
		Bus:            eventBus,
		Notifier:       sseService,
		Log:            log,
		EngageInterval: cfg.GetEngageInterval(),
		DMInterval:     cfg.GetDMInterval(),
	}, cfg.GetSessionIdleTimeout())

	registry.OnClose(sseService.Disconnect)

	mgmtSvc := management.New(registry)

	return &Module{
		handler:    handler.New(mgmtSvc, val),
		management: mgmtSvc,
		registry:   registry,
		sse:        sseService,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the board service for external use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// Registry returns the session registry (used by auth to open and close sessions).
func (m *Module) Registry() *session.Registry {
	return m.registry
}

// SSE returns the event stream service.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// SetDraftRequester enables POST /outreach/drafts/sweep.
func (m *Module) SetDraftRequester(drafts DraftRequester) {
	m.management.SetDraftRequester(drafts)
}

// Run evicts idle sessions until ctx is done, then closes every session and stream.
func (m *Module) Run(ctx context.Context) {
	m.registry.Run(ctx, sessionSweepInterval)
	m.sse.Close()
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All outreach routes require an unlocked session
	outreach := ctx.Protected.Group("/outreach")
	m.handler.RegisterOutreachRoutes(outreach)
	outreach.GET("/events", m.sse.Handler(httpkit.SessionID))

	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
var _ BoardReader = (*management.Service)(nil)
