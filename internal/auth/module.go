// Package auth provides operator unlock and lock.
// This file defines the module that encapsulates all auth setup and route registration.
package auth

import (
	"outreach_backend/internal/auth/handler"
	"outreach_backend/internal/auth/service"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(cfg config.AuthConfig, sessions service.Sessions, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(cfg, sessions, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public unlock with stricter rate limiting
	authGroup := ctx.V1.Group("/auth")
	authGroup.POST("/unlock", ctx.AuthRateLimiter.RateLimit(), m.handler.Unlock)
	authGroup.POST("/lock", ctx.AuthMiddleware, m.handler.Lock)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
