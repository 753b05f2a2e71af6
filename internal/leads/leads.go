// Package leads provides the outreach pipeline bounded context.
// This file defines the public API of the leads bounded context.
// Only types and interfaces defined here should be imported by other domains.
package leads

import (
	"context"

	"outreach_backend/internal/leads/session"
	"outreach_backend/platform/config"

	"github.com/google/uuid"
)

// Config combines the config interfaces the module needs.
type Config interface {
	config.OutreachConfig
	config.AuthConfig
}

// DraftRequester queues an operator-triggered DM draft sweep and returns the
// local day it was queued for.
type DraftRequester interface {
	RequestDraftSweep(ctx context.Context, limit int, regenerate bool) (string, error)
}

// BoardReader exposes a session's derived views to other domains (e.g., exports).
type BoardReader interface {
	SessionBoard(ctx context.Context, sessionID uuid.UUID) (session.Board, error)
}
