// Package adapters contains adapters that bridge different bounded contexts.
// These adapters implement interfaces defined by consuming domains while
// wrapping services from providing domains.
package adapters

import (
	authservice "outreach_backend/internal/auth/service"
	"outreach_backend/internal/leads/session"

	"github.com/google/uuid"
)

// SessionOpener adapts the leads session registry to the auth domain's Sessions
// interface, so unlocking does not need to know about session internals.
type SessionOpener struct {
	registry *session.Registry
}

// NewSessionOpener creates a new adapter wrapping the registry.
func NewSessionOpener(registry *session.Registry) *SessionOpener {
	return &SessionOpener{registry: registry}
}

// OpenSession opens a fresh session and returns its id.
func (o *SessionOpener) OpenSession() uuid.UUID {
	return o.registry.Open().ID()
}

// CloseSession closes a session and its event streams.
func (o *SessionOpener) CloseSession(id uuid.UUID) bool {
	return o.registry.Close(id)
}

// Compile-time check that SessionOpener implements authservice.Sessions
var _ authservice.Sessions = (*SessionOpener)(nil)
