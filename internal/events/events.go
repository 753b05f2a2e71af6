// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/events"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Lead Pipeline Events
// =============================================================================

// LeadStageChanged is published after a single lead was moved and the store accepted it.
type LeadStageChanged struct {
	BaseEvent
	SessionID uuid.UUID     `json:"sessionId"`
	LeadID    domain.LeadID `json:"leadId"`
	From      domain.Stage  `json:"from"`
	To        domain.Stage  `json:"to"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// LeadsBatchUpdated is published after a batch was applied locally and written remotely.
type LeadsBatchUpdated struct {
	BaseEvent
	SessionID uuid.UUID       `json:"sessionId"`
	LeadIDs   []domain.LeadID `json:"leadIds"`
	Stage     domain.Stage    `json:"stage"`
}

func (e LeadsBatchUpdated) EventName() string { return "leads.batch.updated" }

// LeadBatchWriteFailed is published when the remote batch patch failed. The
// session keeps showing the optimistic state.
type LeadBatchWriteFailed struct {
	BaseEvent
	SessionID uuid.UUID       `json:"sessionId"`
	LeadIDs   []domain.LeadID `json:"leadIds"`
	Stage     domain.Stage    `json:"stage"`
	Error     string          `json:"error"`
}

func (e LeadBatchWriteFailed) EventName() string { return "leads.batch.write_failed" }

// LeadsRefreshed is published after a session installed a fresh lead list.
type LeadsRefreshed struct {
	BaseEvent
	SessionID uuid.UUID `json:"sessionId"`
	Count     int       `json:"count"`
}

func (e LeadsRefreshed) EventName() string { return "leads.refreshed" }

// =============================================================================
// Outreach Run Events
// =============================================================================

// OutreachRunProgress is published on every progress change of a paced run.
type OutreachRunProgress struct {
	BaseEvent
	SessionID uuid.UUID `json:"sessionId"`
	Kind      string    `json:"kind"`
	Opened    int       `json:"opened"`
	Total     int       `json:"total"`
	Running   bool      `json:"running"`
}

func (e OutreachRunProgress) EventName() string { return "outreach.run.progress" }

// DMDraftsGenerated is published by the worker after a draft sweep.
type DMDraftsGenerated struct {
	BaseEvent
	Day       string `json:"day"`
	Generated int    `json:"generated"`
	Failed    int    `json:"failed"`
}

func (e DMDraftsGenerated) EventName() string { return "leads.dm_drafts.generated" }

// Now is a helper used by publishers that take the time from an injected clock.
func Now(clock func() time.Time) BaseEvent {
	if clock == nil {
		return NewBaseEvent()
	}
	return NewBaseEventAt(clock())
}
