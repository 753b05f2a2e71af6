// Package notification subscribes to domain events and turns them into
// operator-facing signals: audit log lines and error reports.
// Live streams to the browser live in the sse subpackage.
package notification

import (
	"context"
	"fmt"
	"strconv"

	"outreach_backend/internal/events"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/sentry"
)

// Reporter forwards unexpected failures to error tracking.
type Reporter func(err error, tags map[string]string)

// Module handles lead pipeline events.
type Module struct {
	log    *logger.Logger
	report Reporter
}

// New creates the notification module. A nil reporter sends to Sentry.
func New(log *logger.Logger, report Reporter) *Module {
	if report == nil {
		report = sentry.CaptureException
	}
	return &Module{log: log, report: report}
}

// RegisterHandlers subscribes the module to the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadStageChanged{}.EventName(), m)
	bus.Subscribe(events.LeadsBatchUpdated{}.EventName(), m)
	bus.Subscribe(events.LeadBatchWriteFailed{}.EventName(), m)
	bus.Subscribe(events.LeadsRefreshed{}.EventName(), m)
	bus.Subscribe(events.DMDraftsGenerated{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadStageChanged:
		return m.handleLeadStageChanged(ctx, e)
	case events.LeadsBatchUpdated:
		return m.handleLeadsBatchUpdated(ctx, e)
	case events.LeadBatchWriteFailed:
		return m.handleLeadBatchWriteFailed(ctx, e)
	case events.LeadsRefreshed:
		m.log.WithContext(ctx).Debug("lead list refreshed", "session_id", e.SessionID, "count", e.Count)
		return nil
	case events.DMDraftsGenerated:
		return m.handleDMDraftsGenerated(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleLeadStageChanged(ctx context.Context, e events.LeadStageChanged) error {
	m.log.WithContext(ctx).Info("lead stage changed",
		"session_id", e.SessionID,
		"lead_id", e.LeadID,
		"from", e.From,
		"to", e.To,
	)
	return nil
}

func (m *Module) handleLeadsBatchUpdated(ctx context.Context, e events.LeadsBatchUpdated) error {
	m.log.WithContext(ctx).Info("lead batch updated",
		"session_id", e.SessionID,
		"stage", e.Stage,
		"count", len(e.LeadIDs),
	)
	return nil
}

func (m *Module) handleLeadBatchWriteFailed(ctx context.Context, e events.LeadBatchWriteFailed) error {
	// The mutator already logged the failure.
	m.log.WithContext(ctx).Debug("reporting batch write failure", "session_id", e.SessionID)
	m.report(fmt.Errorf("lead batch write failed: %s", e.Error), map[string]string{
		"session_id": e.SessionID.String(),
		"stage":      string(e.Stage),
		"lead_count": strconv.Itoa(len(e.LeadIDs)),
	})
	return nil
}

func (m *Module) handleDMDraftsGenerated(ctx context.Context, e events.DMDraftsGenerated) error {
	log := m.log.WithContext(ctx)
	log.Info("dm drafts generated", "day", e.Day, "generated", e.Generated, "failed", e.Failed)
	if e.Failed > 0 && e.Generated == 0 {
		m.report(fmt.Errorf("dm draft sweep produced no drafts: %d failures", e.Failed), map[string]string{
			"day": e.Day,
		})
	}
	return nil
}
