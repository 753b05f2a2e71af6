package adapters

import (
	"context"
	"time"

	"outreach_backend/internal/leads"
	"outreach_backend/internal/scheduler"
)

// DraftRequester adapts the scheduler client to the leads domain's
// DraftRequester interface. The day is the operator's local date.
type DraftRequester struct {
	enqueuer scheduler.DraftEnqueuer
	loc      *time.Location
	now      func() time.Time
}

// NewDraftRequester creates a new adapter wrapping the enqueuer.
func NewDraftRequester(enqueuer scheduler.DraftEnqueuer, loc *time.Location) *DraftRequester {
	if loc == nil {
		loc = time.UTC
	}
	return &DraftRequester{enqueuer: enqueuer, loc: loc, now: time.Now}
}

// RequestDraftSweep queues an operator-triggered sweep for today.
func (r *DraftRequester) RequestDraftSweep(ctx context.Context, limit int, regenerate bool) (string, error) {
	day := r.now().In(r.loc).Format(time.DateOnly)
	err := r.enqueuer.EnqueueDraftSweep(ctx, scheduler.DMDraftSweepPayload{
		Day:        day,
		Limit:      limit,
		Regenerate: regenerate,
		Requested:  true,
	})
	if err != nil {
		return "", err
	}
	return day, nil
}

// Compile-time check that DraftRequester implements leads.DraftRequester
var _ leads.DraftRequester = (*DraftRequester)(nil)
