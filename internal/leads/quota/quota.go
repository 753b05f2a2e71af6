// Package quota counts today's outreach activity and the engagements left under the daily cap.
package quota

import (
	"time"

	"outreach_backend/internal/leads/domain"
)

// DefaultDailyLimit is the number of new leads that may be engaged per calendar day.
const DefaultDailyLimit = 20

// StartOfDay returns local midnight on the date of now, in now's location.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// EngagedToday counts leads whose engagedAt falls on or after today's midnight.
func EngagedToday(leads []domain.Lead, now time.Time) int {
	return countSince(leads, StartOfDay(now), func(l domain.Lead) *time.Time { return l.EngagedAt })
}

// DmedToday counts leads whose dmedAt falls on or after today's midnight.
func DmedToday(leads []domain.Lead, now time.Time) int {
	return countSince(leads, StartOfDay(now), func(l domain.Lead) *time.Time { return l.DmedAt })
}

// Remaining returns max(0, limit - engagedToday).
func Remaining(leads []domain.Lead, now time.Time, limit int) int {
	left := limit - EngagedToday(leads, now)
	if left < 0 {
		return 0
	}
	return left
}

func countSince(leads []domain.Lead, start time.Time, stamp func(domain.Lead) *time.Time) int {
	n := 0
	for _, l := range leads {
		if at := stamp(l); at != nil && !at.Before(start) {
			n++
		}
	}
	return n
}

// Counts is the derived daily activity for one lead list. It is never cached.
type Counts struct {
	EngagedToday   int
	DmedToday      int
	Limit          int
	RemainingQuota int
	LimitReached   bool
	// Progress is min(engagedToday, limit) / limit, or 1 when limit is 0.
	Progress float64
}

// Tracker evaluates counts against a fixed limit in the operator's time zone.
type Tracker struct {
	limit int
	loc   *time.Location
}

// NewTracker creates a tracker. A nil location means time.Local.
func NewTracker(limit int, loc *time.Location) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	if limit < 0 {
		limit = 0
	}
	return &Tracker{limit: limit, loc: loc}
}

// Limit returns the configured daily engagement cap.
func (t *Tracker) Limit() int { return t.limit }

// Now converts now into the operator's zone so day boundaries use the operator's midnight.
func (t *Tracker) Now(now time.Time) time.Time { return now.In(t.loc) }

// RemainingQuota returns the engagements still allowed today.
func (t *Tracker) RemainingQuota(leads []domain.Lead, now time.Time) int {
	return Remaining(leads, t.Now(now), t.limit)
}

// Counts computes all daily counts from one pass over the same list.
func (t *Tracker) Counts(leads []domain.Lead, now time.Time) Counts {
	local := t.Now(now)
	engaged := EngagedToday(leads, local)
	remaining := t.limit - engaged
	if remaining < 0 {
		remaining = 0
	}

	progress := 1.0
	if t.limit > 0 {
		progress = float64(min(engaged, t.limit)) / float64(t.limit)
	}

	return Counts{
		EngagedToday:   engaged,
		DmedToday:      DmedToday(leads, local),
		Limit:          t.limit,
		RemainingQuota: remaining,
		LimitReached:   engaged >= t.limit,
		Progress:       progress,
	}
}
