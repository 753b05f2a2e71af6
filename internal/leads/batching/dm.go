package batching

import (
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/quota"
)

// EligibleForDM returns engaged leads whose engagement happened before today's
// midnight, highest score first. The cool-off is a calendar-day boundary, so a
// lead engaged at 23:59 becomes eligible at 00:00.
func EligibleForDM(leads []domain.Lead, now time.Time) []domain.Lead {
	start := quota.StartOfDay(now)
	out := make([]domain.Lead, 0)
	for _, l := range leads {
		if l.Stage == domain.StageEngaged && l.EngagedAt != nil && l.EngagedAt.Before(start) {
			out = append(out, l)
		}
	}
	return ByScoreDesc(out)
}

// ReadyCount counts leads that already carry a DM draft.
func ReadyCount(leads []domain.Lead) int {
	n := 0
	for _, l := range leads {
		if l.HasDraft() {
			n++
		}
	}
	return n
}

// MissingDrafts returns the leads without a draft, keeping order, capped at limit when limit > 0.
func MissingDrafts(leads []domain.Lead, limit int) []domain.Lead {
	out := make([]domain.Lead, 0)
	for _, l := range leads {
		if l.HasDraft() {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
