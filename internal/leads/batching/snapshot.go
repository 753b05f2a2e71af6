// Package batching selects the leads the operator works on today: the frozen
// engage batch and the live DM batch.
package batching

import (
	"slices"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/quota"
)

// IDSet is an immutable set of lead IDs.
type IDSet struct {
	ids   map[domain.LeadID]struct{}
	order []domain.LeadID
}

func newIDSet(ids []domain.LeadID) IDSet {
	set := IDSet{ids: make(map[domain.LeadID]struct{}, len(ids))}
	for _, id := range ids {
		if _, dup := set.ids[id]; dup {
			continue
		}
		set.ids[id] = struct{}{}
		set.order = append(set.order, id)
	}
	return set
}

// Contains reports whether id is a member.
func (s IDSet) Contains(id domain.LeadID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of members.
func (s IDSet) Len() int { return len(s.order) }

// IDs returns the members in selection order.
func (s IDSet) IDs() []domain.LeadID { return slices.Clone(s.order) }

// ByScoreDesc stable-sorts a copy of leads by score, highest first. Ties keep list order.
func ByScoreDesc(leads []domain.Lead) []domain.Lead {
	sorted := slices.Clone(leads)
	slices.SortStableFunc(sorted, func(a, b domain.Lead) int {
		return b.Score - a.Score
	})
	return sorted
}

// ComputeSnapshot picks the highest scoring new leads up to the remaining daily quota.
func ComputeSnapshot(leads []domain.Lead, now time.Time, limit int) IDSet {
	remaining := quota.Remaining(leads, now, limit)

	candidates := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if l.Stage == domain.StageNew {
			candidates = append(candidates, l)
		}
	}
	candidates = ByScoreDesc(candidates)
	if remaining < len(candidates) {
		candidates = candidates[:remaining]
	}

	ids := make([]domain.LeadID, len(candidates))
	for i, l := range candidates {
		ids[i] = l.ID
	}
	return newIDSet(ids)
}

// Snapshotter holds the engage batch for one session. It is computed the first
// time a non-empty lead list is observed and never again.
type Snapshotter struct {
	limit   int
	taken   bool
	takenAt time.Time
	ids     IDSet
}

// NewSnapshotter creates an empty snapshot slot bounded by limit.
func NewSnapshotter(limit int) *Snapshotter {
	return &Snapshotter{limit: limit}
}

// Observe takes the snapshot if this is the first non-empty list. It reports
// whether this call took it.
func (s *Snapshotter) Observe(leads []domain.Lead, now time.Time) bool {
	if s.taken || len(leads) == 0 {
		return false
	}
	s.ids = ComputeSnapshot(leads, now, s.limit)
	s.taken = true
	s.takenAt = now
	return true
}

// Taken reports whether the snapshot exists and when it was taken.
func (s *Snapshotter) Taken() (time.Time, bool) {
	return s.takenAt, s.taken
}

// IDs returns the frozen member set. Empty before the snapshot is taken.
func (s *Snapshotter) IDs() IDSet {
	return s.ids
}

// Effective returns the members still in stage new, in live list order.
func (s *Snapshotter) Effective(leads []domain.Lead) []domain.Lead {
	return EffectiveBatch(s.ids, leads)
}

// EffectiveBatch filters leads to snapshot members that are still new.
func EffectiveBatch(snapshot IDSet, leads []domain.Lead) []domain.Lead {
	out := make([]domain.Lead, 0, snapshot.Len())
	for _, l := range leads {
		if l.Stage == domain.StageNew && snapshot.Contains(l.ID) {
			out = append(out, l)
		}
	}
	return out
}
