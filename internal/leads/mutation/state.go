// Package mutation applies stage changes to a session's leads: optimistically in
// memory first, then with one remote write per batch.
package mutation

import (
	"slices"
	"time"

	"outreach_backend/internal/leads/domain"
)

// State keeps the two lead lists of a session. Remote is what the store returned
// on the last refresh. Local is remote plus optimistic patches. Local wins until
// the next full refresh replaces both; a failed remote write is never reconciled.
// State is not safe for concurrent use.
type State struct {
	remote    []domain.Lead
	local     []domain.Lead
	index     map[domain.LeadID]int
	refreshed time.Time
	loaded    bool
}

// NewState creates an empty, unloaded state.
func NewState() *State {
	return &State{index: map[domain.LeadID]int{}}
}

// Replace installs a freshly fetched list as both remote and local, dropping every optimistic patch.
func (s *State) Replace(leads []domain.Lead, at time.Time) {
	s.remote = slices.Clone(leads)
	s.local = slices.Clone(leads)
	s.index = make(map[domain.LeadID]int, len(leads))
	for i, l := range s.local {
		s.index[l.ID] = i
	}
	s.refreshed = at
	s.loaded = true
}

// Loaded reports whether any refresh has succeeded.
func (s *State) Loaded() bool { return s.loaded }

// RefreshedAt returns when the last successful refresh was installed.
func (s *State) RefreshedAt() time.Time { return s.refreshed }

// Local returns the optimistic view. The slice must not be modified.
func (s *State) Local() []domain.Lead { return s.local }

// Remote returns the last fetched list. The slice must not be modified.
func (s *State) Remote() []domain.Lead { return s.remote }

// Find returns the local copy of a lead.
func (s *State) Find(id domain.LeadID) (domain.Lead, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.Lead{}, false
	}
	return s.local[i], true
}

// Apply patches every local lead whose id is in ids and returns the ids that matched.
func (s *State) Apply(ids []domain.LeadID, patch domain.Patch) []domain.LeadID {
	matched := make([]domain.LeadID, 0, len(ids))
	for _, id := range ids {
		i, ok := s.index[id]
		if !ok {
			continue
		}
		s.local[i] = patch.ApplyTo(s.local[i])
		matched = append(matched, id)
	}
	return matched
}

// Diverged lists the leads whose local stage or timestamps differ from remote.
func (s *State) Diverged() []domain.LeadID {
	remote := make(map[domain.LeadID]domain.Lead, len(s.remote))
	for _, l := range s.remote {
		remote[l.ID] = l
	}
	out := make([]domain.LeadID, 0)
	for _, l := range s.local {
		r, ok := remote[l.ID]
		if !ok || r.Stage != l.Stage || !sameTime(r.EngagedAt, l.EngagedAt) || !sameTime(r.DmedAt, l.DmedAt) {
			out = append(out, l.ID)
		}
	}
	return out
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
