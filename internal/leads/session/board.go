package session

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/pacing"
	"outreach_backend/internal/leads/quota"
	"outreach_backend/platform/sanitize"

	"github.com/google/uuid"
)

// RunStatus is one paced run as the dashboard sees it.
type RunStatus struct {
	Kind     RunKind
	Progress pacing.Progress
	Interval time.Duration
}

// Board is every derived view of a session computed from the same local list.
type Board struct {
	SessionID        uuid.UUID
	GeneratedAt      time.Time
	Counts           quota.Counts
	EngageBatch      []domain.Lead
	DMBatch          []domain.Lead
	ReadyCount       int
	Runs             []RunStatus
	Loaded           bool
	RefreshedAt      time.Time
	SnapshotTakenAt  *time.Time
	SnapshotSize     int
	Diverged         int
	LastRefreshError string
	LastWriteError   string
}

// Sort orders for the pipeline list.
const (
	SortByScore     = "score"
	SortByFollowers = "followers"
	SortByRecent    = "recent"
)

// Filter narrows and orders the pipeline list.
type Filter struct {
	Stage  *domain.Stage
	Search string
	SortBy string
}

// Apply returns a new slice; leads is not modified.
func (f Filter) Apply(leads []domain.Lead) []domain.Lead {
	search := sanitize.Fold(strings.TrimSpace(f.Search))

	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if f.Stage != nil && l.Stage != *f.Stage {
			continue
		}
		if search != "" && !matches(l, search) {
			continue
		}
		out = append(out, l)
	}

	switch f.SortBy {
	case SortByFollowers:
		slices.SortStableFunc(out, func(a, b domain.Lead) int { return cmp.Compare(b.FollowerCount, a.FollowerCount) })
	case SortByRecent:
		slices.SortStableFunc(out, func(a, b domain.Lead) int { return b.CreatedAt.Compare(a.CreatedAt) })
	default:
		slices.SortStableFunc(out, func(a, b domain.Lead) int { return cmp.Compare(b.Score, a.Score) })
	}
	return out
}

func matches(l domain.Lead, search string) bool {
	return strings.Contains(sanitize.Fold(l.InstagramHandle), search) ||
		strings.Contains(sanitize.Fold(l.FullName), search) ||
		strings.Contains(sanitize.Fold(l.Bio), search)
}
