package scheduler

import (
	"context"
	"time"

	"outreach_backend/platform/logger"
)

const defaultDraftSweepInterval = time.Hour

// DayClaimer decides which process enqueues a day's sweep.
type DayClaimer interface {
	Claim(ctx context.Context, day string) (bool, error)
	Release(ctx context.Context, day string) error
}

// DraftSweep enqueues one DM draft sweep per local day.
type DraftSweep struct {
	enqueuer DraftEnqueuer
	guard    DayClaimer
	log      *logger.Logger
	interval time.Duration
	limit    int
	loc      *time.Location
	now      func() time.Time
}

func NewDraftSweep(enqueuer DraftEnqueuer, guard DayClaimer, log *logger.Logger, interval time.Duration, limit int, loc *time.Location) *DraftSweep {
	if interval <= 0 {
		interval = defaultDraftSweepInterval
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DraftSweep{
		enqueuer: enqueuer,
		guard:    guard,
		log:      log,
		interval: interval,
		limit:    limit,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *DraftSweep) Run(ctx context.Context) {
	if s == nil || s.enqueuer == nil {
		return
	}

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick enqueues today's sweep unless another tick or replica already did.
func (s *DraftSweep) tick(ctx context.Context) bool {
	day := s.now().In(s.loc).Format(time.DateOnly)

	if s.guard != nil {
		claimed, err := s.guard.Claim(ctx, day)
		if err != nil {
			s.log.Warn("dm draft sweep guard failed", "day", day, "error", err)
			return false
		}
		if !claimed {
			return false
		}
	}

	if err := s.enqueuer.EnqueueDraftSweep(ctx, DMDraftSweepPayload{Day: day, Limit: s.limit}); err != nil {
		s.log.Warn("dm draft sweep enqueue failed", "day", day, "error", err)
		if s.guard != nil {
			if relErr := s.guard.Release(ctx, day); relErr != nil {
				s.log.Warn("dm draft sweep guard release failed", "day", day, "error", relErr)
			}
		}
		return false
	}

	s.log.Info("dm draft sweep enqueued", "day", day)
	return true
}
