// Package drafting pre-writes DM drafts for leads that are eligible for a DM
// and have none yet, so the operator's DM batch is ready to send.
package drafting

import (
	"context"
	"sync/atomic"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/batching"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Store is the slice of the lead store a sweep needs.
type Store interface {
	ListLeads(ctx context.Context) ([]domain.Lead, error)
	PatchLead(ctx context.Context, id domain.LeadID, patch domain.Patch) error
}

// Composer writes the raw text of one draft.
type Composer interface {
	Compose(ctx context.Context, lead domain.Lead) (string, error)
}

// Config bounds one sweep.
type Config struct {
	BatchLimit        int
	Concurrency       int
	RequestsPerMinute int
	Location          *time.Location
}

// Options tune a single sweep.
type Options struct {
	// Limit overrides Config.BatchLimit when positive.
	Limit int
	// Regenerate overwrites existing drafts.
	Regenerate bool
	// DryRun selects targets without calling the model or the store.
	DryRun bool
}

// Result summarizes a sweep.
type Result struct {
	Day       string
	Eligible  int
	Targets   []domain.Lead
	Generated int
	Failed    int
}

// Service runs draft sweeps.
type Service struct {
	store    Store
	composer Composer
	bus      events.Bus
	limiter  *rate.Limiter
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a drafting service. bus may be nil.
func NewService(store Store, composer Composer, bus events.Bus, cfg Config, log *logger.Logger) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if log == nil {
		log = logger.Discard()
	}

	limit := rate.Inf
	burst := cfg.Concurrency
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
		burst = min(cfg.Concurrency, cfg.RequestsPerMinute)
	}

	return &Service{
		store:    store,
		composer: composer,
		bus:      bus,
		limiter:  rate.NewLimiter(limit, burst),
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Targets returns the DM-eligible leads a sweep would draft for, best score first.
func Targets(leads []domain.Lead, now time.Time, limit int, regenerate bool) (eligible int, targets []domain.Lead) {
	candidates := batching.EligibleForDM(leads, now)
	if regenerate {
		if limit > 0 && len(candidates) > limit {
			return len(candidates), candidates[:limit]
		}
		return len(candidates), candidates
	}
	return len(candidates), batching.MissingDrafts(candidates, limit)
}

// Sweep drafts messages for eligible leads. Per-lead failures are counted, not
// returned; only a failed list fetch or a cancelled context fails the sweep.
func (s *Service) Sweep(ctx context.Context, opts Options) (Result, error) {
	now := s.now().In(s.cfg.Location)
	result := Result{Day: now.Format(time.DateOnly)}

	leads, err := s.store.ListLeads(ctx)
	if err != nil {
		return result, apperr.Unavailable("lead store unavailable", err).WithOp("drafting.Sweep")
	}

	limit := s.cfg.BatchLimit
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	result.Eligible, result.Targets = Targets(leads, now, limit, opts.Regenerate)

	log := s.log.WithContext(ctx)
	log.Info("dm draft sweep started",
		"day", result.Day,
		"eligible", result.Eligible,
		"targets", len(result.Targets),
		"dry_run", opts.DryRun,
	)
	if opts.DryRun || len(result.Targets) == 0 {
		return result, nil
	}

	var generated, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, lead := range result.Targets {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			if err := s.draftOne(gctx, lead); err != nil {
				failed.Add(1)
				log.Warn("dm draft failed", "lead_id", lead.ID, "handle", lead.InstagramHandle, "error", err)
				return nil
			}
			generated.Add(1)
			return nil
		})
	}
	waitErr := g.Wait()

	result.Generated = int(generated.Load())
	result.Failed = int(failed.Load())
	log.Info("dm draft sweep finished", "day", result.Day, "generated", result.Generated, "failed", result.Failed)

	if s.bus != nil {
		s.bus.Publish(ctx, events.DMDraftsGenerated{
			BaseEvent: events.NewBaseEventAt(now),
			Day:       result.Day,
			Generated: result.Generated,
			Failed:    result.Failed,
		})
	}
	if waitErr != nil {
		return result, waitErr
	}
	return result, nil
}

func (s *Service) draftOne(ctx context.Context, lead domain.Lead) error {
	raw, err := s.composer.Compose(ctx, lead)
	if err != nil {
		return err
	}
	text := CleanDraft(raw)
	if text == "" {
		return errEmptyDraft
	}
	if err := s.store.PatchLead(ctx, lead.ID, domain.DraftPatch(text)); err != nil {
		return apperr.Unavailable("failed to store dm draft", err).WithOp("drafting.draftOne")
	}
	return nil
}

var errEmptyDraft = apperr.Internal("model returned an empty draft")
