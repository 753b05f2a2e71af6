package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/drafting"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/internal/notification"
	"outreach_backend/internal/scheduler"
	"outreach_backend/platform/ai/openai"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/sentry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "leadStore", cfg.LeadStoreKind)

	if err := sentry.Init(cfg, cfg.Env, log); err != nil {
		log.Error("failed to initialize sentry", "error", err)
	}
	defer sentry.Flush(2 * time.Second)

	if !cfg.IsDraftingEnabled() {
		log.Warn("DRAFTS_API_KEY not configured; nothing to schedule")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openLeadStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open lead store", "error", err)
		panic("failed to open lead store: " + err.Error())
	}
	defer closeStore()

	eventBus := events.NewInMemoryBus(log)
	notification.New(log, nil).RegisterHandlers(eventBus)

	writer, err := drafting.NewWriter(openai.NewModel(openai.Config{
		APIKey:  cfg.GetDraftsAPIKey(),
		BaseURL: cfg.GetDraftsBaseURL(),
		Model:   cfg.GetDraftsModel(),
	}))
	if err != nil {
		log.Error("failed to initialize draft writer", "error", err)
		panic("failed to initialize draft writer: " + err.Error())
	}

	draftingSvc := drafting.NewService(store, writer, eventBus, drafting.Config{
		BatchLimit:        cfg.GetDraftsBatchLimit(),
		Concurrency:       cfg.GetDraftsConcurrency(),
		RequestsPerMinute: cfg.GetDraftsRequestsPerMinute(),
		Location:          cfg.GetLocation(),
	}, log)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	rdb, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	sweep := scheduler.NewDraftSweep(
		client,
		scheduler.NewSweepGuard(rdb, ""),
		log,
		cfg.GetDraftsSweepInterval(),
		cfg.GetDraftsBatchLimit(),
		cfg.GetLocation(),
	)
	go sweep.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, draftingSvc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
}

func openLeadStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (drafting.Store, func(), error) {
	if cfg.GetLeadStoreKind() == config.LeadStorePostgREST {
		return repository.NewPostgRESTStore(cfg), func() {}, nil
	}

	var store *repository.PostgresStore
	err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		store = repository.NewPostgresStore(pool, cfg.GetLeadStoreRowCap())
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
