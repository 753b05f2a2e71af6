package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_backend/internal/adapters"
	"outreach_backend/internal/adapters/storage"
	"outreach_backend/internal/auth"
	"outreach_backend/internal/events"
	"outreach_backend/internal/exports"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/http/router"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/internal/leads/session"
	"outreach_backend/internal/notification"
	"outreach_backend/internal/scheduler"
	"outreach_backend/migrations"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/sentry"
	"outreach_backend/platform/validator"
)

// leadStore is the store contract plus a readiness probe.
type leadStore interface {
	session.Store
	apphttp.HealthChecker
}

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, bucket string) error {
	return withRetry(ctx, log, "ensure exports bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := cfg.RequireAuth(); err != nil {
		panic("invalid auth config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "leadStore", cfg.LeadStoreKind)

	if err := sentry.Init(cfg, cfg.Env, log); err != nil {
		log.Error("failed to initialize sentry", "error", err)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	store, closeStore := initLeadStore(ctx, cfg, log)
	defer closeStore()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()
	val.RegisterStringSet("pipeline_stage", domain.IsKnownPipelineStage)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(log, nil)
	notificationModule.RegisterHandlers(eventBus)

	leadsModule := leads.NewModule(store, eventBus, val, cfg, log)
	authModule := auth.NewModule(cfg, adapters.NewSessionOpener(leadsModule.Registry()), val, log)

	draftClient, closeDrafts := initDraftClient(cfg, log)
	defer closeDrafts()
	if draftClient != nil {
		leadsModule.SetDraftRequester(adapters.NewDraftRequester(draftClient, cfg.GetLocation()))
	}

	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := ensureBucket(ctx, log, minioSvc, cfg.GetMinIOBucketExports()); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinIOBucketExports())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		storageSvc = minioSvc
		log.Info("storage service initialized", "exportsBucket", cfg.GetMinIOBucketExports())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; batch export disabled")
	}
	exportsModule := exports.NewModule(leadsModule.ManagementService(), storageSvc, cfg.GetMinIOBucketExports())

	go leadsModule.Run(ctx)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   store,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			leadsModule,
			exportsModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initLeadStore builds the configured lead store. The Postgres store runs
// migrations first and owns a pool that the returned func closes.
func initLeadStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (leadStore, func()) {
	if cfg.GetLeadStoreKind() == config.LeadStorePostgREST {
		log.Info("using PostgREST lead store", "url", cfg.GetSupabaseURL())
		return repository.NewPostgRESTStore(cfg), func() {}
	}

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	store, err := connectPostgresStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")
	return store, store.Close
}

func connectPostgresStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repository.PostgresStore, error) {
	var store *repository.PostgresStore
	err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		store = repository.NewPostgresStore(pool, cfg.GetLeadStoreRowCap())
		return nil
	})
	return store, err
}

func initDraftClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; operator draft sweeps disabled")
		return nil, func() {}
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, func() {}
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
