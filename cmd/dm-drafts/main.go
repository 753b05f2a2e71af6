// Command dm-drafts runs one DM draft sweep in the foreground.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"outreach_backend/internal/leads/drafting"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/platform/ai/openai"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
)

func main() {
	limit := flag.Int("limit", 0, "maximum number of drafts to write (0 uses DRAFTS_BATCH_LIMIT)")
	dryRun := flag.Bool("dry-run", false, "list the leads that would get a draft without writing anything")
	regenerate := flag.Bool("regenerate", false, "overwrite existing drafts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	if !cfg.IsDraftingEnabled() && !*dryRun {
		log.Error("DRAFTS_API_KEY must be set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store drafting.Store
	if cfg.GetLeadStoreKind() == config.LeadStorePostgREST {
		store = repository.NewPostgRESTStore(cfg)
	} else {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()
		store = repository.NewPostgresStore(pool, cfg.GetLeadStoreRowCap())
	}

	var composer drafting.Composer
	if cfg.IsDraftingEnabled() {
		writer, err := drafting.NewWriter(openai.NewModel(openai.Config{
			APIKey:  cfg.GetDraftsAPIKey(),
			BaseURL: cfg.GetDraftsBaseURL(),
			Model:   cfg.GetDraftsModel(),
		}))
		if err != nil {
			log.Error("failed to initialize draft writer", "error", err)
			panic("failed to initialize draft writer: " + err.Error())
		}
		composer = writer
	}

	svc := drafting.NewService(store, composer, nil, drafting.Config{
		BatchLimit:        cfg.GetDraftsBatchLimit(),
		Concurrency:       cfg.GetDraftsConcurrency(),
		RequestsPerMinute: cfg.GetDraftsRequestsPerMinute(),
		Location:          cfg.GetLocation(),
	}, log)

	result, err := svc.Sweep(ctx, drafting.Options{Limit: *limit, Regenerate: *regenerate, DryRun: *dryRun})
	if err != nil {
		log.Error("dm draft sweep failed", "error", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Printf("%d eligible, would draft %d:\n", result.Eligible, len(result.Targets))
		for _, lead := range result.Targets {
			fmt.Printf("  @%s (%s) score %d\n", lead.InstagramHandle, lead.FullName, lead.Score)
		}
		return
	}
	fmt.Printf("generated %d, failed %d, of %d targets\n", result.Generated, result.Failed, len(result.Targets))
}
