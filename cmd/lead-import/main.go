// Command lead-import upserts a scraped lead CSV into instagram_leads.
package main

import (
	"context"
	"flag"
	"os"

	"outreach_backend/internal/leads/repository"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
)

const batchSize = 50

func main() {
	path := flag.String("file", "", "path to the lead CSV")
	all := flag.Bool("all", false, "import leads that are not likely US as well")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	if *path == "" {
		log.Error("-file is required")
		os.Exit(2)
	}
	if cfg.GetLeadStoreKind() != config.LeadStorePostgres {
		log.Error("lead import writes through DATABASE_URL; set LEAD_STORE=postgres")
		os.Exit(2)
	}
	log.Info("starting lead import", "file", *path, "all", *all)

	f, err := os.Open(*path)
	if err != nil {
		log.Error("failed to open csv", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	parsed, err := parseLeadCSV(f, *all)
	if err != nil {
		log.Error("failed to parse csv", "error", err)
		os.Exit(1)
	}
	for _, bad := range parsed.invalid {
		log.Warn("skipping invalid row", "line", bad.line, "error", bad.err)
	}
	log.Info("csv parsed", "rows", len(parsed.rows), "notUS", parsed.notUS, "invalid", len(parsed.invalid))

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool, cfg.GetLeadStoreRowCap())

	written := 0
	for start := 0; start < len(parsed.rows); start += batchSize {
		end := min(start+batchSize, len(parsed.rows))
		n, err := store.UpsertLeads(ctx, parsed.rows[start:end])
		written += n
		if err != nil {
			log.Error("failed to upsert batch", "from", start, "to", end, "error", err)
			os.Exit(1)
		}
	}

	log.Info("lead import complete", "written", written)
}
