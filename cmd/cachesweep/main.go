package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/config"
	"github.com/thetahealth/mirobody-sub003/internal/repository/unitofwork"
	"github.com/thetahealth/mirobody-sub003/internal/service"
	"github.com/thetahealth/mirobody-sub003/pkg/database"
	"github.com/thetahealth/mirobody-sub003/pkg/events"
	pktNats "github.com/thetahealth/mirobody-sub003/pkg/nats"

	"github.com/fatih/color"
)

func main() {
	maxAgeDays := flag.Int("max-age-days", 0, "delete entries idle longer than this (default from CACHE_CLEANUP_MAX_AGE_DAYS)")
	minRefs := flag.Int64("min-refs", 0, "keep entries with at least this many references (default from CACHE_CLEANUP_MIN_REFERENCES)")
	dryRun := flag.Bool("dry-run", false, "report sweep candidates without deleting")
	flag.Parse()

	cfg := config.Load()
	if *maxAgeDays <= 0 {
		*maxAgeDays = cfg.FileCache.CleanupMaxAgeDays
	}
	if *minRefs <= 0 {
		*minRefs = int64(cfg.FileCache.CleanupMinReferences)
	}

	color.Cyan("🧹 Cache Sweep: idle > %d days, references < %d", *maxAgeDays, *minRefs)

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		color.Red("❌ Failed to connect to database: %v", err)
		os.Exit(1)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)
	cacheService := service.NewFileCacheService(uowFactory, cfg.FileCache.ReadEnabled)
	ctx := context.Background()

	before, err := cacheService.Stats(ctx)
	if err != nil {
		color.Red("❌ Failed to read cache stats: %v", err)
		os.Exit(1)
	}
	color.Yellow("Cache holds %d entries (%d chars)", before.EntryCount, before.TotalChars)

	if !cacheService.ReadEnabled() {
		color.Yellow("Cache reads are disabled (GLOBAL_FILE_CACHE_ENABLED=false), nothing to sweep")
		return
	}

	candidates, err := cacheService.PreviewCleanup(ctx, *maxAgeDays, *minRefs)
	if err != nil {
		color.Red("❌ Failed to count sweep candidates: %v", err)
		os.Exit(1)
	}
	color.Yellow("%d entries match the sweep policy", candidates)

	if *dryRun {
		color.Green("✅ Dry run complete, nothing deleted")
		return
	}

	deleted, err := cacheService.Cleanup(ctx, *maxAgeDays, *minRefs)
	if err != nil {
		color.Red("❌ Sweep failed: %v", err)
		os.Exit(1)
	}

	after, err := cacheService.Stats(ctx)
	if err != nil {
		color.Red("❌ Failed to read cache stats: %v", err)
		os.Exit(1)
	}
	color.Green("✅ Swept %d entries, %d remain (%d chars)", deleted, after.EntryCount, after.TotalChars)

	// Announce the sweep so dashboards and the event monitor see it.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	if natsPub != nil {
		defer natsPub.Close()
		event := events.BaseEvent{
			Type: events.TypeCacheSweepCompleted,
			Data: map[string]interface{}{
				"max_age_days":    *maxAgeDays,
				"min_references":  *minRefs,
				"deleted_entries": deleted,
				"entries_left":    after.EntryCount,
			},
			OccurredAt: time.Now(),
		}
		if err := natsPub.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish %s event: %v", events.TypeCacheSweepCompleted, err)
		}
	}
}
