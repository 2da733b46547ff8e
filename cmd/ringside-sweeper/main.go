package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/ringsidehq/ringside/pkg/config"
	"github.com/ringsidehq/ringside/pkg/matches"
	"github.com/ringsidehq/ringside/pkg/observability"
	"github.com/ringsidehq/ringside/pkg/storage"
)

var (
	schedule = flag.String("schedule", "", "Cron schedule for the expiration sweep (overrides RINGSIDE_SWEEP_SCHEDULE)")
	runOnce  = flag.Bool("run-once", false, "Run one sweep and exit (for testing or manual backfills)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *schedule == "" {
		*schedule = cfg.Sweeper.Schedule
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	ctx := context.Background()

	db, err := storage.Open(ctx, storage.Options{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnLifetime: cfg.Database.ConnLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	sweeper := matches.NewSweeper(db, logger, nil)

	if *runOnce {
		expired, err := sweeper.Sweep(ctx)
		if err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		log.Printf("Sweep completed, expired %d match requests", expired)
		return
	}

	c := cron.New()
	_, err = c.AddFunc(*schedule, func() {
		if _, err := sweeper.Sweep(context.Background()); err != nil {
			logger.WithError(err).Error("expiration sweep failed")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule sweep: %v", err)
	}

	c.Start()
	log.Printf("Ringside sweeper started, schedule: %s", *schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down gracefully...")

	stopCtx := c.Stop()
	<-stopCtx.Done()

	log.Println("Sweeper stopped")
}
