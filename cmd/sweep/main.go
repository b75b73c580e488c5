// Command sweep runs a one-off orphaned-image sweep against the configured
// storage backend and prints the report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ateliercms/api/internal/config"
	"github.com/ateliercms/api/internal/database"
	"github.com/ateliercms/api/internal/services/media"
	"github.com/ateliercms/api/internal/services/offering"
	"github.com/ateliercms/api/internal/services/project"
	"github.com/ateliercms/api/internal/storage"
)

func main() {
	_ = godotenv.Load()

	dryRun := flag.Bool("dry-run", false, "report orphans without deleting them")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall sweep timeout")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := config.LoadDev()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var backend storage.Backend
	if cfg.MediaStorage == "s3" {
		backend, err = storage.NewS3(ctx, storage.S3Config{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			Bucket:         cfg.S3.Bucket,
			PublicURL:      cfg.S3.PublicURL,
		})
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
	} else {
		backend = storage.NewLocal(cfg.UploadsRoot)
	}

	mediaSvc := media.NewService(backend, logger)
	sweeper := media.NewSweeper(mediaSvc, []media.ReferenceSource{
		project.NewRepository(pool),
		offering.NewRepository(pool),
	}, cfg.SweepGrace, logger)

	var report media.Report
	if *dryRun {
		report, err = sweeper.Plan(ctx)
	} else {
		report, err = sweeper.Sweep(ctx)
	}
	if err != nil {
		slog.Error("sweep failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(report)
}
