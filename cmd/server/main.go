package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/ateliercms/api/internal/auth"
	"github.com/ateliercms/api/internal/config"
	"github.com/ateliercms/api/internal/database"
	apihandlers "github.com/ateliercms/api/internal/handlers/api"
	"github.com/ateliercms/api/internal/mailer"
	"github.com/ateliercms/api/internal/middleware"
	"github.com/ateliercms/api/internal/services/common"
	"github.com/ateliercms/api/internal/services/contact"
	"github.com/ateliercms/api/internal/services/media"
	"github.com/ateliercms/api/internal/services/offering"
	"github.com/ateliercms/api/internal/services/project"
	"github.com/ateliercms/api/internal/services/user"
	"github.com/ateliercms/api/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadDev()

	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	slog.Info("database connected")

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("migrations complete")

	// Storage backend
	var backend storage.Backend
	switch cfg.MediaStorage {
	case "s3":
		backend, err = storage.NewS3(context.Background(), storage.S3Config{
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
	default:
		backend = storage.NewLocal(cfg.UploadsRoot)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	mediaSvc := media.NewService(backend, logger)
	notifier := mailer.New(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		User:      cfg.SMTPUser,
		Password:  cfg.SMTPPassword,
		From:      cfg.SMTPFrom,
		Recipient: cfg.ContactRecipient,
	}, logger)

	// Repositories and services
	projectRepo := project.NewRepository(pool)
	offeringRepo := offering.NewRepository(pool)
	contactRepo := contact.NewRepository(pool)
	userRepo := user.NewRepository(pool)

	projectSvc := project.NewService(projectRepo, mediaSvc, logger)
	offeringSvc := offering.NewService(offeringRepo, mediaSvc, logger)
	contactSvc := contact.NewService(contactRepo, notifier, logger)
	userSvc := user.NewService(userRepo, jwtMgr, logger)
	commonSvc := common.NewService(projectSvc, offeringSvc, userSvc)

	sweeper := media.NewSweeper(mediaSvc,
		[]media.ReferenceSource{projectRepo, offeringRepo},
		cfg.SweepGrace, logger)

	// Scheduled orphan sweep
	var scheduler *cron.Cron
	if cfg.SweepCron != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.SweepCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			report, err := sweeper.Sweep(ctx)
			if err != nil {
				slog.Error("scheduled orphan sweep failed", "error", err)
				return
			}
			slog.Info("scheduled orphan sweep complete",
				"scanned", report.Scanned,
				"orphaned", report.Orphaned,
				"deleted", report.Deleted,
			)
		})
		if err != nil {
			slog.Error("invalid sweep schedule", "spec", cfg.SweepCron, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	// Handlers
	authed := middleware.RequireUser(jwtMgr)
	admin := middleware.RequireAdmin(jwtMgr)
	loginLimit := middleware.LoginRateLimiter()

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	apihandlers.NewProjectHandler(projectSvc, logger).RegisterRoutes(mux, admin)
	apihandlers.NewServiceHandler(offeringSvc, logger).RegisterRoutes(mux, admin)
	apihandlers.NewContactHandler(contactSvc, logger).RegisterRoutes(mux, admin)
	apihandlers.NewUserHandler(userSvc, logger).RegisterRoutes(mux, authed, admin, loginLimit)
	apihandlers.NewCommonHandler(commonSvc, logger).RegisterRoutes(mux, admin)
	apihandlers.NewMaintenanceHandler(sweeper, logger).RegisterRoutes(mux, admin)

	// Uploaded images are served straight off disk in local mode; in s3
	// mode references are absolute URLs and never hit this route.
	if cfg.MediaStorage != "s3" {
		uploadsDir := filepath.Join(cfg.UploadsRoot, "uploads")
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	}

	// Global middleware stack
	var chain http.Handler = mux
	chain = middleware.SecurityHeaders(chain)
	chain = middleware.CORS(cfg.BaseURL)(chain)
	chain = middleware.RateLimiter(20, 40)(chain)
	chain = middleware.Recover(logger)(chain)
	chain = middleware.RequestLogger(logger)(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      chain,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "storage", cfg.MediaStorage)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
