package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobber/internal/api"
	"github.com/amishk599/jobber/internal/capture"
	"github.com/amishk599/jobber/internal/extension"
	"github.com/amishk599/jobber/internal/extract"
	"github.com/amishk599/jobber/internal/lifecycle"
	"github.com/amishk599/jobber/internal/ratelimit"
	"github.com/amishk599/jobber/internal/retry"
	"github.com/amishk599/jobber/internal/save"
	"github.com/amishk599/jobber/internal/scheduler"
	"github.com/amishk599/jobber/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and capture sweeper",
	Long:  "Serves the applications API and the extension message endpoint; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"storage", cfg.Storage.Path,
		"auto_detect", cfg.Capture.AutoDetect,
		"capture_ttl", cfg.Capture.TTL.String(),
		"notification", cfg.Notification.Type,
	)

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, logger)
	apps := db.Applications()
	manager := lifecycle.NewManager(apps, n, logger)

	pipelineStore := retry.NewStore(apps, retry.Policy{
		MaxRetries: cfg.Backend.MaxRetries,
		BaseDelay:  time.Second,
		Timeout:    cfg.Backend.Timeout,
		Logger:     logger,
	})
	pipeline := save.NewPipeline(pipelineStore, n, save.Options{
		CopyDescriptionToNotes: cfg.Save.CopyDescriptionToNotes,
		DedupWindow:            cfg.Save.DedupWindow,
	}, logger)

	limiter := ratelimit.NewSiteRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.SiteOverrides)
	loader := ratelimit.NewRateLimitedLoader(
		extract.NewPageLoader(&http.Client{Timeout: cfg.Capture.FetchTimeout}, cfg.Capture.UserAgent),
		limiter,
	)

	// Extension side: each caller gets their own tabs and sign-in cache, all
	// kept in the captures table under per-user keys.
	hub := extension.NewHub(extension.HubDeps{
		Store:     db.Captures(),
		Loader:    loader,
		Saver:     pipeline,
		Extractor: extract.NewExtractor(cfg.Capture.MaxDescription),
		Tokens:    db.Tokens(),
	}, capture.Config{AutoDetect: cfg.Capture.AutoDetect}, cfg.Messaging.Timeout, logger)

	handler := api.NewHandler(api.Deps{
		Applications: apps,
		Tokens:       db.Tokens(),
		Lifecycle:    manager,
		Notifier:     n,
		Extension:    hub,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper := capture.NewSweeper(hub, db.Captures(), cfg.Capture.TTL, logger)
	sched := scheduler.NewScheduler([]scheduler.Task{sweeper}, cfg.Capture.SweepInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
