package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobber/internal/adapter"
	"github.com/amishk599/jobber/internal/extract"
	"github.com/amishk599/jobber/internal/model"
	"github.com/amishk599/jobber/internal/ratelimit"
	"github.com/amishk599/jobber/internal/retry"
	"github.com/amishk599/jobber/internal/save"
	"github.com/amishk599/jobber/internal/store"
)

var captureSave bool

var captureCmd = &cobra.Command{
	Use:   "capture <url>",
	Short: "Capture a job posting from a URL",
	Long:  "Fetches a job page, extracts the posting and prints it. With --save it is stored as a new application; without, the save runs against a no-op store.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCapture,
}

func init() {
	captureCmd.Flags().BoolVar(&captureSave, "save", false, "save the posting as an application")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	pageURL := args[0]

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	recipe, ok := adapter.RecipeFor(pageURL)
	if !ok {
		return fmt.Errorf("%s is not a supported job page (see `jobber sites`)", pageURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := ratelimit.NewSiteRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.SiteOverrides)
	loader := ratelimit.NewRateLimitedLoader(
		extract.NewPageLoader(&http.Client{Timeout: cfg.Capture.FetchTimeout}, cfg.Capture.UserAgent),
		limiter,
	)
	doc, err := retry.Do(ctx, retry.Policy{
		MaxRetries: 2,
		BaseDelay:  2 * time.Second,
		Timeout:    cfg.Capture.FetchTimeout,
		Logger:     logger,
	}, "load page", func(ctx context.Context) (model.DocumentQuery, error) {
		return loader.Load(ctx, pageURL)
	})
	if err != nil {
		return err
	}

	posting := extract.NewExtractor(cfg.Capture.MaxDescription).Extract(doc, recipe)
	if !extract.Meaningful(posting) {
		return fmt.Errorf("no job details found on %s (the page may need a signed-in browser)", pageURL)
	}
	posting.CapturedAt = time.Now().UTC()

	out, err := json.MarshalIndent(posting, "", "  ")
	if err != nil {
		return fmt.Errorf("encode posting: %w", err)
	}
	fmt.Println(string(out))

	opts := save.Options{
		CopyDescriptionToNotes: cfg.Save.CopyDescriptionToNotes,
		DedupWindow:            cfg.Save.DedupWindow,
	}
	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)

	if !captureSave {
		logger.Info("dry run: nothing will be stored")
		identity := model.Auth{UserID: cfg.Auth.UserID, Token: localToken}
		if identity.UserID == "" {
			identity.UserID = "dry-run"
		}
		app, err := save.NewPipeline(store.NewNopStore(), nil, opts, logger).Save(ctx, posting, identity)
		if err != nil {
			return err
		}
		fmt.Printf("\nwould save: %s at %s (%s)\n", app.Position, app.Company, app.Status)
		return nil
	}

	b, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	app, err := save.NewPipeline(b.apps, n, opts, logger).Save(ctx, posting, b.identity)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved %s: %s at %s (%s)\n", app.ID, app.Position, app.Company, app.Status)
	return nil
}
