package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobber/internal/auth"
	"github.com/amishk599/jobber/internal/config"
	"github.com/amishk599/jobber/internal/lifecycle"
	"github.com/amishk599/jobber/internal/model"
	"github.com/amishk599/jobber/internal/notifier"
	"github.com/amishk599/jobber/internal/remote"
	"github.com/amishk599/jobber/internal/retry"
	"github.com/amishk599/jobber/internal/store"
)

const defaultConfigPath = "config.yaml"

// localToken stands in for a bearer token when the CLI talks to its own database,
// which trusts the configured user.
const localToken = "local"

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "jobber",
	Short:        "Capture job postings and track applications",
	Long:         "Jobber turns job-board pages into tracked applications and follows them from applied to offer.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBBER_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBBER_CONFIG env var > "./config.yaml".
// A missing ./config.yaml falls back to defaults; an explicit path must exist.
// A .env file in the working directory is loaded first so the config can
// reference its variables.
func loadConfig(path string) (*config.Config, error) {
	_ = godotenv.Load()

	if path == "" {
		if env := os.Getenv("JOBBER_CONFIG"); env != "" {
			path = env
		} else {
			if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
				return config.Default(), nil
			}
			path = defaultConfigPath
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// backend is the application store CLI commands act on, plus the identity they act as.
type backend struct {
	apps     model.ApplicationStore
	identity model.Auth
	closeFn  func() error
}

func (b *backend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// openBackend returns the remote jobber server when backend.url is set, otherwise
// the local SQLite database. Either way calls are bounded and retried once.
func openBackend(cfg *config.Config, logger *slog.Logger) (*backend, error) {
	if cfg.Auth.UserID == "" {
		return nil, fmt.Errorf("auth.user_id is not configured")
	}

	policy := retry.Policy{
		MaxRetries: cfg.Backend.MaxRetries,
		BaseDelay:  time.Second,
		Timeout:    cfg.Backend.Timeout,
		Logger:     logger,
	}

	if cfg.Backend.URL != "" {
		identity := model.Auth{UserID: cfg.Auth.UserID, Token: cfg.Auth.Token}
		httpClient := &http.Client{Timeout: cfg.Backend.Timeout}
		client := remote.NewClient(cfg.Backend.URL, auth.Static(identity), httpClient)
		logger.Debug("using remote backend", "url", cfg.Backend.URL)
		return &backend{apps: retry.NewStore(client, policy), identity: identity}, nil
	}

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	identity := model.Auth{UserID: cfg.Auth.UserID, Token: cfg.Auth.Token}
	if identity.Token == "" {
		identity.Token = localToken
	}
	logger.Debug("using local backend", "path", cfg.Storage.Path)
	return &backend{apps: retry.NewStore(db.Applications(), policy), identity: identity, closeFn: db.Close}, nil
}

// newLifecycle builds the status manager over b with the configured notifier.
func newLifecycle(cfg *config.Config, b *backend, logger *slog.Logger) *lifecycle.Manager {
	n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	return lifecycle.NewManager(b.apps, n, logger)
}
