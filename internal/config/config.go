package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobber/internal/adapter"
	"github.com/amishk599/jobber/internal/model"
)

// Config is the root configuration for jobber.
type Config struct {
	Server       ServerConfig
	Storage      StorageConfig
	Backend      BackendConfig
	Auth         AuthConfig
	Capture      CaptureConfig
	Save         SaveConfig
	Messaging    MessagingConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// StorageConfig points at the local SQLite database.
type StorageConfig struct {
	Path string
}

// BackendConfig selects where applications live. An empty URL means the local
// database; otherwise a remote jobber server.
type BackendConfig struct {
	URL        string
	Timeout    time.Duration // per-call bound
	MaxRetries int           // retries after the first attempt on transient failure
}

// AuthConfig is the identity CLI commands act as.
type AuthConfig struct {
	UserID string
	Token  string // expanded from env var by Load
}

// CaptureConfig controls job page capture.
type CaptureConfig struct {
	AutoDetect     bool
	MaxDescription int           // rune limit for descriptions
	TTL            time.Duration // captures older than this are swept
	SweepInterval  time.Duration
	FetchTimeout   time.Duration
	UserAgent      string
}

// SaveConfig controls how postings become applications.
type SaveConfig struct {
	CopyDescriptionToNotes bool
	DedupWindow            time.Duration // zero disables the duplicate check
}

// MessagingConfig bounds extension message handling.
type MessagingConfig struct {
	Timeout time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RateLimitConfig controls per-site page fetch pacing.
type RateLimitConfig struct {
	MinDelay      time.Duration                  // minimum gap between fetches from the same site
	SiteOverrides map[model.Source]time.Duration // keyed by site name, e.g. "LinkedIn"
}

// MinDelayFor returns the configured delay for the given site, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(src model.Source) time.Duration {
	if d, ok := r.SiteOverrides[src]; ok {
		return d
	}
	return r.MinDelay
}

const (
	defaultAddr           = ":8080"
	defaultStoragePath    = "jobber.db"
	defaultMaxDescription = 20000
	defaultUserAgent      = "Mozilla/5.0 (compatible; jobber/1.0)"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Server       rawServerConfig    `yaml:"server"`
	Storage      StorageConfig      `yaml:"storage"`
	Backend      rawBackendConfig   `yaml:"backend"`
	Auth         rawAuthConfig      `yaml:"auth"`
	Capture      rawCaptureConfig   `yaml:"capture"`
	Save         rawSaveConfig      `yaml:"save"`
	Messaging    rawMessagingConfig `yaml:"messaging"`
	Notification NotificationConfig `yaml:"notification"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
}

type rawServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type rawBackendConfig struct {
	URL        string `yaml:"url"`
	Timeout    string `yaml:"timeout"`
	MaxRetries *int   `yaml:"max_retries"`
}

type rawAuthConfig struct {
	UserID string `yaml:"user_id"`
	Token  string `yaml:"token"`
}

type rawCaptureConfig struct {
	AutoDetect     *bool  `yaml:"auto_detect"`
	MaxDescription int    `yaml:"max_description"`
	TTL            string `yaml:"ttl"`
	SweepInterval  string `yaml:"sweep_interval"`
	FetchTimeout   string `yaml:"fetch_timeout"`
	UserAgent      string `yaml:"user_agent"`
}

type rawSaveConfig struct {
	CopyDescriptionToNotes *bool  `yaml:"copy_description_to_notes"`
	DedupWindow            string `yaml:"dedup_window"`
}

type rawMessagingConfig struct {
	Timeout string `yaml:"timeout"`
}

type rawRateLimitConfig struct {
	MinDelay      string            `yaml:"min_delay"`
	SiteOverrides map[string]string `yaml:"site_overrides"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg, err := parse([]byte("{}"))
	if err != nil {
		// The empty document only exercises defaults.
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	d := durations{}
	cfg := &Config{
		Server: ServerConfig{
			Addr:            orDefault(raw.Server.Addr, defaultAddr),
			ShutdownTimeout: d.parse("server.shutdown_timeout", raw.Server.ShutdownTimeout, 10*time.Second),
		},
		Storage: StorageConfig{
			Path: orDefault(raw.Storage.Path, defaultStoragePath),
		},
		Backend: BackendConfig{
			URL:        strings.TrimRight(raw.Backend.URL, "/"),
			Timeout:    d.parse("backend.timeout", raw.Backend.Timeout, 10*time.Second),
			MaxRetries: 1,
		},
		Auth: AuthConfig{
			UserID: raw.Auth.UserID,
			Token:  raw.Auth.Token,
		},
		Capture: CaptureConfig{
			AutoDetect:     boolOr(raw.Capture.AutoDetect, true),
			MaxDescription: raw.Capture.MaxDescription,
			TTL:            d.parse("capture.ttl", raw.Capture.TTL, 24*time.Hour),
			SweepInterval:  d.parse("capture.sweep_interval", raw.Capture.SweepInterval, 10*time.Minute),
			FetchTimeout:   d.parse("capture.fetch_timeout", raw.Capture.FetchTimeout, 15*time.Second),
			UserAgent:      orDefault(raw.Capture.UserAgent, defaultUserAgent),
		},
		Save: SaveConfig{
			CopyDescriptionToNotes: boolOr(raw.Save.CopyDescriptionToNotes, true),
			DedupWindow:            d.parse("save.dedup_window", raw.Save.DedupWindow, 0),
		},
		Messaging: MessagingConfig{
			Timeout: d.parse("messaging.timeout", raw.Messaging.Timeout, 10*time.Second),
		},
		Notification: raw.Notification,
		RateLimit: RateLimitConfig{
			MinDelay:      d.parse("rate_limit.min_delay", raw.RateLimit.MinDelay, 2*time.Second),
			SiteOverrides: make(map[model.Source]time.Duration),
		},
	}
	if raw.Backend.MaxRetries != nil {
		cfg.Backend.MaxRetries = *raw.Backend.MaxRetries
	}
	if cfg.Capture.MaxDescription == 0 {
		cfg.Capture.MaxDescription = defaultMaxDescription
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	for site, v := range raw.RateLimit.SiteOverrides {
		cfg.RateLimit.SiteOverrides[model.Source(site)] = d.parse(fmt.Sprintf("rate_limit.site_overrides[%q]", site), v, 0)
	}
	if d.err != nil {
		return nil, d.err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// durations parses duration fields, keeping the first error.
type durations struct {
	err error
}

func (d *durations) parse(field, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		if d.err == nil {
			d.err = fmt.Errorf("parse %s %q: %w", field, value, err)
		}
		return def
	}
	return v
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func validate(cfg *Config) error {
	if cfg.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %v", cfg.Backend.Timeout)
	}
	if cfg.Backend.MaxRetries < 0 {
		return fmt.Errorf("backend.max_retries must not be negative, got %d", cfg.Backend.MaxRetries)
	}
	if cfg.Backend.URL != "" {
		u, err := url.Parse(cfg.Backend.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("backend.url must be an http(s) URL, got %q", cfg.Backend.URL)
		}
	}

	if cfg.Capture.MaxDescription < 0 {
		return fmt.Errorf("capture.max_description must not be negative, got %d", cfg.Capture.MaxDescription)
	}
	if cfg.Capture.TTL <= 0 {
		return fmt.Errorf("capture.ttl must be positive, got %v", cfg.Capture.TTL)
	}
	if cfg.Capture.SweepInterval <= 0 {
		return fmt.Errorf("capture.sweep_interval must be positive, got %v", cfg.Capture.SweepInterval)
	}
	if cfg.Capture.FetchTimeout <= 0 {
		return fmt.Errorf("capture.fetch_timeout must be positive, got %v", cfg.Capture.FetchTimeout)
	}
	if cfg.Save.DedupWindow < 0 {
		return fmt.Errorf("save.dedup_window must not be negative, got %v", cfg.Save.DedupWindow)
	}
	if cfg.Messaging.Timeout <= 0 {
		return fmt.Errorf("messaging.timeout must be positive, got %v", cfg.Messaging.Timeout)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	for src, delay := range cfg.RateLimit.SiteOverrides {
		if !knownSite(src) {
			return fmt.Errorf("rate_limit.site_overrides: unknown site %q", src)
		}
		if delay < 0 {
			return fmt.Errorf("rate_limit.site_overrides[%q] must not be negative", src)
		}
	}

	return nil
}

func knownSite(src model.Source) bool {
	for _, site := range adapter.Sites() {
		if site.Source == src {
			return true
		}
	}
	return false
}
