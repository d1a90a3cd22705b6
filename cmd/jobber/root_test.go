package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/amishk599/jobber/internal/config"
	"github.com/amishk599/jobber/internal/retry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadConfig_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JOBBER_CONFIG", "")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadConfig_ExplicitPathMustExist(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadConfig_EnvVarPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JOBBER_CONFIG", path)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr = %q, want :9999", cfg.Server.Addr)
	}
}

func TestOpenBackend_RequiresUser(t *testing.T) {
	if _, err := openBackend(config.Default(), discardLogger()); err == nil {
		t.Fatal("expected error without auth.user_id")
	}
}

func TestOpenBackend_LocalUsesPlaceholderToken(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.UserID = "u1"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "jobber.db")

	b, err := openBackend(cfg, discardLogger())
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	defer b.Close()

	if b.identity.Token != localToken {
		t.Errorf("token = %q, want %q", b.identity.Token, localToken)
	}
	if _, ok := b.apps.(*retry.Store); !ok {
		t.Errorf("apps = %T, want *retry.Store", b.apps)
	}
}

func TestOpenBackend_RemoteKeepsConfiguredToken(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.UserID = "u1"
	cfg.Auth.Token = "secret"
	cfg.Backend.URL = "http://localhost:8080"

	b, err := openBackend(cfg, discardLogger())
	if err != nil {
		t.Fatalf("openBackend: %v", err)
	}
	if b.identity.Token != "secret" {
		t.Errorf("token = %q, want secret", b.identity.Token)
	}
}
