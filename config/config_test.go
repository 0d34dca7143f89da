package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	os.Setenv("DB_PATH", filepath.Join(dir, "data.db"))
	defer os.Unsetenv("LOG_DIR")
	defer os.Unsetenv("DB_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Progress.Retention != 4*time.Hour {
		t.Errorf("expected 4h retention, got %s", cfg.Progress.Retention)
	}
	if cfg.Polling.BaseInterval != time.Second {
		t.Errorf("expected 1s base interval, got %s", cfg.Polling.BaseInterval)
	}
	if cfg.Polling.MaxInterval != 8*time.Second {
		t.Errorf("expected 8s max interval, got %s", cfg.Polling.MaxInterval)
	}
	if cfg.Polling.SimulatedCap != 95 {
		t.Errorf("expected simulated cap 95, got %d", cfg.Polling.SimulatedCap)
	}
	if cfg.Anonymous.UseLimit != 1 {
		t.Errorf("expected anonymous use limit 1, got %d", cfg.Anonymous.UseLimit)
	}
	if len(cfg.Pipeline.ProviderOrder) != 4 {
		t.Errorf("expected 4 default providers, got %v", cfg.Pipeline.ProviderOrder)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	os.Setenv("DB_PATH", filepath.Join(dir, "data.db"))
	os.Setenv("PROGRESS_RETENTION_SECONDS", "7200")
	os.Setenv("POLL_BASE_INTERVAL_MS", "500")
	os.Setenv("POLL_MAX_INTERVAL_MS", "4000")
	os.Setenv("CLIENT_TIMEOUT_MS", "60000")
	os.Setenv("PROVIDER_ORDER", "captions, ytdlp")
	os.Setenv("ANONYMOUS_USE_LIMIT", "3")
	defer func() {
		for _, key := range []string{
			"LOG_DIR", "DB_PATH", "PROGRESS_RETENTION_SECONDS",
			"POLL_BASE_INTERVAL_MS", "POLL_MAX_INTERVAL_MS",
			"CLIENT_TIMEOUT_MS", "PROVIDER_ORDER", "ANONYMOUS_USE_LIMIT",
		} {
			os.Unsetenv(key)
		}
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Progress.Retention != 2*time.Hour {
		t.Errorf("expected 2h retention, got %s", cfg.Progress.Retention)
	}
	if cfg.Polling.BaseInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms base interval, got %s", cfg.Polling.BaseInterval)
	}
	if cfg.Polling.ClientTimeout != time.Minute {
		t.Errorf("expected 1m client timeout, got %s", cfg.Polling.ClientTimeout)
	}
	if len(cfg.Pipeline.ProviderOrder) != 2 || cfg.Pipeline.ProviderOrder[1] != "ytdlp" {
		t.Errorf("unexpected provider order: %v", cfg.Pipeline.ProviderOrder)
	}
	if cfg.Anonymous.UseLimit != 3 {
		t.Errorf("expected use limit 3, got %d", cfg.Anonymous.UseLimit)
	}
}

func TestValidateRejectsBadIntervals(t *testing.T) {
	dir := t.TempDir()
	os.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	os.Setenv("DB_PATH", filepath.Join(dir, "data.db"))
	os.Setenv("POLL_BASE_INTERVAL_MS", "9000")
	os.Setenv("POLL_MAX_INTERVAL_MS", "1000")
	defer func() {
		for _, key := range []string{"LOG_DIR", "DB_PATH", "POLL_BASE_INTERVAL_MS", "POLL_MAX_INTERVAL_MS"} {
			os.Unsetenv(key)
		}
	}()

	if _, err := Load(); err == nil {
		t.Error("expected error for base interval above max interval")
	}
}
