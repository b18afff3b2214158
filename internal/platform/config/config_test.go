package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"camwatch/internal/platform/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	interval, err := cfg.PollInterval()
	if err != nil {
		t.Fatalf("poll interval: %v", err)
	}
	if interval != time.Second {
		t.Fatalf("expected 1s poll interval, got %s", interval)
	}
	if cfg.StorePath() != filepath.Join(dir, ".camwatch", "session.json") {
		t.Fatalf("unexpected store path %s", cfg.StorePath())
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	raw := "appliance:\n  base_url: http://nvr.local\n  status_path: /api/recordings/download/batch/{jobId}/status\nstore:\n  driver: sqlite\nmonitor:\n  poll_interval: 2s\nserver:\n  allowed_origins:\n    - http://dashboard.local\n"
	if err := os.WriteFile(filepath.Join(dir, "camwatch.yaml"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Appliance.BaseURL != "http://nvr.local" {
		t.Fatalf("base url not overlaid: %s", cfg.Appliance.BaseURL)
	}
	if cfg.Appliance.RateLimit != config.DefaultRateLimit {
		t.Fatalf("unset keys must keep defaults, got rate limit %d", cfg.Appliance.RateLimit)
	}
	if cfg.StorePath() != filepath.Join(dir, ".camwatch", "camwatch.db") || cfg.HistoryPath() != cfg.StorePath() {
		t.Fatalf("sqlite store and history should share a file, got %s / %s", cfg.StorePath(), cfg.HistoryPath())
	}
	if d, _ := cfg.PollInterval(); d != 2*time.Second {
		t.Fatalf("expected 2s, got %s", d)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://dashboard.local" {
		t.Fatalf("allowed origins not overlaid: %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadTOMLOverlay(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	raw := "[appliance]\nbase_url = \"http://10.0.0.5\"\n\n[store]\ndriver = \"badger\"\n"
	if err := os.WriteFile(filepath.Join(dir, "camwatch.toml"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Appliance.BaseURL != "http://10.0.0.5" || cfg.Store.Driver != config.StoreBadger {
		t.Fatalf("toml not overlaid: %+v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	bad := cfg
	bad.Appliance.StatusPath = "/status"
	if err := bad.Validate(); err == nil {
		t.Fatalf("status path without placeholder must fail")
	}
	bad = cfg
	bad.Monitor.PollInterval = "-1s"
	if err := bad.Validate(); err == nil {
		t.Fatalf("negative poll interval must fail")
	}
	bad = cfg
	bad.Store.Driver = "redis"
	if err := bad.Validate(); err == nil {
		t.Fatalf("unknown driver must fail")
	}
	if _, err := config.New(""); err == nil {
		t.Fatalf("empty data dir must fail")
	}
}
