package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BUTLER_CONFIG_DIR", dir)
	for _, key := range []string{
		"BUTLER_API_BASE_URL",
		"BUTLER_LOG_LEVEL",
		"BUTLER_REQUEST_TIMEOUT_SECONDS",
		"BUTLER_POLL_ATTEMPTS",
		"BUTLER_POLL_INTERVAL_MS",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg := LoadConfig()
	if cfg.APIBaseURL != "http://127.0.0.1:5000/api" {
		t.Fatalf("unexpected APIBaseURL: %s", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.RequestTimeout)
	}
	if cfg.PollAttempts != 10 || cfg.PollInterval != 2*time.Second {
		t.Fatalf("unexpected poll config: %d %s", cfg.PollAttempts, cfg.PollInterval)
	}
	if cfg.ConfigDir != dir || cfg.DBPath != filepath.Join(dir, "butler.db") {
		t.Fatalf("unexpected paths: %s %s", cfg.ConfigDir, cfg.DBPath)
	}
	if cfg.FileErr != nil {
		t.Fatalf("unexpected file error: %v", cfg.FileErr)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Fatalf("config.toml should be initialized: %v", err)
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	dir := isolate(t)
	raw := "api_base_url = 'https://file.example.com/api'\nrequest_timeout_seconds = 12\nlog_level = 'warn'\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig()
	if cfg.APIBaseURL != "https://file.example.com/api" || cfg.RequestTimeout != 12*time.Second || cfg.LogLevel != "warn" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	raw := "api_base_url = 'https://file.example.com/api'\nrequest_timeout_seconds = 12\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BUTLER_API_BASE_URL", "http://env.example.com/api/")
	t.Setenv("BUTLER_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("BUTLER_LOG_LEVEL", "debug")
	t.Setenv("BUTLER_POLL_ATTEMPTS", "2")
	t.Setenv("BUTLER_POLL_INTERVAL_MS", "150")

	cfg := LoadConfig()
	if cfg.APIBaseURL != "http://env.example.com/api" {
		t.Fatalf("unexpected base url: %s", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.LogLevel != "debug" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.PollAttempts != 2 || cfg.PollInterval != 150*time.Millisecond {
		t.Fatalf("unexpected poll config: %+v", cfg)
	}
}

func TestLoadConfig_MalformedEnvFallsBack(t *testing.T) {
	isolate(t)
	t.Setenv("BUTLER_REQUEST_TIMEOUT_SECONDS", "abc")
	cfg := LoadConfig()
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("malformed timeout should fall back, got %s", cfg.RequestTimeout)
	}
}

func TestLoadConfig_BrokenFileUsesDefaults(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("api_base_url = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := LoadConfig()
	if cfg.FileErr == nil {
		t.Fatal("expected file error to be reported")
	}
	if cfg.APIBaseURL != "http://127.0.0.1:5000/api" {
		t.Fatalf("expected default base url, got %s", cfg.APIBaseURL)
	}
}

func TestGetConfig_UsesCacheWithinTTL(t *testing.T) {
	isolate(t)
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return base }
	t.Cleanup(func() { nowFunc = time.Now })

	t.Setenv("BUTLER_API_BASE_URL", "http://first/api")
	_ = LoadConfig()
	t.Setenv("BUTLER_API_BASE_URL", "http://second/api")

	if got := GetConfig().APIBaseURL; got != "http://first/api" {
		t.Fatalf("expected cached value, got %s", got)
	}
	nowFunc = func() time.Time { return base.Add(11 * time.Second) }
	if got := GetConfig().APIBaseURL; got != "http://second/api" {
		t.Fatalf("expected refreshed value, got %s", got)
	}
}
