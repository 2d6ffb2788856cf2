package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// validConfigYAML overrides a few defaults and leaves the rest untouched.
const validConfigYAML = `
worklist:
  path: "poems.csv"
cache:
  dir: "/tmp/poem-cache"
fetcher:
  retry:
    max_attempts: 4
    initial_delay_ms: 100
    max_delay_ms: 5000
    backoff_multiplier: 2.0
    jitter: 0
    timeout_sec: 10
  min_interval_ms: 250
store:
  dir: "/tmp/poem-records"
coding:
  coder_id: "c1"
  tag_set: "top50"
logging:
  level: "debug"
`

func TestLoadConfig_Valid(t *testing.T) {
	configPath := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Worklist.Path != "poems.csv" {
		t.Errorf("Expected worklist path 'poems.csv', got '%s'", cfg.Worklist.Path)
	}

	if cfg.Fetcher.Retry.MaxAttempts != 4 {
		t.Errorf("Expected MaxAttempts 4, got %d", cfg.Fetcher.Retry.MaxAttempts)
	}

	if cfg.Fetcher.MinInterval() != 250*time.Millisecond {
		t.Errorf("Expected MinInterval 250ms, got %v", cfg.Fetcher.MinInterval())
	}

	if cfg.Coding.CoderID != "c1" || cfg.Coding.TagSet != "top50" {
		t.Errorf("Unexpected coding config: %+v", cfg.Coding)
	}

	// Defaults survive partial files
	if cfg.Store.LogFile != "codings.jsonl" {
		t.Errorf("Expected default log file, got '%s'", cfg.Store.LogFile)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got '%s'", cfg.Logging.Format)
	}

	if cfg.Store.LogPath() != filepath.Join("/tmp/poem-records", "codings.jsonl") {
		t.Errorf("Unexpected log path %s", cfg.Store.LogPath())
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "invalid: yaml: content: [}")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	configPath := createTempConfigFile(t, "logging:\n  level: verbose\n")

	_, err := LoadConfig(configPath)
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Fatalf("Expected ErrInvalidLogLevel, got %v", err)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default config should validate, got %v", err)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:    "zero max attempts",
			mutate:  func(c *Config) { c.Fetcher.Retry.MaxAttempts = 0 },
			wantErr: ErrInvalidMaxAttempts,
		},
		{
			name:    "negative initial delay",
			mutate:  func(c *Config) { c.Fetcher.Retry.InitialDelayMs = -1 },
			wantErr: ErrInvalidInitialDelay,
		},
		{
			name:    "max delay below initial",
			mutate:  func(c *Config) { c.Fetcher.Retry.MaxDelayMs = 10 },
			wantErr: ErrInvalidMaxDelay,
		},
		{
			name:    "backoff multiplier below one",
			mutate:  func(c *Config) { c.Fetcher.Retry.BackoffMultiplier = 0.5 },
			wantErr: ErrInvalidBackoffMultiplier,
		},
		{
			name:    "jitter above one",
			mutate:  func(c *Config) { c.Fetcher.Retry.Jitter = 1.5 },
			wantErr: ErrInvalidJitter,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Fetcher.Retry.TimeoutSec = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative interval",
			mutate:  func(c *Config) { c.Fetcher.MinIntervalMs = -5 },
			wantErr: ErrInvalidMinInterval,
		},
		{
			name:    "missing cache dir",
			mutate:  func(c *Config) { c.Cache.Dir = " " },
			wantErr: ErrMissingCacheDir,
		},
		{
			name:    "missing store dir",
			mutate:  func(c *Config) { c.Store.Dir = "" },
			wantErr: ErrMissingStoreDir,
		},
		{
			name:    "snapshot equals log",
			mutate:  func(c *Config) { c.Store.SnapshotFile = c.Store.LogFile },
			wantErr: ErrSameLogAndSnapshot,
		},
		{
			name:    "unknown tag set",
			mutate:  func(c *Config) { c.Coding.TagSet = "top5" },
			wantErr: ErrInvalidTagSet,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: ErrInvalidLogFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := RetryPolicy{
		MaxAttempts:       5,
		InitialDelayMs:    100,
		MaxDelayMs:        1000,
		BackoffMultiplier: 2.0,
		TimeoutSec:        30,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1000 * time.Millisecond}, // capped
		{9, 1000 * time.Millisecond},
	}

	for _, tt := range tests {
		got := rp.GetRetryDelay(tt.attempt)
		if got != tt.expected {
			t.Errorf("GetRetryDelay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestRetryPolicy_GetTimeout(t *testing.T) {
	rp := RetryPolicy{TimeoutSec: 45}

	if rp.GetTimeout() != 45*time.Second {
		t.Errorf("Expected 45s timeout, got %v", rp.GetTimeout())
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		EnvCoderID:  " coder-7 ",
		EnvCacheDir: "/var/cache/poems",
		EnvLogLevel: "",
	}

	cfg.ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	if cfg.Coding.CoderID != "coder-7" {
		t.Errorf("Expected coder id override, got '%s'", cfg.Coding.CoderID)
	}

	if cfg.Cache.Dir != "/var/cache/poems" {
		t.Errorf("Expected cache dir override, got '%s'", cfg.Cache.Dir)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Blank env value should not override, got '%s'", cfg.Logging.Level)
	}
}

func TestConfig_SaveConfig_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Coding.CoderID = "saved"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Coding.CoderID != "saved" {
		t.Errorf("Expected coder id 'saved', got '%s'", loaded.Coding.CoderID)
	}
}
