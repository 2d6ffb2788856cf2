// Package config provides configuration management for the poem coding pipeline.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidMaxAttempts       = errors.New("fetcher.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("fetcher.retry.initial_delay_ms must be non-negative")
	ErrInvalidMaxDelay          = errors.New("fetcher.retry.max_delay_ms must be >= initial_delay_ms")
	ErrInvalidBackoffMultiplier = errors.New("fetcher.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidJitter            = errors.New("fetcher.retry.jitter must be between 0 and 1")
	ErrInvalidTimeout           = errors.New("fetcher.retry.timeout_sec must be at least 1")
	ErrInvalidMinInterval       = errors.New("fetcher.min_interval_ms must be non-negative")
	ErrMissingCacheDir          = errors.New("cache.dir is required")
	ErrMissingStoreDir          = errors.New("store.dir is required")
	ErrMissingLogFile           = errors.New("store.log_file is required")
	ErrMissingSnapshotFile      = errors.New("store.snapshot_file is required")
	ErrSameLogAndSnapshot       = errors.New("store.log_file and store.snapshot_file must differ")
	ErrInvalidLockTimeout       = errors.New("store.lock_timeout_ms must be non-negative")
	ErrInvalidTagSet            = errors.New("coding.tag_set must be one of: top20, top50, all")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'text' or 'json'")
)

// Environment variables that override file values.
const (
	EnvCoderID  = "POEMCODER_CODER_ID"
	EnvWorklist = "POEMCODER_WORKLIST"
	EnvCacheDir = "POEMCODER_CACHE_DIR"
	EnvStoreDir = "POEMCODER_STORE_DIR"
	EnvLogLevel = "POEMCODER_LOG_LEVEL"
)

// Config represents the complete configuration.
type Config struct {
	Worklist WorklistConfig `yaml:"worklist"`
	Cache    CacheConfig    `yaml:"cache"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Store    StoreConfig    `yaml:"store"`
	Coding   CodingConfig   `yaml:"coding"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WorklistConfig locates the input table.
type WorklistConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig locates the HTML cache.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// FetcherConfig contains network settings.
type FetcherConfig struct {
	UserAgent        string      `yaml:"user_agent"`
	Retry            RetryPolicy `yaml:"retry"`
	MinIntervalMs    int         `yaml:"min_interval_ms"`
	CloudflareBypass bool        `yaml:"cloudflare_bypass"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	Jitter            float64 `yaml:"jitter"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// StoreConfig locates the coding log and its snapshot.
type StoreConfig struct {
	Dir           string `yaml:"dir"`
	LogFile       string `yaml:"log_file"`
	SnapshotFile  string `yaml:"snapshot_file"`
	LockTimeoutMs int    `yaml:"lock_timeout_ms"`
}

// CodingConfig holds per-coder defaults.
type CodingConfig struct {
	CoderID string `yaml:"coder_id"`
	TagSet  string `yaml:"tag_set"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Worklist: WorklistConfig{Path: "poets.csv"},
		Cache:    CacheConfig{Dir: filepath.Join("data", "html_cache")},
		Fetcher: FetcherConfig{
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    1000,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				Jitter:            0.1,
				TimeoutSec:        30,
			},
			MinIntervalMs: 1000,
		},
		Store: StoreConfig{
			Dir:           filepath.Join("data", "coding_records"),
			LogFile:       "codings.jsonl",
			SnapshotFile:  "codings.csv",
			LockTimeoutMs: 2000,
		},
		Coding:  CodingConfig{TagSet: "top20"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides values from POEMCODER_* variables. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}

	set(EnvCoderID, &c.Coding.CoderID)
	set(EnvWorklist, &c.Worklist.Path)
	set(EnvCacheDir, &c.Cache.Dir)
	set(EnvStoreDir, &c.Store.Dir)
	set(EnvLogLevel, &c.Logging.Level)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Fetcher.Retry.Validate(); err != nil {
		return err
	}

	if c.Fetcher.MinIntervalMs < 0 {
		return ErrInvalidMinInterval
	}

	if strings.TrimSpace(c.Cache.Dir) == "" {
		return ErrMissingCacheDir
	}

	if strings.TrimSpace(c.Store.Dir) == "" {
		return ErrMissingStoreDir
	}

	if strings.TrimSpace(c.Store.LogFile) == "" {
		return ErrMissingLogFile
	}

	if strings.TrimSpace(c.Store.SnapshotFile) == "" {
		return ErrMissingSnapshotFile
	}

	if c.Store.LogFile == c.Store.SnapshotFile {
		return ErrSameLogAndSnapshot
	}

	if c.Store.LockTimeoutMs < 0 {
		return ErrInvalidLockTimeout
	}

	validTagSets := map[string]bool{"top20": true, "top50": true, "all": true}
	if !validTagSets[c.Coding.TagSet] {
		return fmt.Errorf("%w: got %q", ErrInvalidTagSet, c.Coding.TagSet)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// Validate checks the retry policy bounds.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if rp.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if rp.MaxDelayMs < rp.InitialDelayMs {
		return ErrInvalidMaxDelay
	}

	if rp.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if rp.Jitter < 0 || rp.Jitter > 1 {
		return ErrInvalidJitter
	}

	if rp.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

// GetRetryDelay returns the backoff after the given failed attempt (1-based):
// initial * multiplier^(attempt-1), capped at the max delay. Jitter is not applied.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs) * math.Pow(rp.BackoffMultiplier, float64(attempt-1))

	// Cap at max delay
	if delayMs > float64(rp.MaxDelayMs) {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(delayMs) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// MinInterval returns the minimum gap between two network requests.
func (f *FetcherConfig) MinInterval() time.Duration {
	return time.Duration(f.MinIntervalMs) * time.Millisecond
}

// LockTimeout returns how long snapshot regeneration waits for the lock.
func (s *StoreConfig) LockTimeout() time.Duration {
	return time.Duration(s.LockTimeoutMs) * time.Millisecond
}

// LogPath returns the JSONL log location.
func (s *StoreConfig) LogPath() string {
	return filepath.Join(s.Dir, s.LogFile)
}

// SnapshotPath returns the CSV snapshot location.
func (s *StoreConfig) SnapshotPath() string {
	return filepath.Join(s.Dir, s.SnapshotFile)
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Worklist: %s, Cache: %s, Store: %s, MaxAttempts: %d}",
		c.Worklist.Path,
		c.Cache.Dir,
		c.Store.Dir,
		c.Fetcher.Retry.MaxAttempts,
	)
}
