package config

import (
	"fmt"
	"time"
)

// Config is the full set of environment-driven options for both the
// jobqueue-server and jobqueue-worker binaries. Server-only fields are
// harmless to load in the worker process and vice versa: each cmd only
// reads the fields it needs.
type Config struct {
	// DatabaseURL is a sqlite:// or postgres:// DSN; the scheme picks the
	// dialect (see the sql package's Open).
	DatabaseURL string `env:"DATABASE_URL"`

	WorkerPoolSize           int `env:"WORKER_POOL_SIZE"`
	WorkerLeaseTTLSeconds    int `env:"WORKER_LEASE_TTL_SECONDS"`
	WorkerPollIntervalSecond int `env:"WORKER_POLL_INTERVAL_SECONDS"`

	// WorkerMaxRetries is the retry ceiling applied to a submission that
	// omits max_retries, fed into JobService's default-retry resolution.
	// It has nothing to do with poll backoff; see PollBackoffMaxRetries.
	WorkerMaxRetries int `env:"WORKER_MAX_RETRIES"`

	// PollBackoffMaxRetries bounds the exponential backoff applied
	// between poll attempts after a Store infrastructure error, distinct
	// from the job retry ladder WorkerMaxRetries feeds.
	PollBackoffMaxRetries int `env:"POLL_BACKOFF_MAX_RETRIES"`

	HTTPAddr string `env:"HTTP_ADDR"`
}

// defaults mirrors the configuration table: every field left unset in
// the environment falls back to these values before Load parses
// overrides on top of them.
func defaults() Config {
	return Config{
		DatabaseURL:              "sqlite://jobqueue.db",
		WorkerPoolSize:           4,
		WorkerLeaseTTLSeconds:    300,
		WorkerPollIntervalSecond: 1,
		WorkerMaxRetries:         3,
		PollBackoffMaxRetries:    5,
		HTTPAddr:                 ":8080",
	}
}

// Load reads Config from the process environment, starting from
// defaults() and overriding any field whose env var is set.
func Load() (*Config, error) {
	cfg := defaults()
	if err := load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the constraints Load's callers rely on: a
// DATABASE_URL must be set, a worker pool needs at least one worker, the
// lease TTL and poll interval must be at least one second, and the retry
// fields must be non-negative.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.WorkerPoolSize < 1 {
		return fmt.Errorf("config: WORKER_POOL_SIZE must be at least 1, got %d", c.WorkerPoolSize)
	}
	if c.WorkerLeaseTTLSeconds < 1 {
		return fmt.Errorf("config: WORKER_LEASE_TTL_SECONDS must be positive, got %d", c.WorkerLeaseTTLSeconds)
	}
	if c.WorkerMaxRetries < 0 {
		return fmt.Errorf("config: WORKER_MAX_RETRIES must not be negative, got %d", c.WorkerMaxRetries)
	}
	if c.PollBackoffMaxRetries < 0 {
		return fmt.Errorf("config: POLL_BACKOFF_MAX_RETRIES must not be negative, got %d", c.PollBackoffMaxRetries)
	}
	if c.WorkerPollIntervalSecond < 1 {
		return fmt.Errorf("config: WORKER_POLL_INTERVAL_SECONDS must be positive, got %d", c.WorkerPollIntervalSecond)
	}
	return nil
}

// LeaseTTL returns WorkerLeaseTTLSeconds as a time.Duration.
func (c *Config) LeaseTTL() time.Duration {
	return time.Duration(c.WorkerLeaseTTLSeconds) * time.Second
}

// PollInterval returns WorkerPollIntervalSecond as a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.WorkerPollIntervalSecond) * time.Second
}
