package billingsync

import "time"

// Config controls the report worker loop.
type Config struct {
	BatchSize    int
	PollInterval time.Duration
	RetryAfter   time.Duration
	RunTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:    50,
		PollInterval: 5 * time.Second,
		RetryAfter:   time.Minute,
		RunTimeout:   30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.RetryAfter <= 0 {
		c.RetryAfter = defaults.RetryAfter
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}
