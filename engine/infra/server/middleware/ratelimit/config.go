package ratelimit

import (
	"fmt"
	"time"

	"github.com/ulule/limiter/v3"
)

// Config represents rate limiting configuration.
type Config struct {
	// GlobalRate applies to every request not excluded below.
	GlobalRate RateConfig
	// PostRate applies to message submissions only.
	PostRate RateConfig

	Prefix   string
	MaxRetry int

	DisableHeaders bool

	ExcludedPaths []string
}

// RateConfig represents a single rate limit. A zero Limit disables it.
type RateConfig struct {
	Period time.Duration
	Limit  int64
}

// Enabled reports whether the rate should be enforced.
func (rc RateConfig) Enabled() bool {
	return rc.Limit > 0
}

// DefaultConfig returns default rate limiting configuration.
func DefaultConfig() *Config {
	return &Config{
		GlobalRate: RateConfig{Limit: 100, Period: time.Minute},
		PostRate:   RateConfig{Limit: 10, Period: time.Minute},
		Prefix:     "msgboard:ratelimit:",
		MaxRetry:   3,
		ExcludedPaths: []string{
			"/healthz",
			"/readyz",
			"/metrics",
			"/api/v0/health",
		},
	}
}

// ToLimiterRate converts RateConfig to limiter.Rate.
func (rc RateConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{
		Period: rc.Period,
		Limit:  rc.Limit,
	}
}

func (c *Config) Validate() error {
	for name, rate := range map[string]RateConfig{"global": c.GlobalRate, "post": c.PostRate} {
		if rate.Limit < 0 {
			return fmt.Errorf("%s rate limit cannot be negative", name)
		}
		if rate.Enabled() && rate.Period <= 0 {
			return fmt.Errorf("%s rate period must be positive", name)
		}
	}
	return nil
}
