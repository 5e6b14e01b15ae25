package monitoring

import (
	"fmt"
	"strings"

	"github.com/msgboard/msgboard/pkg/config"
)

// Config holds configuration for the monitoring service.
type Config struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled: false,
		Path:    "/metrics",
	}
}

// FromAppConfig maps the application monitoring settings.
func FromAppConfig(cfg *config.MonitoringConfig) *Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	out.Enabled = cfg.Enabled
	if cfg.Path != "" {
		out.Path = cfg.Path
	}
	return out
}

func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("monitoring path cannot be empty")
	}
	if c.Path[0] != '/' {
		return fmt.Errorf("monitoring path must start with '/': got %s", c.Path)
	}
	if strings.HasPrefix(c.Path, "/api/") {
		return fmt.Errorf("monitoring path cannot be under /api/")
	}
	if strings.ContainsRune(c.Path, '?') {
		return fmt.Errorf("monitoring path cannot contain query parameters")
	}
	return nil
}
