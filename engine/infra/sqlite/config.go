package sqlite

import "time"

const (
	memoryPath         = ":memory:"
	sharedMemoryName   = "msgboard"
	defaultBusyTimeout = 5 * time.Second
	defaultPingTimeout = 5 * time.Second
	defaultMaxConns    = 10
)

// Config describes one SQLite-backed alias. Zero durations and pool sizes
// fall back to package defaults.
type Config struct {
	Alias string
	// Path is a file path or ":memory:". Every ":memory:" alias in the
	// process opens the same shared in-memory database.
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	BusyTimeout     time.Duration
	PingTimeout     time.Duration
}

// InMemory reports whether the alias lives in the shared in-memory database.
func (c *Config) InMemory() bool {
	return c.Path == memoryPath
}

func busyTimeout(cfg *Config) time.Duration {
	if cfg.BusyTimeout > 0 {
		return cfg.BusyTimeout
	}
	return defaultBusyTimeout
}

func pingTimeout(cfg *Config) time.Duration {
	if cfg.PingTimeout > 0 {
		return cfg.PingTimeout
	}
	return defaultPingTimeout
}
