package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/msgboard/msgboard/engine/infra/postgres"
	"github.com/msgboard/msgboard/engine/infra/sqlite"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/sethvargo/go-retry"
)

const defaultRetryDelay = 500 * time.Millisecond

// Opener connects to one alias with a given driver.
type Opener func(ctx context.Context, alias string, node *config.NodeConfig) (Database, error)

var openers = map[string]Opener{
	config.DriverPostgres: openPostgres,
	config.DriverSQLite:   openSQLite,
}

func openPostgres(ctx context.Context, alias string, node *config.NodeConfig) (Database, error) {
	s, err := postgres.NewStore(ctx, &postgres.Config{
		Alias:             alias,
		ConnString:        node.ConnString,
		Host:              node.Host,
		Port:              node.Port,
		User:              node.User,
		Password:          node.Password.Value(),
		DBName:            node.DBName,
		SSLMode:           node.SSLMode,
		MaxOpenConns:      node.MaxOpenConns,
		MaxIdleConns:      node.MaxIdleConns,
		ConnMaxLifetime:   node.ConnMaxLifetime,
		ConnMaxIdleTime:   node.ConnMaxIdleTime,
		ConnectTimeout:    node.ConnectTimeout,
		PingTimeout:       node.PingTimeout,
		HealthCheckPeriod: node.HealthCheckPeriod,
	})
	if err != nil {
		return nil, err
	}
	return postgresDatabase{Store: s}, nil
}

func openSQLite(ctx context.Context, alias string, node *config.NodeConfig) (Database, error) {
	s, err := sqlite.NewStore(ctx, &sqlite.Config{
		Alias:           alias,
		Path:            node.Path,
		MaxOpenConns:    node.MaxOpenConns,
		MaxIdleConns:    node.MaxIdleConns,
		ConnMaxLifetime: node.ConnMaxLifetime,
		ConnMaxIdleTime: node.ConnMaxIdleTime,
		BusyTimeout:     node.BusyTimeout,
		PingTimeout:     node.PingTimeout,
	})
	if err != nil {
		return nil, err
	}
	return sqliteDatabase{Store: s}, nil
}

// RetryPolicy bounds how hard Open tries before giving up.
type RetryPolicy struct {
	Retries int
	Delay   time.Duration
}

// Open connects alias using driver, retrying with exponential backoff.
func Open(
	ctx context.Context,
	driver string,
	alias string,
	node *config.NodeConfig,
	policy RetryPolicy,
) (Database, error) {
	opener, ok := openers[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if node == nil {
		return nil, fmt.Errorf("database %q: node configuration is required", alias)
	}
	delay := policy.Delay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	retries := max(policy.Retries, 0)
	backoff := retry.WithMaxRetries(uint64(retries), retry.NewExponential(delay))
	log := logger.FromContext(ctx)
	attempt := 0
	var db Database
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		opened, err := opener(ctx, alias, node)
		if err != nil {
			log.Warn("Database connection failed",
				"alias", alias,
				"driver", driver,
				"attempt", attempt,
				"error", err)
			return retry.RetryableError(err)
		}
		db = opened
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", alias, err)
	}
	return db, nil
}
