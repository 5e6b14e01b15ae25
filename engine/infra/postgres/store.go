package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/msgboard/msgboard/pkg/logger"
)

const (
	defaultMaxConns           = 20
	defaultMinConns           = 0
	defaultHealthCheckPeriod  = 30 * time.Second
	defaultConnectTimeout     = 5 * time.Second
	defaultPingTimeout        = 3 * time.Second
	defaultHealthCheckTimeout = 1 * time.Second
)

// Store is the PostgreSQL driver for one alias, backed by pgxpool.Pool.
type Store struct {
	cfg                Config
	pool               *pgxpool.Pool
	metrics            *poolMetrics
	messages           *MessageRepo
	healthCheckTimeout time.Duration
}

// NewStore opens the pool and pings it before returning.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres: config is required")
	}
	poolCfg, metricsTracker, err := buildPoolConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := verifyPoolConnection(ctx, pool, metricsTracker, cfg.PingTimeout); err != nil {
		return nil, err
	}
	metricsTracker.attach(pool)
	healthCheckTimeout := defaultHealthCheckTimeout
	if cfg.HealthCheckTimeout > 0 {
		healthCheckTimeout = cfg.HealthCheckTimeout
	}
	logStoreInitialization(ctx, cfg, poolCfg.MaxConns, poolCfg.MinConns)
	return &Store{
		cfg:                *cfg,
		pool:               pool,
		metrics:            metricsTracker,
		messages:           NewMessageRepo(pool),
		healthCheckTimeout: healthCheckTimeout,
	}, nil
}

// Alias returns the database alias this store serves.
func (s *Store) Alias() string { return s.cfg.Alias }

// Driver identifies the backend.
func (s *Store) Driver() string { return "postgres" }

// Messages returns the message repository bound to this pool.
func (s *Store) Messages() *MessageRepo { return s.messages }

// Pool exposes the pool for driver-local usage.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate applies the embedded migrations under an advisory lock.
func (s *Store) Migrate(ctx context.Context) error {
	return ApplyMigrationsWithLock(ctx, s.cfg.DSN())
}

// Close shuts down the connection pool.
func (s *Store) Close(ctx context.Context) error {
	s.metrics.unregister()
	s.pool.Close()
	logger.FromContext(ctx).Info("Postgres store closed", "alias", s.cfg.Alias)
	return nil
}

// HealthCheck verifies the connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, s.healthCheckTimeout)
	defer cancel()
	if err := s.pool.Ping(hctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

// clampIntToInt32WithLimit clamps value to [0, limit] and int32 bounds.
func clampIntToInt32WithLimit(value int, limit int32) int32 {
	if value <= 0 || limit <= 0 {
		return 0
	}
	if value >= int(limit) {
		return limit
	}
	return int32(value)
}

func buildPoolConfig(ctx context.Context, cfg *Config) (*pgxpool.Config, *poolMetrics, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	metricsTracker, mErr := configurePostgresMetrics(cfg, poolCfg)
	if mErr != nil {
		logger.FromContext(ctx).With("err", mErr).Warn("Postgres metrics not initialized; continuing without metrics")
	}
	poolCfg.MaxConns, poolCfg.MinConns = deriveConnectionBounds(cfg)
	poolCfg.HealthCheckPeriod = defaultHealthCheckPeriod
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	return poolCfg, metricsTracker, nil
}

// deriveConnectionBounds maps MaxOpenConns/MaxIdleConns onto pool max/min.
func deriveConnectionBounds(cfg *Config) (int32, int32) {
	maxConns := int32(defaultMaxConns)
	if cfg.MaxOpenConns > 0 {
		maxConns = clampIntToInt32WithLimit(cfg.MaxOpenConns, math.MaxInt32)
	}
	minConns := int32(defaultMinConns)
	if cfg.MaxIdleConns > 0 {
		minConns = clampIntToInt32WithLimit(cfg.MaxIdleConns, maxConns)
	}
	return maxConns, minConns
}

func verifyPoolConnection(
	ctx context.Context,
	pool *pgxpool.Pool,
	metricsTracker *poolMetrics,
	pingTimeout time.Duration,
) error {
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		metricsTracker.unregister()
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

func logStoreInitialization(ctx context.Context, cfg *Config, maxConns int32, minConns int32) {
	logger.FromContext(ctx).With(
		"store_driver", "postgres",
		"alias", cfg.Alias,
		"host", cfg.Host,
		"port", cfg.Port,
		"db_name", cfg.DBName,
		"ssl_mode", cfg.SSLMode,
		"max_conns", maxConns,
		"min_conns", minConns,
	).Info("Store initialized")
}
