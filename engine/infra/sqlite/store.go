package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/msgboard/msgboard/pkg/logger"
	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"
)

// Store owns a database/sql pool over one SQLite file.
type Store struct {
	cfg      Config
	db       *sql.DB
	messages *MessageRepo
}

// NewStore opens the database and verifies it responds.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sqlite: config is required")
	}
	dsn, inMemory, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	configurePool(db, cfg, inMemory)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout(cfg))
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if err := applyBusyTimeout(ctx, db, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.FromContext(ctx).With(
		"store_driver", "sqlite",
		"alias", cfg.Alias,
		"path", cfg.Path,
	).Info("Store initialized")
	return &Store{cfg: *cfg, db: db, messages: NewMessageRepo(db)}, nil
}

func (s *Store) Alias() string { return s.cfg.Alias }

func (s *Store) Driver() string { return "sqlite" }

func (s *Store) Messages() *MessageRepo { return s.messages }

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate applies the embedded migrations through this store's pool.
func (s *Store) Migrate(ctx context.Context) error {
	return RunMigrationsForDB(ctx, s.db)
}

func (s *Store) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout(&s.cfg))
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("sqlite: health check: %w", err)
	}
	return nil
}

func (s *Store) Close(_ context.Context) error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sqlite: close: %w", err)
	}
	return nil
}

// buildDSN returns a modernc DSN with the pragmas every connection needs.
func buildDSN(cfg *Config) (string, bool, error) {
	if cfg.Path == "" {
		return "", false, fmt.Errorf("sqlite: path is required")
	}
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout(cfg).Milliseconds()))
	params.Add("_pragma", "foreign_keys(ON)")
	if cfg.InMemory() {
		// Aliases that name :memory: share one database for the life of the
		// process, so a write on one alias is visible on the others.
		params.Add("_pragma", "read_uncommitted(1)")
		params.Set("mode", "memory")
		params.Set("cache", "shared")
		return "file:" + sharedMemoryName + "?" + params.Encode(), true, nil
	}
	params.Add("_pragma", "journal_mode(WAL)")
	return "file:" + cfg.Path + "?" + params.Encode(), false, nil
}

func configurePool(db *sql.DB, cfg *Config, inMemory bool) {
	if inMemory {
		// One connection per alias keeps shared-cache table locks short.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}
	maxOpen := defaultMaxConns
	if cfg.MaxOpenConns > 0 {
		maxOpen = cfg.MaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(min(cfg.MaxIdleConns, maxOpen))
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func applyBusyTimeout(ctx context.Context, db *sql.DB, cfg *Config) error {
	stmt := fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout(cfg).Milliseconds())
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: set busy timeout: %w", err)
	}
	return nil
}
