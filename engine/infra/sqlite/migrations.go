package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations lists the embedded migration files in apply order.
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrationsFS, migrationsDir+"/*.sql")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// ApplyMigrations executes all embedded SQLite migrations against the database at dbPath.
func ApplyMigrations(ctx context.Context, dbPath string) error {
	cfg := &Config{Path: dbPath}
	dsn, _, err := buildDSN(cfg)
	if err != nil {
		return fmt.Errorf("sqlite: prepare migrations dsn: %w", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("sqlite: open database for migrations: %w", err)
	}
	defer db.Close()
	if err := applyBusyTimeout(ctx, db, cfg); err != nil {
		return err
	}
	return RunMigrationsForDB(ctx, db)
}

// RunMigrationsForDB applies migrations on an existing *sql.DB.
func RunMigrationsForDB(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, migrationsDir)
	if err != nil {
		return fmt.Errorf("sqlite: open migrations dir: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys, goose.WithLogger(goose.NopLogger()))
	if err != nil {
		return fmt.Errorf("sqlite: create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("sqlite: apply migrations: %w", err)
	}
	return nil
}
