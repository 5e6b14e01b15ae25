package store

import (
	"context"
	"fmt"

	"github.com/msgboard/msgboard/engine/dbrouter"
	"github.com/msgboard/msgboard/engine/infra/postgres"
	"github.com/msgboard/msgboard/engine/infra/sqlite"
	"github.com/msgboard/msgboard/engine/message"
	"github.com/msgboard/msgboard/pkg/config"
)

// PlanFor reports the migrate decision for every configured alias without
// opening any connection.
func PlanFor(ctx context.Context, cfg *config.DatabaseConfig, router *dbrouter.Chain) []MigrationStep {
	hints := hintsFor(ctx, "migrate")
	aliases := cfg.Aliases()
	steps := make([]MigrationStep, 0, len(aliases))
	for _, alias := range aliases {
		steps = append(steps, MigrationStep{
			Alias:   alias,
			Driver:  cfg.Driver,
			Allowed: router.AllowMigrate(alias, message.Group, "", hints),
		})
	}
	return steps
}

// MigrationFiles lists the embedded migrations shipped for driver.
func MigrationFiles(driver string) ([]string, error) {
	switch driver {
	case config.DriverPostgres:
		return postgres.Migrations()
	case config.DriverSQLite:
		return sqlite.Migrations()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}
