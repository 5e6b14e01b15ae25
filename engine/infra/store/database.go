package store

import (
	"context"
	"errors"

	"github.com/msgboard/msgboard/engine/infra/postgres"
	"github.com/msgboard/msgboard/engine/infra/sqlite"
	"github.com/msgboard/msgboard/engine/message"
)

var (
	// ErrUnknownDatabase is returned when a routing decision names an alias
	// that has no open database.
	ErrUnknownDatabase = errors.New("unknown database alias")
	// ErrUnsupportedDriver is returned for a driver name with no opener.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Database is one open database alias.
type Database interface {
	Alias() string
	Driver() string
	Messages() message.Repository
	Migrate(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type postgresDatabase struct {
	*postgres.Store
}

func (d postgresDatabase) Messages() message.Repository { return d.Store.Messages() }

type sqliteDatabase struct {
	*sqlite.Store
}

func (d sqliteDatabase) Messages() message.Repository { return d.Store.Messages() }
