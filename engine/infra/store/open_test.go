package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/msgboard/msgboard/engine/message"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("Should reject unsupported drivers", func(t *testing.T) {
		_, err := Open(context.Background(), "mysql", "primary", &config.NodeConfig{}, RetryPolicy{})
		assert.ErrorIs(t, err, ErrUnsupportedDriver)
	})

	t.Run("Should retry until the opener succeeds", func(t *testing.T) {
		attempts := 0
		orig := openers["flaky"]
		openers["flaky"] = func(_ context.Context, alias string, _ *config.NodeConfig) (Database, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("not yet")
			}
			return newFakeDatabase(alias), nil
		}
		t.Cleanup(func() {
			if orig == nil {
				delete(openers, "flaky")
				return
			}
			openers["flaky"] = orig
		})
		db, err := Open(context.Background(), "flaky", "primary", &config.NodeConfig{},
			RetryPolicy{Retries: 5, Delay: time.Millisecond})
		require.NoError(t, err)
		assert.Equal(t, "primary", db.Alias())
		assert.Equal(t, 3, attempts)
	})

	t.Run("Should give up after the configured retries", func(t *testing.T) {
		attempts := 0
		openers["broken"] = func(context.Context, string, *config.NodeConfig) (Database, error) {
			attempts++
			return nil, errors.New("down")
		}
		t.Cleanup(func() { delete(openers, "broken") })
		_, err := Open(context.Background(), "broken", "standby", &config.NodeConfig{},
			RetryPolicy{Retries: 2, Delay: time.Millisecond})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "down")
		assert.Equal(t, 3, attempts)
	})
}

func TestOpenCluster(t *testing.T) {
	t.Run("Should open a SQLite cluster that routes and migrates", func(t *testing.T) {
		ctx := context.Background()
		cfg := config.Default()
		path := filepath.Join(t.TempDir(), "board.db")
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Primary.Path = path
		cfg.Database.Standby.Path = path
		router, err := NewRouter(&cfg.Database)
		require.NoError(t, err)
		c, err := OpenCluster(ctx, &cfg.Database, router)
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close(ctx) })

		report, err := c.Migrate(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"primary"}, report.Applied)
		assert.Equal(t, []string{"standby"}, report.Skipped)

		require.NoError(t, c.Create(ctx, &message.Message{Text: "shared file"}))
		latest, err := c.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "shared file", latest.Text)
		assert.NoError(t, c.HealthCheck(ctx))
	})

	t.Run("Should read back from the standby when both aliases are in memory", func(t *testing.T) {
		ctx := context.Background()
		cfg := config.Default()
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Primary.Path = ":memory:"
		cfg.Database.Standby.Path = ":memory:"
		router, err := NewRouter(&cfg.Database)
		require.NoError(t, err)
		c, err := OpenCluster(ctx, &cfg.Database, router)
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close(ctx) })

		report, err := c.Migrate(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"primary"}, report.Applied)

		require.NoError(t, c.Create(ctx, &message.Message{Text: "in memory"}))
		reader, err := c.ForRead(ctx, message.Model, nil)
		require.NoError(t, err)
		assert.Equal(t, "standby", reader.Alias())
		latest, err := c.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "in memory", latest.Text)
		count, err := c.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Should fail for unknown routers", func(t *testing.T) {
		cfg := config.Default()
		cfg.Database.Routers = []string{"nope"}
		_, err := NewRouter(&cfg.Database)
		assert.Error(t, err)
	})
}
