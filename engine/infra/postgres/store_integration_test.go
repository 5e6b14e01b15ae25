package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/msgboard/msgboard/engine/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startTestStore(ctx context.Context, t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("msgboard"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pgContainer.Terminate(terminateCtx); err != nil {
			t.Logf("Warning: failed to terminate container: %s", err)
		}
	})
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	store, err := NewStore(ctx, &Config{Alias: "primary", ConnString: connStr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestStore_Integration(t *testing.T) {
	t.Run("Should migrate and round-trip messages", func(t *testing.T) {
		ctx := context.Background()
		store := startTestStore(ctx, t)
		require.NoError(t, store.Migrate(ctx))
		// A second run is a no-op.
		require.NoError(t, store.Migrate(ctx))
		require.NoError(t, store.HealthCheck(ctx))

		repo := store.Messages()
		_, err := repo.Latest(ctx)
		assert.ErrorIs(t, err, message.ErrNotFound)
		for _, text := range []string{"first", "second", "third"} {
			require.NoError(t, repo.Create(ctx, &message.Message{Text: text}))
		}
		latest, err := repo.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "third", latest.Text)
		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		page, err := repo.List(ctx, 2, 1)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "second", page[0].Text)
		assert.Equal(t, "first", page[1].Text)
	})
}
