package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/msgboard/msgboard/engine/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMigratedStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := NewStore(ctx, &Config{Alias: "primary", Path: filepath.Join(t.TempDir(), "msgs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestMessageRepo(t *testing.T) {
	t.Run("Should report ErrNotFound on empty board", func(t *testing.T) {
		repo := newMigratedStore(t).Messages()
		_, err := repo.Latest(context.Background())
		assert.ErrorIs(t, err, message.ErrNotFound)
		total, err := repo.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("Should assign id and timestamp on create", func(t *testing.T) {
		repo := newMigratedStore(t).Messages()
		msg := &message.Message{Text: "hello"}
		require.NoError(t, repo.Create(context.Background(), msg))
		assert.Equal(t, int64(1), msg.ID)
		assert.False(t, msg.CreatedAt.IsZero())
		latest, err := repo.Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "hello", latest.Text)
		assert.Equal(t, msg.ID, latest.ID)
		assert.WithinDuration(t, msg.CreatedAt, latest.CreatedAt, time.Millisecond)
	})

	t.Run("Should list newest first with limit and offset", func(t *testing.T) {
		ctx := context.Background()
		repo := newMigratedStore(t).Messages()
		base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		for i, text := range []string{"a", "b", "c", "d"} {
			msg := &message.Message{Text: text, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
			require.NoError(t, repo.Create(ctx, msg))
		}
		page, err := repo.List(ctx, 2, 1)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "c", page[0].Text)
		assert.Equal(t, "b", page[1].Text)
		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		empty, err := repo.List(ctx, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
