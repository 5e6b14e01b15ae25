package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	t.Run("Should build DSN for file path with pragmas", func(t *testing.T) {
		d, inMemory, err := buildDSN(&Config{Path: "/tmp/test.db"})
		require.NoError(t, err)
		assert.False(t, inMemory)
		assert.Contains(t, d, "file:/tmp/test.db?")
		assert.Contains(t, d, "journal_mode%28WAL%29")
		assert.Contains(t, d, "foreign_keys%28ON%29")
		assert.Contains(t, d, "busy_timeout%285000%29")
	})
	t.Run("Should honor configured busy timeout", func(t *testing.T) {
		d, _, err := buildDSN(&Config{Path: "x.db", BusyTimeout: 250 * time.Millisecond})
		require.NoError(t, err)
		assert.Contains(t, d, "busy_timeout%28250%29")
	})
	t.Run("Should build DSN for in-memory database", func(t *testing.T) {
		d, inMemory, err := buildDSN(&Config{Path: ":memory:"})
		require.NoError(t, err)
		assert.True(t, inMemory)
		assert.True(t, strings.HasPrefix(d, "file:msgboard?"))
		assert.Contains(t, d, "mode=memory")
		assert.Contains(t, d, "cache=shared")
		assert.NotContains(t, d, "journal_mode")
	})
	t.Run("Should reject empty path", func(t *testing.T) {
		_, _, err := buildDSN(&Config{})
		assert.Error(t, err)
	})
}

func TestStore(t *testing.T) {
	t.Run("Should open, report identity and pass health check", func(t *testing.T) {
		ctx := context.Background()
		s, err := NewStore(ctx, &Config{Alias: "standby", Path: filepath.Join(t.TempDir(), "board.db")})
		require.NoError(t, err)
		defer s.Close(ctx)
		assert.Equal(t, "standby", s.Alias())
		assert.Equal(t, "sqlite", s.Driver())
		assert.NoError(t, s.HealthCheck(ctx))
	})
	t.Run("Should require config", func(t *testing.T) {
		_, err := NewStore(context.Background(), nil)
		assert.Error(t, err)
	})
}
