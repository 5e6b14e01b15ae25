package config

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIProvider_Load(t *testing.T) {
	t.Run("Should map registry flags to configuration paths", func(t *testing.T) {
		provider := NewCLIProvider(map[string]any{
			"host":                   "cli.example.com",
			"port":                   6001,
			"db-driver":              "postgres",
			"db-routers":             []string{"pinned", "replica"},
			"db-standby-conn-string": "postgres://standby/msgboard",
			"page-size":              20,
			"not-a-config-flag":      true,
		})

		data, err := provider.Load()
		require.NoError(t, err)

		server, ok := data["server"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "cli.example.com", server["host"])
		assert.Equal(t, 6001, server["port"])

		database, ok := data["database"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "postgres", database["driver"])
		assert.Equal(t, []string{"pinned", "replica"}, database["routers"])
		standby, ok := database["standby"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "postgres://standby/msgboard", standby["conn_string"])

		board, ok := data["board"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 20, board["page_size"])
		assert.NotContains(t, data, "not-a-config-flag")
	})

	t.Run("Should handle nil flags gracefully", func(t *testing.T) {
		data, err := NewCLIProvider(nil).Load()
		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Empty(t, data)
	})

	t.Run("Should report its type and ignore watching", func(t *testing.T) {
		provider := NewCLIProvider(nil)
		assert.Equal(t, SourceCLI, provider.Type())
		assert.NoError(t, provider.Watch(t.Context(), func() {}))
		assert.NoError(t, provider.Close())
	})
}

func TestSetNested(t *testing.T) {
	t.Run("Should set value in nested map structure", func(t *testing.T) {
		m := make(map[string]any)
		require.NoError(t, setNested(m, "server.host", "test.example.com"))
		require.NoError(t, setNested(m, "database.primary.host", "db.example.com"))

		server, ok := m["server"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "test.example.com", server["host"])
		database, ok := m["database"].(map[string]any)
		require.True(t, ok)
		primary, ok := database["primary"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "db.example.com", primary["host"])
	})

	t.Run("Should return error on structure conflicts", func(t *testing.T) {
		m := map[string]any{"server": "not-a-map"}
		err := setNested(m, "server.host", "should-not-be-set")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration conflict: key \"server\" is not a map")
		assert.Equal(t, "not-a-map", m["server"])
	})

	t.Run("Should handle empty path", func(t *testing.T) {
		m := make(map[string]any)
		assert.NoError(t, setNested(m, "", "value"))
		assert.Empty(t, m)
	})
}

func TestYAMLProvider_Load(t *testing.T) {
	t.Run("Should load configuration from YAML file", func(t *testing.T) {
		yamlPath := filepath.Join(t.TempDir(), "msgboard.yaml")
		content := `
server:
  port: 9090
database:
  driver: postgres
  routers: [pinned, replica]
  standby:
    host: replica.internal
    password:
`
		require.NoError(t, os.WriteFile(yamlPath, []byte(content), 0o644))

		data, err := NewYAMLProvider(yamlPath).Load()
		require.NoError(t, err)

		server, ok := data["server"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 9090, server["port"])
		database, ok := data["database"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "postgres", database["driver"])
		assert.Equal(t, []any{"pinned", "replica"}, database["routers"])
		standby, ok := database["standby"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "replica.internal", standby["host"])
		assert.NotContains(t, standby, "password")
	})

	t.Run("Should return empty config for non-existent file", func(t *testing.T) {
		data, err := NewYAMLProvider("/non/existent/path.yaml").Load()
		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Empty(t, data)
	})

	t.Run("Should return error for invalid YAML", func(t *testing.T) {
		yamlPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(yamlPath, []byte("invalid: yaml: content: ["), 0o644))

		data, err := NewYAMLProvider(yamlPath).Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML file")
		assert.Nil(t, data)
	})
}

func TestYAMLProvider_Watch(t *testing.T) {
	t.Run("Should refuse to watch a missing file", func(t *testing.T) {
		provider := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, provider.Watch(t.Context(), func() {}))
	})

	t.Run("Should notify every registered callback on change", func(t *testing.T) {
		yamlPath := filepath.Join(t.TempDir(), "msgboard.yaml")
		require.NoError(t, os.WriteFile(yamlPath, []byte("server:\n  port: 8000\n"), 0o644))
		provider := NewYAMLProvider(yamlPath)
		defer provider.Close()

		var wg sync.WaitGroup
		wg.Add(2)
		var count int32
		var first, second sync.Once
		require.NoError(t, provider.Watch(t.Context(), func() {
			first.Do(func() {
				atomic.AddInt32(&count, 1)
				wg.Done()
			})
		}))
		require.NoError(t, provider.Watch(t.Context(), func() {
			second.Do(func() {
				atomic.AddInt32(&count, 10)
				wg.Done()
			})
		}))

		time.Sleep(50 * time.Millisecond)
		require.NoError(t, os.WriteFile(yamlPath, []byte("server:\n  port: 9000\n"), 0o644))

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for callbacks")
		}
		assert.Equal(t, int32(11), atomic.LoadInt32(&count))
	})
}
