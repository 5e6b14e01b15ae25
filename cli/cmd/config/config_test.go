package config

import (
	"testing"

	"github.com/msgboard/msgboard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	t.Run("Should list leaves by koanf path in key order", func(t *testing.T) {
		cfg := config.Default()
		cfg.Database.Routers = []string{"pinned", "replica"}
		entries := Flatten(cfg)
		require.NotEmpty(t, entries)
		values := make(map[string]string, len(entries))
		for i, e := range entries {
			if i > 0 {
				assert.Less(t, entries[i-1].Key, e.Key)
			}
			values[e.Key] = e.Value
		}
		assert.Equal(t, "pinned,replica", values["database.routers"])
		assert.Equal(t, "primary", values["database.default_alias"])
		assert.Equal(t, "8000", values["server.port"])
		assert.Contains(t, values, "database.standby.path")
	})

	t.Run("Should redact secrets", func(t *testing.T) {
		cfg := config.Default()
		cfg.Database.Primary.Password = "hunter2"
		cfg.RateLimit.RedisPassword = "s3cret"
		values := make(map[string]string)
		for _, e := range Flatten(cfg) {
			values[e.Key] = e.Value
		}
		assert.Equal(t, redacted, values["database.primary.password"])
		assert.Equal(t, redacted, values["ratelimit.redis_password"])
	})
}
