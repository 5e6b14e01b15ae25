package config

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact when formatted but keep the secret reachable", func(t *testing.T) {
		pw := SensitiveString("pg-secret")
		assert.Equal(t, redacted, pw.String())
		assert.Equal(t, redacted, fmt.Sprint(pw))
		assert.Equal(t, "pg-secret", pw.Value())
	})

	t.Run("Should keep empty values empty", func(t *testing.T) {
		assert.Empty(t, SensitiveString("").String())
	})

	t.Run("Should redact node passwords in JSON and YAML", func(t *testing.T) {
		node := NodeConfig{Host: "db1", Password: "pg-secret"}
		data, err := json.Marshal(node)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"Password":"[REDACTED]"`)
		assert.NotContains(t, string(data), "pg-secret")

		out, err := yaml.Marshal(map[string]any{"redis_password": SensitiveString("r3dis")})
		require.NoError(t, err)
		assert.Contains(t, string(out), redacted)
		assert.NotContains(t, string(out), "r3dis")
	})

	t.Run("Should read plain secrets from JSON", func(t *testing.T) {
		var pw SensitiveString
		require.NoError(t, json.Unmarshal([]byte(`"r3dis"`), &pw))
		assert.Equal(t, "r3dis", pw.Value())
	})
}
