package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int32(10), cfg.Pool.MaxConns)
	assert.Equal(t, 10*time.Second, cfg.Pool.ConnectTimeout.Std())
	assert.False(t, cfg.Export.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
log:
  level: debug
  format: json
pool:
  max_conns: 4
  min_conns: 1
  connect_timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int32(4), cfg.Pool.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Pool.ConnectTimeout.Std())
	// Unset fields keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout.Std())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_config")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "pool:\n  connect_timeout: fast\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DBFORDEVS_ADDR", ":7070")
	t.Setenv("DBFORDEVS_EXPORT_ACCESS_KEY", "env-access")
	t.Setenv("DBFORDEVS_EXPORT_SECRET_KEY", "env-secret")

	path := writeConfig(t, `
export:
  enabled: true
  endpoint: localhost:9000
  bucket: results
  access_key: file-access
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "env-access", cfg.Export.AccessKey, "environment wins over the file")
	assert.Equal(t, "env-secret", cfg.Export.SecretKey)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "zero max conns",
			content: "pool:\n  max_conns: 0\n",
		},
		{
			name:    "min above max",
			content: "pool:\n  max_conns: 2\n  min_conns: 5\n",
		},
		{
			name:    "export enabled without endpoint",
			content: "export:\n  enabled: true\n  bucket: b\n",
		},
		{
			name:    "export enabled without bucket",
			content: "export:\n  enabled: true\n  endpoint: localhost:9000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid_config")
		})
	}
}
