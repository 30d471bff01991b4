package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, path, err := LoadConfig(nil, "")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, 3000, cfg.App.Port)
	assert.Equal(t, "/api", cfg.App.Prefix)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "file:roster.db?_foreign_keys=on", cfg.Database.DSN)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roster.yaml"), []byte(`
app:
  port: 8080
database:
  driver: pgx
  dsn: postgres://localhost/roster
  table_prefix: app_
log:
  format: console
`), 0o644))
	t.Chdir(nested)
	t.Setenv("ROSTER_APP_PORT", "9090")
	t.Setenv("ROSTER_LOG_LEVEL", "debug")

	cfg, path, err := LoadConfig(nil, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "roster.yaml"), path)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "app_", cfg.Store().TablePrefix)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := LoadConfig(nil, "missing.yaml")
	assert.ErrorContains(t, err, "config file not found")

	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"port", map[string]string{"ROSTER_APP_PORT": "0"}, "app.port"},
		{"prefix", map[string]string{"ROSTER_APP_PREFIX": "api"}, "app.prefix"},
		{"driver", map[string]string{"ROSTER_DATABASE_DRIVER": "oracle"}, "database.driver"},
		{"format", map[string]string{"ROSTER_LOG_FORMAT": "xml"}, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, _, err := LoadConfig(nil, "")
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
