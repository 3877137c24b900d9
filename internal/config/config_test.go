package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, content map[string]interface{}) string {
	t.Helper()
	data, err := yaml.Marshal(content)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "orchestrator.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, map[string]interface{}{})
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DispatchModeInline, cfg.Dispatch.Mode)
	assert.Equal(t, 5, cfg.Dispatch.Workers)
	assert.Equal(t, 60*time.Second, cfg.Dispatch.MaxWait)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.PollInterval)
	assert.Equal(t, 3, cfg.Video.TopVideos)
	assert.Equal(t, 5, cfg.Video.TopShorts)
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfigFile(t, map[string]interface{}{
		"dispatch": map[string]interface{}{
			"mode":          "queued",
			"poll_interval": "500ms",
		},
		"postgres": map[string]interface{}{
			"host":     "db.internal",
			"database": "research",
		},
	})
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DispatchModeQueued, cfg.Dispatch.Mode)
	assert.Equal(t, 500*time.Millisecond, cfg.Dispatch.PollInterval)
	assert.Contains(t, cfg.Postgres.DSN(), "host=db.internal")
	assert.Contains(t, cfg.Postgres.DSN(), "dbname=research")
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, map[string]interface{}{})
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DISPATCH_MODE", "queued")
	t.Setenv("SERPAPI_API_KEY", "sk-test")
	t.Setenv("GROQ_API_KEY", "gk-1")
	t.Setenv("GROQ_API_KEY2", "gk-2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DispatchModeQueued, cfg.Dispatch.Mode)
	assert.Equal(t, "sk-test", cfg.Search.APIKey)
	assert.Equal(t, []string{"gk-1", "gk-2"}, cfg.LLM.APIKeys)
}

func TestValidateRejectsBadMode(t *testing.T) {
	path := writeConfigFile(t, map[string]interface{}{
		"dispatch": map[string]interface{}{"mode": "celery"},
	})
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch.mode")
}
