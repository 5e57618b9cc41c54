package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.yaml in reach

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTPAddress())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "bibguard", cfg.Metrics.Namespace)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 7*24*time.Hour, cfg.Cache.TTL)

	assert.Equal(t, 3*time.Second, cfg.Sources.ArXiv.RequestInterval)
	assert.Equal(t, 10*time.Second, cfg.Sources.GoogleScholar.RequestInterval)
	assert.True(t, cfg.Sources.CrossRef.Enabled)

	assert.Equal(t, 4, cfg.Resolve.Workers)
	assert.True(t, cfg.Resolve.CheckDuplicates)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BIBGUARD_SERVER_HTTP_PORT", "9999")
	t.Setenv("BIBGUARD_LOGGING_LEVEL", "debug")
	t.Setenv("BIBGUARD_SOURCES_SEMANTIC_SCHOLAR_API_KEY", "s2-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "s2-key", cfg.Sources.SemanticScholar.APIKey)
}

func TestConfig_Validate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Chdir(t.TempDir())
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("bad http port", func(t *testing.T) {
		cfg := valid(t)
		cfg.Server.HTTPPort = -1
		assert.ErrorContains(t, cfg.Validate(), "invalid HTTP port")
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid(t)
		cfg.Logging.Level = "loud"
		assert.ErrorContains(t, cfg.Validate(), "invalid log level")
	})

	t.Run("enabled cache needs a path", func(t *testing.T) {
		cfg := valid(t)
		cfg.Cache.Path = ""
		assert.ErrorContains(t, cfg.Validate(), "cache path")
	})

	t.Run("enabled source needs a base url", func(t *testing.T) {
		cfg := valid(t)
		cfg.Sources.DBLP.BaseURL = ""
		assert.ErrorContains(t, cfg.Validate(), "sources.dblp.base_url")
	})

	t.Run("disabled source may be blank", func(t *testing.T) {
		cfg := valid(t)
		cfg.Sources.DBLP.Enabled = false
		cfg.Sources.DBLP.BaseURL = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("zero workers rejected", func(t *testing.T) {
		cfg := valid(t)
		cfg.Resolve.Workers = 0
		assert.ErrorContains(t, cfg.Validate(), "workers")
	})
}

func TestCacheConfig_CachePath(t *testing.T) {
	t.Run("plain path unchanged", func(t *testing.T) {
		c := CacheConfig{Path: "/var/lib/bibguard/cache.db"}
		path, err := c.CachePath()
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/bibguard/cache.db", path)
	})

	t.Run("tilde expands to home", func(t *testing.T) {
		t.Setenv("HOME", "/home/someone")
		c := CacheConfig{Path: "~/.bibguard/cache.db"}
		path, err := c.CachePath()
		require.NoError(t, err)
		assert.Equal(t, "/home/someone/.bibguard/cache.db", path)
	})
}
