package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3*time.Second, cfg.Renderer.SettleWait)
	assert.Equal(t, 3*time.Second, cfg.Renderer.ScrollPause)
	assert.Equal(t, 10, cfg.Renderer.MaxScrolls)
	assert.Equal(t, []string{"product", "item"}, cfg.Classifier.PathKeywords)
	assert.Equal(t, 10, cfg.Oracle.BatchSize)
	assert.Equal(t, 0.6, cfg.Oracle.Temperature)
	assert.Equal(t, 3, cfg.Crawler.Concurrency)
	assert.Empty(t, cfg.Events.RedisAddr)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("RENDER_MAX_SCROLLS", "25")
	t.Setenv("RENDER_SETTLE_WAIT", "500ms")
	t.Setenv("CLASSIFIER_PATH_KEYWORDS", "produkt,artikel")
	t.Setenv("ORACLE_TEMPERATURE", "0.1")
	t.Setenv("ORACLE_RATE_WINDOW", "30s")
	t.Setenv("CRAWLER_CONCURRENCY", "8")
	t.Setenv("EVENTS_REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 25, cfg.Renderer.MaxScrolls)
	assert.Equal(t, 500*time.Millisecond, cfg.Renderer.SettleWait)
	assert.Equal(t, []string{"produkt", "artikel"}, cfg.Classifier.PathKeywords)
	assert.Equal(t, 0.1, cfg.Oracle.Temperature)
	assert.Equal(t, 30*time.Second, cfg.Oracle.RateWindow)
	assert.Equal(t, 8, cfg.Crawler.Concurrency)
	assert.Equal(t, "localhost:6379", cfg.Events.RedisAddr)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("RENDER_MAX_SCROLLS", "lots")
	t.Setenv("ORACLE_TEMPERATURE", "warm")
	t.Setenv("BROWSER_HEADLESS", "maybe")
	t.Setenv("RENDER_SETTLE_WAIT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Renderer.MaxScrolls)
	assert.Equal(t, 0.6, cfg.Oracle.Temperature)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3*time.Second, cfg.Renderer.SettleWait)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero concurrency", mutate: func(c *Config) { c.Crawler.Concurrency = 0 }},
		{name: "zero batch size", mutate: func(c *Config) { c.Oracle.BatchSize = 0 }},
		{name: "zero max scrolls", mutate: func(c *Config) { c.Renderer.MaxScrolls = 0 }},
		{name: "no path keywords", mutate: func(c *Config) { c.Classifier.PathKeywords = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
