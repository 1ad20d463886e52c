package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "HTTP_TIMEOUT_SECONDS", "PRESET_URL", "REDIS_ADDR", "REDIS_PREFIX", "WORKSPACE_TTL_HOURS", "DEFAULT_LOCALE", "OTEL_TRACES", "MAX_CONCURRENT_COMPUTE"} {
		t.Setenv(k, "")
	}
	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	require.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	require.Equal(t, "funnel:", cfg.RedisPrefix)
	require.Equal(t, 72*time.Hour, cfg.WorkspaceTTL)
	require.Equal(t, "ru", cfg.DefaultLocale)
	require.EqualValues(t, 16, cfg.MaxConcurrentCompute)
	require.Empty(t, cfg.RedisAddr)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "2.5")
	t.Setenv("PRESET_URL", "https://example.com/presets.json")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("WORKSPACE_TTL_HOURS", "1")
	t.Setenv("DEFAULT_LOCALE", "DE")
	t.Setenv("OTEL_TRACES", "stdout")
	t.Setenv("MAX_CONCURRENT_COMPUTE", "4")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	require.Equal(t, 2500*time.Millisecond, cfg.HTTPTimeout)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, time.Hour, cfg.WorkspaceTTL)
	require.Equal(t, "de", cfg.DefaultLocale)
	require.Equal(t, "stdout", cfg.OtelTraces)
	require.EqualValues(t, 4, cfg.MaxConcurrentCompute)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]string{
		"DEFAULT_LOCALE":         "fr",
		"MAX_CONCURRENT_COMPUTE": "0",
		"HTTP_TIMEOUT_SECONDS":   "soon",
		"LOG_LEVEL":              "loud",
		"PRESET_URL":             "not a url",
		"OTEL_TRACES":            "jaeger",
		"PORT":                   "http",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}
