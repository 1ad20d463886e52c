package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Config struct {
	Port                 string        `validate:"required,numeric"`
	HTTPTimeout          time.Duration `validate:"gt=0"`
	LogLevel             zerolog.Level
	PresetURL            string        `validate:"omitempty,url"`
	RedisAddr            string        `validate:"omitempty,hostname_port"`
	RedisPrefix          string        `validate:"required"`
	WorkspaceTTL         time.Duration `validate:"gt=0"`
	DefaultLocale        string        `validate:"oneof=ru en de zh"`
	OtelTraces           string        `validate:"omitempty,oneof=stdout"`
	MaxConcurrentCompute int64         `validate:"min=1,max=1024"`
}

// FromEnv reads the configuration from the environment and validates it.
func FromEnv() (Config, error) {
	timeout, err := seconds("HTTP_TIMEOUT_SECONDS", 15)
	if err != nil {
		return Config{}, err
	}
	ttlHours, err := intEnv("WORKSPACE_TTL_HOURS", 72)
	if err != nil {
		return Config{}, err
	}
	maxCompute, err := intEnv("MAX_CONCURRENT_COMPUTE", 16)
	if err != nil {
		return Config{}, err
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(envOr("LOG_LEVEL", "info")))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := Config{
		Port:                 envOr("PORT", "8080"),
		HTTPTimeout:          timeout,
		LogLevel:             lvl,
		PresetURL:            os.Getenv("PRESET_URL"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPrefix:          envOr("REDIS_PREFIX", "funnel:"),
		WorkspaceTTL:         time.Duration(ttlHours) * time.Hour,
		DefaultLocale:        strings.ToLower(envOr("DEFAULT_LOCALE", "ru")),
		OtelTraces:           strings.ToLower(os.Getenv("OTEL_TRACES")),
		MaxConcurrentCompute: int64(maxCompute),
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func seconds(k string, def int) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return time.Duration(def) * time.Second, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v) + "s")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
