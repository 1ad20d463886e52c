package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/AngelCh415/FUNNEL_GO/internal/compare"
	"github.com/AngelCh415/FUNNEL_GO/internal/config"
	"github.com/AngelCh415/FUNNEL_GO/internal/httpx"
	"github.com/AngelCh415/FUNNEL_GO/internal/ingest"
	"github.com/AngelCh415/FUNNEL_GO/internal/metrics"
	"github.com/AngelCh415/FUNNEL_GO/internal/presets"
	"github.com/AngelCh415/FUNNEL_GO/internal/store"
	"github.com/AngelCh415/FUNNEL_GO/internal/telemetry"
	"github.com/AngelCh415/FUNNEL_GO/internal/utils"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "funnel-go").Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger = logger.Level(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, logger, cfg.OtelTraces, os.Stderr)
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	lib, err := presets.Builtin()
	if err != nil {
		logger.Fatal().Err(err).Msg("load presets")
	}
	if cfg.PresetURL != "" {
		remote := ingest.NewRemoteLibrary(ingest.NewHTTPClient(cfg.HTTPTimeout), logger, utils.NewBackoff(300*time.Millisecond, 3), presets.DefaultZones())
		extra, err := remote.Fetch(ctx, cfg.PresetURL)
		if err != nil {
			logger.Warn().Err(err).Str("url", cfg.PresetURL).Msg("remote presets unavailable, using built-in library")
		} else {
			logger.Info().Int("added", lib.Merge(extra)).Int("total", lib.Len()).Msg("remote presets merged")
		}
	}

	var st store.Store = store.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb, err := store.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis")
		}
		defer rdb.Close()
		st = store.NewRedisStore(rdb, cfg.RedisPrefix, cfg.WorkspaceTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis workspace store")
	}

	tel := telemetry.NewMetrics()
	calc := metrics.NewService(st, tel, cfg.MaxConcurrentCompute, cfg.DefaultLocale)

	r := httpx.NewRouter(httpx.Deps{
		Log:           logger,
		Store:         st,
		Presets:       lib,
		Metrics:       calc,
		Compare:       compare.NewService(lib, st, calc, tel),
		Telemetry:     tel,
		DefaultLocale: cfg.DefaultLocale,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().Str("port", cfg.Port).Int("presets", lib.Len()).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
