package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"tutorsched/internal/config"
	"tutorsched/internal/events"
	"tutorsched/internal/metrics"
	"tutorsched/internal/service"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("TUTORSCHED_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg, os.Stdout).With().Str("run_id", uuid.NewString()).Logger()

	rooms, err := config.LoadRooms(cfg.Registry.RoomsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load rooms")
	}
	logger.Info().Msg(rooms.String())

	table, err := config.LoadSessionTimes(cfg.Registry.SessionTimesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load session times")
	}

	bus := events.NewEventBus()
	bus.OnError(func(e events.Event, err error) {
		logger.Error().Err(err).Str("event", e.Type).Str("event_id", e.ID).Msg("event handler failed")
	})
	summary := newSummary(bus)

	sched := service.NewScheduler(rooms, table, service.Options{
		MaxSessionsPerDay: cfg.Scheduling.MaxSessionsPerDay,
		AtomicMultiDay:    !cfg.Scheduling.PartialMultiDay,
	}, bus, &logger)
	registerRooms(sched, rooms, &logger)

	if cfg.Input.RequestsPath != "" {
		req, err := config.LoadRequests(cfg.Input.RequestsPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load requests")
		}
		applyRequests(sched, req, &logger)
	}
	summary.log(&logger)

	if err := writeExports(sched, cfg); err != nil {
		logger.Fatal().Err(err).Msg("export failed")
	}

	if !cfg.Monitoring.PrometheusEnabled && cfg.Monitoring.HealthCheckPort == 0 {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ready atomic.Bool
	ready.Store(true)

	err = config.WatchRooms(ctx, cfg.Registry.RoomsPath, cfg.WatchInterval(), func(updated *config.RoomsConfig) {
		sched.SetDirectory(updated)
		registerRooms(sched, updated, &logger)
		ready.Store(true)
	}, func(err error) {
		logger.Error().Err(err).Msg("rooms reload failed")
		ready.Store(false)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to watch rooms")
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, &ready, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().Msg("scheduler started")
	<-ctx.Done()
	logger.Info().Msg("scheduler stopped")
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Log.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func startHealthServer(ctx context.Context, port int, ready *atomic.Bool, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !ready.Load() {
			http.Error(w, "rooms config not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
