package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telemetry_map/core-go/internal/config"
	"telemetry_map/core-go/internal/dashboard"
	"telemetry_map/core-go/internal/db"
	"telemetry_map/core-go/internal/httpapi"
	"telemetry_map/core-go/internal/metrics"
	"telemetry_map/core-go/internal/settings"
	"telemetry_map/core-go/internal/telemetry"
	"telemetry_map/core-go/internal/throttle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger := httpapi.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *db.Pool
	var settingsStore settings.Store = settings.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		p, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer p.Close()
		pool = p

		ps, err := settings.NewPostgresStore(ctx, pool.Queries())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare settings table")
		}
		settingsStore = ps
	}

	m := metrics.New()
	store := telemetry.NewStore()
	settingsSvc := settings.NewService(ctx, logger, settingsStore)
	sessions := dashboard.NewManager(dashboard.Deps{
		Log:      logger,
		Store:    store,
		Settings: settingsSvc,
		Metrics:  m,
		Clock:    throttle.SystemClock(),
	}, cfg.DashboardOptions())
	defer sessions.CloseAll()

	go sessions.RunSweeper(ctx, cfg.Sessions.SweepInterval, cfg.Sessions.IdleTimeout)

	h := httpapi.NewHandler(logger, httpapi.Deps{
		Pool:     pool,
		Store:    store,
		Sessions: sessions,
		Settings: settingsSvc,
		Metrics:  m,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", cfg.HTTPAddr).
			Dur("render_throttle", cfg.Render.Throttle).
			Int("visible_cap", cfg.Render.VisibleCap).
			Bool("postgres", pool != nil).
			Msg("core-go listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Int("sessions", sessions.Len()).Msg("shutdown complete")
}
