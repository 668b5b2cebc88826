// Package main is the entry point for the shuttle pool API server.
// Its sole responsibility is wiring dependencies together and starting the
// server and job scheduler. No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asehra/shuttle-pool/backend/internal/config"
	"github.com/asehra/shuttle-pool/backend/internal/handler"
	"github.com/asehra/shuttle-pool/backend/internal/jobs"
	"github.com/asehra/shuttle-pool/backend/internal/metrics"
	"github.com/asehra/shuttle-pool/backend/internal/middleware"
	"github.com/asehra/shuttle-pool/backend/internal/repo"
	"github.com/asehra/shuttle-pool/backend/internal/service"
	"github.com/asehra/shuttle-pool/backend/internal/wa"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Metrics ----------------------------------------------------------
	collector := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		go collector.Serve(cfg.MetricsAddr, logger)
	}

	// --- Gateway, repos, services ----------------------------------------
	gateway := wa.NewClient(cfg.MessagesURL(), cfg.GraphToken)
	locationRepo := repo.NewLocationRepo(pool)
	requestRepo := repo.NewRequestRepo(pool)

	requestSvc := service.NewRequestService(requestRepo, locationRepo, cfg.Timezone)
	matcherSvc := service.NewMatcherService(requestRepo, locationRepo, gateway, cfg.Timezone, logger)
	textSvc := service.NewTextService(requestRepo, gateway, cfg.Timezone, logger, collector)
	sweepSvc := service.NewSweepService(requestRepo, logger, collector)
	reminderSvc := service.NewReminderService(requestRepo, gateway, cfg.ReminderWindow, logger, collector)

	// --- Jobs -------------------------------------------------------------
	// The sweep runs first each tick so reminders never see past-due rows.
	scheduler, err := jobs.Start(cfg.JobsCronSpec, cfg.Timezone, logger, sweepSvc, reminderSvc)
	if err != nil {
		slog.Error("failed to start job scheduler", "error", err)
		os.Exit(1)
	}

	// --- Router -----------------------------------------------------------
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(1 << 20))

	srv := handler.NewServer(requestSvc, textSvc, matcherSvc, gateway, cfg.VerifyToken, cfg.DriverNumber, logger)
	srv.Register(r)

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	jobCtx := scheduler.Stop()
	<-jobCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
