// Package main is the entry point for the cabin booking API server.
// Its sole responsibility is wiring dependencies together and starting the
// server and the nightly reconcile scheduler. No business logic belongs here.
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
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/cabin-booking/api"
	"github.com/pkordes/cabin-booking/internal/config"
	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/handler"
	"github.com/pkordes/cabin-booking/internal/middleware"
	"github.com/pkordes/cabin-booking/internal/repo"
	"github.com/pkordes/cabin-booking/internal/scheduler"
	"github.com/pkordes/cabin-booking/internal/service"
	"github.com/pkordes/cabin-booking/migrations"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		sqlDB := stdlib.OpenDBFromPool(pool)
		n, err := migrations.Up(ctx, sqlDB)
		sqlDB.Close()
		if err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", n)
	}

	// --- Services ---------------------------------------------------------
	cabinRepo := repo.NewCabinRepo(pool)
	reservationRepo := repo.NewReservationRepo(pool)
	clock := domain.SystemClock{}

	reservations := service.NewReservationService(service.ReservationDeps{
		Tx:           repo.NewTransactor(pool),
		Cabins:       cabinRepo,
		Reservations: reservationRepo,
		Clock:        clock,
		Location:     cfg.Timezone,
		AddOnRate:    cfg.AddOnRate,
		Logger:       logger,
	})
	reconciler := service.NewReconciler(reservationRepo, cfg.ReconcileBatchSize, clock, cfg.Timezone, logger)

	srv := handler.NewServer(handler.Deps{
		Cabins:       service.NewCabinService(cabinRepo),
		Reservations: reservations,
		Reconciler:   reconciler,
		Reports:      service.NewReportService(repo.NewReportRepo(pool)),
		Auth:         middleware.NewAuthenticator(cfg.JWTSecret),
		OpenAPI:      api.OpenAPI,
		Logger:       logger,
	})

	// --- Scheduler --------------------------------------------------------
	sched, err := scheduler.New(reconciler, scheduler.Options{
		Schedule: cfg.ReconcileSchedule,
		Location: cfg.Timezone,
		Logger:   logger,
	})
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start(ctx)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit. The logger sits outside Recoverer so a recovered
	// panic is still logged as a 500.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		slog.Error("scheduler shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
