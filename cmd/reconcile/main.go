// Command reconcile runs the lifecycle reconcile once and exits. It suits an
// external cron or a manual back-fill:
//
//	reconcile                    # as of today in BUSINESS_TIMEZONE
//	reconcile -today 2024-07-14  # as of a given date
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkordes/cabin-booking/internal/config"
	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/repo"
	"github.com/pkordes/cabin-booking/internal/scheduler"
	"github.com/pkordes/cabin-booking/internal/service"
)

type output struct {
	Today          string   `json:"today"`
	CompletedCount int      `json:"completed_count"`
	CompletedIDs   []string `json:"completed_ids"`
}

func main() {
	todayFlag := flag.String("today", "", "business date to reconcile as (YYYY-MM-DD); defaults to today")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	reconciler := service.NewReconciler(repo.NewReservationRepo(pool), cfg.ReconcileBatchSize,
		domain.SystemClock{}, cfg.Timezone, logger)

	var res domain.ReconcileResult
	if *todayFlag != "" {
		today, perr := domain.ParseDate(*todayFlag)
		if perr != nil {
			slog.Error("invalid -today", "error", perr)
			os.Exit(2)
		}
		res, err = reconciler.Reconcile(ctx, today)
	} else {
		var sched *scheduler.Scheduler
		sched, err = scheduler.New(reconciler, scheduler.Options{
			Schedule: cfg.ReconcileSchedule,
			Location: cfg.Timezone,
			Logger:   logger,
		})
		if err != nil {
			slog.Error("failed to create scheduler", "error", err)
			os.Exit(1)
		}
		res, err = sched.RunOnce(ctx)
	}

	out := output{
		Today:          res.Today.Format(domain.DateLayout),
		CompletedCount: res.CompletedCount,
		CompletedIDs:   make([]string, len(res.CompletedIDs)),
	}
	for i, id := range res.CompletedIDs {
		out.CompletedIDs[i] = id.String()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)

	if err != nil {
		slog.Error("reconcile failed", "error", err)
		os.Exit(1)
	}
}
