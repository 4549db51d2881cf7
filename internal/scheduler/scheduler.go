// Package scheduler runs the nightly lifecycle reconcile on a cron schedule
// in the business timezone, retrying storage outages with exponential backoff.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-retry"

	"github.com/pkordes/cabin-booking/internal/domain"
)

// Defaults applied by New for zero-valued Options.
const (
	DefaultSchedule    = "5 0 * * *"
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = 2 * time.Second

	// NoRetries as Options.MaxRetries makes a run a single attempt.
	NoRetries = -1
)

// Runner is the reconcile entry point the scheduler triggers.
// *service.Reconciler satisfies it.
type Runner interface {
	RunNow(ctx context.Context) (domain.ReconcileResult, error)
}

// Options configures a Scheduler.
type Options struct {
	// Schedule is a five-field cron expression (or a cron descriptor such as
	// "@daily") evaluated in Location.
	Schedule string
	Location *time.Location
	// MaxRetries bounds the retries after the first attempt of one run.
	// Zero means DefaultMaxRetries; a negative value means NoRetries.
	MaxRetries  int
	BaseBackoff time.Duration
	Logger      *slog.Logger
}

// Scheduler triggers a Runner on a cron schedule.
type Scheduler struct {
	run        Runner
	cron       *cron.Cron
	sched      cron.Schedule
	loc        *time.Location
	maxRetries uint64
	backoff    time.Duration
	log        *slog.Logger

	baseCtx context.Context
}

// New parses the schedule and builds a stopped Scheduler.
func New(r Runner, o Options) (*Scheduler, error) {
	if o.Schedule == "" {
		o.Schedule = DefaultSchedule
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	switch {
	case o.MaxRetries == 0:
		o.MaxRetries = DefaultMaxRetries
	case o.MaxRetries < 0:
		o.MaxRetries = 0
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = DefaultBaseBackoff
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	sched, err := cron.ParseStandard(o.Schedule)
	if err != nil {
		return nil, fmt.Errorf("scheduler.New: schedule %q: %w", o.Schedule, err)
	}

	log := o.Logger.With("component", "scheduler")
	cl := cronLogger{log: log}
	s := &Scheduler{
		run:        r,
		sched:      sched,
		loc:        o.Location,
		maxRetries: uint64(o.MaxRetries),
		backoff:    o.BaseBackoff,
		log:        log,
		baseCtx:    context.Background(),
	}
	s.cron = cron.New(
		cron.WithLocation(o.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.cron.Schedule(sched, cron.FuncJob(func() {
		// Failures are already logged by RunOnce.
		_, _ = s.RunOnce(s.baseCtx)
	}))
	return s, nil
}

// Start begins firing the schedule. Runs it triggers use ctx, so cancelling
// ctx aborts an in-flight run.
func (s *Scheduler) Start(ctx context.Context) {
	s.baseCtx = ctx
	s.cron.Start()
	s.log.InfoContext(ctx, "scheduler started", "next_run", s.Next(time.Now()))
}

// Stop stops firing and waits for an in-flight run to return, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.InfoContext(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler.Stop: %w", ctx.Err())
	}
}

// Next reports when the schedule fires next after from.
func (s *Scheduler) Next(from time.Time) time.Time {
	return s.sched.Next(from.In(s.loc))
}

// RunOnce runs the reconcile now. ErrStorageUnavailable is retried with
// exponential backoff up to the configured limit; any other error ends the
// run at once. The result accumulates every reservation completed across
// attempts.
func (s *Scheduler) RunOnce(ctx context.Context) (domain.ReconcileResult, error) {
	start := time.Now()
	var (
		total   domain.ReconcileResult
		attempt int
	)

	b := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		res, err := s.run.RunNow(ctx)
		total.Today = res.Today
		total.CompletedIDs = append(total.CompletedIDs, res.CompletedIDs...)
		total.CompletedCount = len(total.CompletedIDs)
		if errors.Is(err, domain.ErrStorageUnavailable) {
			s.log.WarnContext(ctx, "reconcile attempt failed, retrying",
				"attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})

	attrs := []any{
		"attempts", attempt,
		"completed_count", total.CompletedCount,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		s.log.ErrorContext(ctx, "scheduled reconcile failed", append(attrs, "error", err)...)
		return total, fmt.Errorf("scheduler.RunOnce: %w", err)
	}
	s.log.InfoContext(ctx, "scheduled reconcile done", attrs...)
	return total, nil
}

// cronLogger routes cron's own logging into slog. Routine scheduling chatter
// is logged at debug.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
