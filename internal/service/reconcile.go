package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/cabin-booking/internal/domain"
)

// DefaultReconcileBatchSize is used when a Reconciler is given a non-positive batch size.
const DefaultReconcileBatchSize = 500

// endedCompleter is the slice of repo.ReservationRepo the reconciler writes through.
type endedCompleter interface {
	CompleteEnded(ctx context.Context, today time.Time, limit int) ([]uuid.UUID, error)
}

// Reconciler moves confirmed reservations whose check-out has passed to
// completed. Running it any number of times for the same day has the same
// effect as running it once.
type Reconciler struct {
	reservations endedCompleter
	batchSize    int
	clock        domain.Clock
	loc          *time.Location
	log          *slog.Logger
}

// NewReconciler constructs a Reconciler. clock and loc decide what "today"
// means for RunNow.
func NewReconciler(r endedCompleter, batchSize int, clock domain.Clock, loc *time.Location, log *slog.Logger) *Reconciler {
	if batchSize <= 0 {
		batchSize = DefaultReconcileBatchSize
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{reservations: r, batchSize: batchSize, clock: clock, loc: loc, log: log}
}

// Today is the current calendar date in the business timezone.
func (r *Reconciler) Today() time.Time {
	return domain.DateOf(r.clock.Now(), r.loc)
}

// RunNow reconciles as of Today.
func (r *Reconciler) RunNow(ctx context.Context) (domain.ReconcileResult, error) {
	return r.Reconcile(ctx, r.Today())
}

// Reconcile completes every confirmed reservation with check-out before today.
// A reservation checking out today stays confirmed; pending and cancelled
// reservations are never touched.
//
// Work is done in batches, each committed on its own. On failure the result
// holds the reservations completed by earlier batches alongside the error.
func (r *Reconciler) Reconcile(ctx context.Context, today time.Time) (domain.ReconcileResult, error) {
	today = domain.DateOf(today, time.UTC)
	res := domain.ReconcileResult{Today: today}

	for {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("service.Reconciler.Reconcile: %w", err)
		}
		ids, err := r.reservations.CompleteEnded(ctx, today, r.batchSize)
		res.CompletedIDs = append(res.CompletedIDs, ids...)
		res.CompletedCount = len(res.CompletedIDs)
		if err != nil {
			r.log.ErrorContext(ctx, "reconcile batch failed",
				"today", today.Format(domain.DateLayout),
				"completed_so_far", res.CompletedCount,
				"error", err,
			)
			return res, fmt.Errorf("service.Reconciler.Reconcile: %w", err)
		}
		if len(ids) < r.batchSize {
			break
		}
	}

	r.log.InfoContext(ctx, "reconcile finished",
		"today", today.Format(domain.DateLayout),
		"completed", res.CompletedCount,
	)
	return res, nil
}
