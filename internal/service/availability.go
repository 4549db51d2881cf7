package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/cabin-booking/internal/domain"
)

// maxCalendarDays bounds a single calendar request.
const maxCalendarDays = 366

// activeReservationLister is the slice of repo.ReservationRepo the
// availability check reads from. Inside a booking transaction it is the
// tx-bound repo, so the check sees the same snapshot the insert writes to.
type activeReservationLister interface {
	ListActiveByCabin(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.Reservation, error)
}

// AvailabilityChecker decides whether a cabin is free for a date range.
// It never mutates state.
type AvailabilityChecker struct {
	reservations activeReservationLister
}

// NewAvailabilityChecker constructs an AvailabilityChecker reading from r.
func NewAvailabilityChecker(r activeReservationLister) *AvailabilityChecker {
	return &AvailabilityChecker{reservations: r}
}

// CheckConflict tests [checkIn, checkOut] against the cabin's pending and
// confirmed reservations. exclude, when set, is skipped so that a reservation
// can be re-validated against its own new dates.
//
// The first overlapping reservation by check-in is reported in BlockedBy.
// Returns domain.ErrInvalidDateRange if checkOut is not after checkIn.
func (c *AvailabilityChecker) CheckConflict(ctx context.Context, cabinID uuid.UUID, checkIn, checkOut time.Time, exclude *uuid.UUID) (domain.ConflictResult, error) {
	candidate := domain.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := candidate.Validate(); err != nil {
		return domain.ConflictResult{}, err
	}

	existing, err := c.reservations.ListActiveByCabin(ctx, cabinID, checkIn, checkOut)
	if err != nil {
		return domain.ConflictResult{}, fmt.Errorf("service.AvailabilityChecker.CheckConflict: %w", err)
	}

	for _, r := range existing {
		if !r.Blocks() {
			continue
		}
		if exclude != nil && r.ID == *exclude {
			continue
		}
		if candidate.Overlaps(r.Range()) {
			return domain.ConflictResult{Available: false, BlockedBy: r.ID}, nil
		}
	}
	return domain.ConflictResult{Available: true}, nil
}

// Guard is CheckConflict as an error: nil when the range is free,
// *domain.ConflictError when it is taken.
func (c *AvailabilityChecker) Guard(ctx context.Context, cabinID uuid.UUID, checkIn, checkOut time.Time, exclude *uuid.UUID) error {
	res, err := c.CheckConflict(ctx, cabinID, checkIn, checkOut, exclude)
	if err != nil {
		return err
	}
	if !res.Available {
		return &domain.ConflictError{BlockedBy: res.BlockedBy}
	}
	return nil
}

// Calendar returns one DayStatus per date in [from, to]. A day is occupied
// when an active reservation's closed range contains it, so check-out days
// show as occupied.
func (c *AvailabilityChecker) Calendar(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.DayStatus, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: calendar end is before its start", domain.ErrInvalidDateRange)
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxCalendarDays {
		return nil, fmt.Errorf("%w: calendar spans more than %d days", domain.ErrInvalidDateRange, maxCalendarDays)
	}

	existing, err := c.reservations.ListActiveByCabin(ctx, cabinID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service.AvailabilityChecker.Calendar: %w", err)
	}

	out := make([]domain.DayStatus, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		ds := domain.DayStatus{Date: d}
		for _, r := range existing {
			if r.Blocks() && r.Range().Contains(d) {
				id := r.ID
				ds.Occupied = true
				ds.ReservationID = &id
				break
			}
		}
		out = append(out, ds)
	}
	return out, nil
}
