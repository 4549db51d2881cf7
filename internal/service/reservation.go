// Package service contains the business logic of the cabin booking API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/repo"
)

// ReservationDeps carries the collaborators of a ReservationService.
// Cabins and Reservations serve reads outside a transaction; every write
// goes through Tx.
type ReservationDeps struct {
	Tx           repo.Transactor
	Cabins       repo.CabinRepo
	Reservations repo.ReservationRepo
	Clock        domain.Clock
	Location     *time.Location
	AddOnRate    decimal.Decimal
	Logger       *slog.Logger
}

// ReservationService implements booking, payment, lifecycle and date-change
// operations on reservations.
//
// Each write locks the rows it depends on inside one transaction before
// checking anything, so two concurrent requests for overlapping dates on the
// same cabin can never both succeed.
type ReservationService struct {
	tx           repo.Transactor
	cabins       repo.CabinRepo
	reservations repo.ReservationRepo
	clock        domain.Clock
	loc          *time.Location
	addOnRate    decimal.Decimal
	log          *slog.Logger
}

// NewReservationService constructs a ReservationService from d.
// A nil Clock, Location or Logger falls back to the system clock, UTC and
// slog.Default respectively.
func NewReservationService(d ReservationDeps) *ReservationService {
	s := &ReservationService{
		tx:           d.Tx,
		cabins:       d.Cabins,
		reservations: d.Reservations,
		clock:        d.Clock,
		loc:          d.Location,
		addOnRate:    d.AddOnRate,
		log:          d.Logger,
	}
	if s.clock == nil {
		s.clock = domain.SystemClock{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// today is the current calendar date in the business timezone.
func (s *ReservationService) today() time.Time {
	return domain.DateOf(s.clock.Now(), s.loc)
}

// Create validates and persists a new booking.
//
// Input is checked before any I/O. The cabin row is then locked, and the
// capacity, availability and price are decided under that lock. Online
// bookings start pending; walk-in and phone bookings start confirmed. Payment
// always starts at zero.
func (s *ReservationService) Create(ctx context.Context, in domain.NewReservation) (domain.Reservation, error) {
	stay, err := s.validateNew(&in)
	if err != nil {
		return domain.Reservation{}, err
	}

	var created domain.Reservation
	err = s.tx.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		cabin, err := tx.Cabins.GetForUpdate(ctx, in.CabinID)
		if err != nil {
			return err
		}
		if !cabin.Active {
			return fmt.Errorf("%w: cabin %s is not accepting bookings", domain.ErrValidation, cabin.Name)
		}
		if in.Guests > cabin.Capacity {
			return fmt.Errorf("%w: %d guests, capacity %d", domain.ErrCapacityExceeded, in.Guests, cabin.Capacity)
		}

		if err := NewAvailabilityChecker(tx.Reservations).Guard(ctx, cabin.ID, stay.CheckIn, stay.CheckOut, nil); err != nil {
			return err
		}

		total, err := domain.ComputeTotal(stay.Nights(), cabin.NightlyRate, in.Guests, in.IncludesAddOn, s.addOnRate)
		if err != nil {
			return err
		}

		created, err = tx.Reservations.Create(ctx, domain.Reservation{
			CabinID:       cabin.ID,
			UserID:        in.UserID,
			GuestName:     in.GuestName,
			GuestPhone:    in.GuestPhone,
			CheckIn:       stay.CheckIn,
			CheckOut:      stay.CheckOut,
			Guests:        in.Guests,
			TotalPrice:    total,
			AmountPaid:    decimal.Zero,
			PaymentStatus: domain.DerivePaymentStatus(decimal.Zero, total),
			Status:        domain.InitialStatus(in.Channel),
			Channel:       in.Channel,
			IncludesAddOn: in.IncludesAddOn,
			Notes:         in.Notes,
			CreatedBy:     in.CreatedBy,
		})
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}

	s.log.InfoContext(ctx, "reservation created",
		"reservation_id", created.ID,
		"cabin_id", created.CabinID,
		"stay", created.Range().String(),
		"status", created.Status,
		"total", created.TotalPrice.StringFixed(domain.CurrencyPlaces),
	)
	return created, nil
}

// validateNew normalises in and checks everything that needs no I/O.
func (s *ReservationService) validateNew(in *domain.NewReservation) (domain.DateRange, error) {
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.GuestPhone = strings.TrimSpace(in.GuestPhone)
	in.Notes = strings.TrimSpace(in.Notes)

	if !in.Channel.IsValid() {
		return domain.DateRange{}, fmt.Errorf("%w: unknown channel %q", domain.ErrValidation, in.Channel)
	}
	if in.CabinID == uuid.Nil {
		return domain.DateRange{}, fmt.Errorf("%w: cabin is required", domain.ErrValidation)
	}
	if in.Guests < 1 {
		return domain.DateRange{}, fmt.Errorf("%w: at least one guest is required", domain.ErrValidation)
	}
	if in.UserID == nil && in.GuestName == "" && in.GuestPhone == "" {
		return domain.DateRange{}, fmt.Errorf("%w: a user account or a guest name or phone is required", domain.ErrValidation)
	}

	stay := domain.DateRange{
		CheckIn:  domain.DateOf(in.CheckIn, time.UTC),
		CheckOut: domain.DateOf(in.CheckOut, time.UTC),
	}
	if err := stay.ValidateFuture(s.today()); err != nil {
		return domain.DateRange{}, err
	}
	return stay, nil
}

// GetByID returns one reservation. A guest asking for someone else's
// reservation gets domain.ErrReservationNotFound.
func (s *ReservationService) GetByID(ctx context.Context, id uuid.UUID, actor domain.Actor) (domain.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.GetByID: %w", err)
	}
	if !actor.IsStaff && !actor.Owns(r) {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.GetByID: %w", domain.ErrReservationNotFound)
	}
	return r, nil
}

// List returns one page of reservations matching f and the total match count.
// Guests only ever see their own reservations, whatever f says.
func (s *ReservationService) List(ctx context.Context, f domain.ReservationFilter, p domain.PaginationParams, actor domain.Actor) ([]domain.Reservation, int64, error) {
	if !actor.IsStaff {
		id := actor.ID
		f.UserID = &id
	}
	if f.Status != nil && !f.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *f.Status)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, fmt.Errorf("%w: filter end is before its start", domain.ErrInvalidDateRange)
	}
	items, total, err := s.reservations.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ReservationService.List: %w", err)
	}
	return items, total, nil
}

// UpdatePayment sets the amount paid and, optionally, a corrected total.
// The payment status is recomputed from the stored amounts. A rejected
// update leaves the reservation untouched.
func (s *ReservationService) UpdatePayment(ctx context.Context, u domain.PaymentUpdate) (domain.Reservation, error) {
	var updated domain.Reservation
	err := s.tx.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := tx.Reservations.GetForUpdate(ctx, u.ReservationID)
		if err != nil {
			return err
		}
		total := current.TotalPrice
		if u.TotalPrice != nil {
			total = *u.TotalPrice
		}
		state, err := domain.ValidatePaymentUpdate(current, u.AmountPaid, total)
		if err != nil {
			return err
		}
		updated, err = tx.Reservations.UpdatePayment(ctx, current.ID, state)
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.UpdatePayment: %w", err)
	}

	s.log.InfoContext(ctx, "payment updated",
		"reservation_id", updated.ID,
		"amount_paid", updated.AmountPaid.StringFixed(domain.CurrencyPlaces),
		"total", updated.TotalPrice.StringFixed(domain.CurrencyPlaces),
		"payment_status", updated.PaymentStatus,
	)
	return updated, nil
}

// ApplyPayment records one additional payment of amount against a reservation.
func (s *ReservationService) ApplyPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (domain.Reservation, error) {
	var updated domain.Reservation
	err := s.tx.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := tx.Reservations.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		state, err := domain.ApplyPayment(current, amount)
		if err != nil {
			return err
		}
		updated, err = tx.Reservations.UpdatePayment(ctx, current.ID, state)
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.ApplyPayment: %w", err)
	}

	s.log.InfoContext(ctx, "payment applied",
		"reservation_id", updated.ID,
		"amount", amount.StringFixed(domain.CurrencyPlaces),
		"payment_status", updated.PaymentStatus,
	)
	return updated, nil
}

// UpdateStatus applies a lifecycle transition.
//
// Staff may confirm or cancel. Any request from a guest is treated as a
// cancellation of their own reservation; a guest acting on another account's
// reservation gets domain.ErrForbidden. Requesting the current status, or a
// guest cancelling an already finished reservation, changes nothing.
func (s *ReservationService) UpdateStatus(ctx context.Context, u domain.StatusUpdate) (domain.Reservation, error) {
	var (
		result domain.Reservation
		from   domain.Status
		noop   bool
	)
	err := s.tx.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := tx.Reservations.GetForUpdate(ctx, u.ReservationID)
		if err != nil {
			return err
		}
		if !u.IsStaff && !(domain.Actor{ID: u.ActorID}).Owns(current) {
			return fmt.Errorf("%w: reservation %s belongs to another guest", domain.ErrForbidden, current.ID)
		}

		var target domain.Status
		target, noop, err = domain.ResolveStatusChange(current.Status, u.Requested, u.IsStaff)
		if err != nil {
			return err
		}
		if noop {
			result = current
			return nil
		}
		from = current.Status
		result, err = tx.Reservations.UpdateStatus(ctx, current.ID, current.Status, target)
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.UpdateStatus: %w", err)
	}

	if !noop {
		s.log.InfoContext(ctx, "reservation status changed",
			"reservation_id", result.ID,
			"from", from,
			"to", result.Status,
			"staff", u.IsStaff,
		)
	}
	return result, nil
}

// UpdateDates moves a pending or confirmed reservation to a new stay.
//
// The reservation and then its cabin are locked. The new range must not
// collide with any other active reservation, and a moved check-in may not be
// in the past. The stay is re-priced at the cabin's current rate; if the
// guest has already paid more than the new total the change is rejected with
// domain.ErrOverpayment.
func (s *ReservationService) UpdateDates(ctx context.Context, u domain.DateUpdate) (domain.Reservation, error) {
	stay := domain.DateRange{
		CheckIn:  domain.DateOf(u.CheckIn, time.UTC),
		CheckOut: domain.DateOf(u.CheckOut, time.UTC),
	}
	if err := stay.Validate(); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.UpdateDates: %w", err)
	}

	var updated domain.Reservation
	err := s.tx.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := tx.Reservations.GetForUpdate(ctx, u.ReservationID)
		if err != nil {
			return err
		}
		if !current.Blocks() {
			return fmt.Errorf("%w: a %s reservation cannot change dates", domain.ErrValidation, current.Status)
		}
		if !stay.CheckIn.Equal(current.CheckIn) {
			if err := stay.ValidateFuture(s.today()); err != nil {
				return err
			}
		}

		cabin, err := tx.Cabins.GetForUpdate(ctx, current.CabinID)
		if err != nil {
			return err
		}
		if err := NewAvailabilityChecker(tx.Reservations).Guard(ctx, cabin.ID, stay.CheckIn, stay.CheckOut, &current.ID); err != nil {
			return err
		}

		total, err := domain.ComputeTotal(stay.Nights(), cabin.NightlyRate, current.Guests, current.IncludesAddOn, s.addOnRate)
		if err != nil {
			return err
		}
		state, err := domain.ValidatePaymentUpdate(current, current.AmountPaid, total)
		if err != nil {
			return err
		}
		updated, err = tx.Reservations.UpdateStay(ctx, current.ID, stay, state)
		return err
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.UpdateDates: %w", err)
	}

	s.log.InfoContext(ctx, "reservation dates changed",
		"reservation_id", updated.ID,
		"stay", updated.Range().String(),
		"total", updated.TotalPrice.StringFixed(domain.CurrencyPlaces),
	)
	return updated, nil
}

// AvailabilityRequest asks whether a cabin is free and what a stay would cost.
type AvailabilityRequest struct {
	CabinID       uuid.UUID
	CheckIn       time.Time
	CheckOut      time.Time
	Exclude       *uuid.UUID
	Guests        int
	IncludesAddOn bool
}

// Availability is the answer to an AvailabilityRequest.
type Availability struct {
	domain.ConflictResult
	Quote domain.Quote
}

// CheckAvailability reports whether the cabin is free for the requested
// range and quotes the price at the cabin's current rate. It reads without
// locking, so the answer is advisory until a booking is actually made.
func (s *ReservationService) CheckAvailability(ctx context.Context, req AvailabilityRequest) (Availability, error) {
	if req.Guests == 0 {
		req.Guests = 1
	}
	stay := domain.DateRange{
		CheckIn:  domain.DateOf(req.CheckIn, time.UTC),
		CheckOut: domain.DateOf(req.CheckOut, time.UTC),
	}
	if err := stay.Validate(); err != nil {
		return Availability{}, fmt.Errorf("service.ReservationService.CheckAvailability: %w", err)
	}

	cabin, err := s.cabins.GetByID(ctx, req.CabinID)
	if err != nil {
		return Availability{}, fmt.Errorf("service.ReservationService.CheckAvailability: %w", err)
	}

	res, err := NewAvailabilityChecker(s.reservations).CheckConflict(ctx, cabin.ID, stay.CheckIn, stay.CheckOut, req.Exclude)
	if err != nil {
		return Availability{}, fmt.Errorf("service.ReservationService.CheckAvailability: %w", err)
	}

	quote, err := domain.ComputeQuote(stay.Nights(), cabin.NightlyRate, req.Guests, req.IncludesAddOn, s.addOnRate)
	if err != nil {
		return Availability{}, fmt.Errorf("service.ReservationService.CheckAvailability: %w", err)
	}
	return Availability{ConflictResult: res, Quote: quote}, nil
}

// Calendar returns the day-by-day occupancy of a cabin over [from, to].
func (s *ReservationService) Calendar(ctx context.Context, cabinID uuid.UUID, from, to time.Time) ([]domain.DayStatus, error) {
	if _, err := s.cabins.GetByID(ctx, cabinID); err != nil {
		return nil, fmt.Errorf("service.ReservationService.Calendar: %w", err)
	}
	days, err := NewAvailabilityChecker(s.reservations).Calendar(ctx, cabinID, domain.DateOf(from, time.UTC), domain.DateOf(to, time.UTC))
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.Calendar: %w", err)
	}
	return days, nil
}
