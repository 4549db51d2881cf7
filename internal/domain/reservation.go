// Package domain contains the core data types and pure business rules of the
// cabin booking platform: date ranges, pricing, payment state and the
// reservation lifecycle. It performs no I/O and is imported by every other
// internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// PaymentStatus is always derived from (amount paid, total price).
// See DerivePaymentStatus.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Channel is the booking channel a reservation came in through.
type Channel string

const (
	ChannelOnline Channel = "online"
	ChannelWalkIn Channel = "walk_in"
	ChannelPhone  Channel = "phone"
)

// IsValid reports whether c is a known booking channel.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelOnline, ChannelWalkIn, ChannelPhone:
		return true
	}
	return false
}

// Reservation is the central entity: one guest party in one cabin for a
// closed range of calendar dates.
//
// CheckIn and CheckOut are calendar dates stored as UTC midnight.
// At least one identity channel is present: UserID, or a GuestName/GuestPhone pair.
type Reservation struct {
	ID      uuid.UUID
	CabinID uuid.UUID

	UserID     *uuid.UUID // registered guest; nil for walk-in guests without an account
	GuestName  string
	GuestPhone string

	CheckIn  time.Time
	CheckOut time.Time
	Guests   int

	TotalPrice    decimal.Decimal
	AmountPaid    decimal.Decimal
	PaymentStatus PaymentStatus

	Status        Status
	Channel       Channel
	IncludesAddOn bool
	Notes         string

	CreatedBy *uuid.UUID // staff member who entered a walk-in or phone booking
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Range returns the stay as a DateRange.
func (r Reservation) Range() DateRange {
	return DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// Blocks reports whether the reservation occupies its cabin's calendar.
// Cancelled and completed reservations never block new bookings.
func (r Reservation) Blocks() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// Balance is the amount still owed.
func (r Reservation) Balance() decimal.Decimal {
	return r.TotalPrice.Sub(r.AmountPaid)
}

// NewReservation carries the caller-supplied fields of a booking request.
// Price, status and payment state are computed by the service, never taken
// from the caller.
type NewReservation struct {
	CabinID       uuid.UUID
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        int
	IncludesAddOn bool
	Channel       Channel

	UserID     *uuid.UUID
	GuestName  string
	GuestPhone string
	Notes      string

	CreatedBy *uuid.UUID
}

// PaymentUpdate sets the amount paid and, optionally, a corrected total.
type PaymentUpdate struct {
	ReservationID uuid.UUID
	AmountPaid    decimal.Decimal
	TotalPrice    *decimal.Decimal // nil keeps the stored total
}

// StatusUpdate requests a lifecycle transition on behalf of an actor.
type StatusUpdate struct {
	ReservationID uuid.UUID
	Requested     Status
	IsStaff       bool
	ActorID       uuid.UUID
}

// DateUpdate moves a reservation to a new stay range.
type DateUpdate struct {
	ReservationID uuid.UUID
	CheckIn       time.Time
	CheckOut      time.Time
}

// ReservationFilter narrows a reservation listing. Nil fields are ignored.
// From/To select reservations whose stay overlaps [From, To].
type ReservationFilter struct {
	CabinID *uuid.UUID
	UserID  *uuid.UUID
	Status  *Status
	From    *time.Time
	To      *time.Time
}

// ConflictResult is the decision returned by the availability check.
// BlockedBy is set only when Available is false.
type ConflictResult struct {
	Available bool
	BlockedBy uuid.UUID
}

// DayStatus is one day of a cabin's occupancy calendar.
type DayStatus struct {
	Date          time.Time
	Occupied      bool
	ReservationID *uuid.UUID
}

// Actor is the caller on whose behalf a service operation runs.
// Non-staff actors only ever see and act on their own reservations.
type Actor struct {
	ID      uuid.UUID
	IsStaff bool
}

// Owns reports whether r belongs to the actor's account.
func (a Actor) Owns(r Reservation) bool {
	return r.UserID != nil && *r.UserID == a.ID
}

// ReconcileResult lists the reservations one reconcile run completed.
type ReconcileResult struct {
	Today          time.Time
	CompletedCount int
	CompletedIDs   []uuid.UUID
}
