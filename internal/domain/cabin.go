package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cabin is a rentable unit. Its nightly rate and capacity are inputs to
// pricing and to the guest-count check.
// Inactive cabins are listed but accept no new bookings.
type Cabin struct {
	ID          uuid.UUID
	Name        string
	Capacity    int
	NightlyRate decimal.Decimal
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
