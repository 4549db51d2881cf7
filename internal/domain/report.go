package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialSummary aggregates reservations whose check-in falls in [From, To].
// Billed and Outstanding exclude cancelled reservations; Collected counts
// every payment received, cancelled or not.
type FinancialSummary struct {
	From        time.Time
	To          time.Time
	ByStatus    map[Status]int
	Billed      decimal.Decimal
	Collected   decimal.Decimal
	Outstanding decimal.Decimal
}

// StatusTotals is the count and money sums of the reservations in one status.
type StatusTotals struct {
	Status    Status
	Count     int
	Billed    decimal.Decimal
	Collected decimal.Decimal
}
