package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DerivePaymentStatus maps (amountPaid, totalPrice) to a payment status:
//
//	amountPaid == 0           -> pending
//	0 < amountPaid < total    -> partial
//	amountPaid >= total       -> paid
//
// A zero amount is pending even against a zero total.
// The stored payment status is always this function of the stored amounts.
func DerivePaymentStatus(amountPaid, totalPrice decimal.Decimal) PaymentStatus {
	switch {
	case amountPaid.IsZero():
		return PaymentPending
	case amountPaid.GreaterThanOrEqual(totalPrice):
		return PaymentPaid
	default:
		return PaymentPartial
	}
}

// PaymentState is a validated (amount paid, total, status) triple ready to
// be persisted together with the reservation.
type PaymentState struct {
	AmountPaid decimal.Decimal
	TotalPrice decimal.Decimal
	Status     PaymentStatus
}

// ValidatePaymentUpdate checks a proposed amount paid and total price for
// current and returns the state to persist. The status is recomputed here;
// a caller-supplied status is never trusted.
func ValidatePaymentUpdate(current Reservation, amountPaid, totalPrice decimal.Decimal) (PaymentState, error) {
	if amountPaid.IsNegative() || totalPrice.IsNegative() {
		return PaymentState{}, fmt.Errorf("%w: reservation %s", ErrNegativeAmount, current.ID)
	}
	if !isWholeCents(amountPaid) || !isWholeCents(totalPrice) {
		return PaymentState{}, fmt.Errorf("%w: amounts must not have more than %d decimal places", ErrValidation, CurrencyPlaces)
	}
	if amountPaid.GreaterThan(totalPrice) {
		return PaymentState{}, fmt.Errorf("%w: paid %s of %s", ErrOverpayment, amountPaid.StringFixed(CurrencyPlaces), totalPrice.StringFixed(CurrencyPlaces))
	}
	return PaymentState{
		AmountPaid: amountPaid,
		TotalPrice: totalPrice,
		Status:     DerivePaymentStatus(amountPaid, totalPrice),
	}, nil
}

// ApplyPayment adds amount to what current has already paid.
// The amount must be positive; the result obeys ValidatePaymentUpdate.
func ApplyPayment(current Reservation, amount decimal.Decimal) (PaymentState, error) {
	if amount.IsNegative() {
		return PaymentState{}, fmt.Errorf("%w: reservation %s", ErrNegativeAmount, current.ID)
	}
	if amount.IsZero() {
		return PaymentState{}, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	return ValidatePaymentUpdate(current, current.AmountPaid.Add(amount), current.TotalPrice)
}

func isWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(CurrencyPlaces))
}
