package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places money is rounded to.
const CurrencyPlaces = 2

// Quote is the price breakdown of a stay.
type Quote struct {
	Nights int
	Base   decimal.Decimal
	AddOn  decimal.Decimal
	Total  decimal.Decimal
}

// ComputeTotal returns the price of a stay:
//
//	base  = nights * nightlyRate
//	addOn = guests * nights * addOnRate   (only when includesAddOn)
//	total = base + addOn, rounded half away from zero to cents
//
// Returns ErrValidation if nights <= 0, guests < 1 or either rate is negative.
func ComputeTotal(nights int, nightlyRate decimal.Decimal, guests int, includesAddOn bool, addOnRate decimal.Decimal) (decimal.Decimal, error) {
	q, err := ComputeQuote(nights, nightlyRate, guests, includesAddOn, addOnRate)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Total, nil
}

// ComputeQuote is ComputeTotal with the intermediate amounts kept.
func ComputeQuote(nights int, nightlyRate decimal.Decimal, guests int, includesAddOn bool, addOnRate decimal.Decimal) (Quote, error) {
	switch {
	case nights <= 0:
		return Quote{}, fmt.Errorf("%w: nights must be positive", ErrValidation)
	case nightlyRate.IsNegative():
		return Quote{}, fmt.Errorf("%w: nightly rate must not be negative", ErrValidation)
	case guests < 1:
		return Quote{}, fmt.Errorf("%w: at least one guest is required", ErrValidation)
	case includesAddOn && addOnRate.IsNegative():
		return Quote{}, fmt.Errorf("%w: add-on rate must not be negative", ErrValidation)
	}

	n := decimal.NewFromInt(int64(nights))
	q := Quote{
		Nights: nights,
		Base:   n.Mul(nightlyRate),
		AddOn:  decimal.Zero,
	}
	if includesAddOn {
		q.AddOn = decimal.NewFromInt(int64(guests)).Mul(n).Mul(addOnRate)
	}
	q.Total = q.Base.Add(q.AddOn).Round(CurrencyPlaces)
	return q, nil
}
