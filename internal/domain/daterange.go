package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// DateOf returns the calendar date of t as observed in loc, normalised to
// UTC midnight. All stay dates are stored and compared in this form.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" string into a UTC-midnight date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date", ErrInvalidDateRange, s)
	}
	return t, nil
}

// NightsBetween returns the number of nights between two calendar dates,
// rounding any partial day up.
// Returns ErrInvalidDateRange if checkOut is not strictly after checkIn.
func NightsBetween(checkIn, checkOut time.Time) (int, error) {
	if !checkOut.After(checkIn) {
		return 0, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidDateRange)
	}
	// Unix seconds, not time.Duration, which saturates after ~292 years.
	secs := checkOut.Unix() - checkIn.Unix()
	if checkOut.Nanosecond() > checkIn.Nanosecond() {
		secs++
	}
	return int((secs + secondsPerDay - 1) / secondsPerDay), nil
}

// Overlaps reports whether the closed intervals [aStart, aEnd] and
// [bStart, bEnd] share any date.
//
// A range ending on day X and another starting on day X overlap: same-day
// turnover is not supported.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// DateRange is a stay from CheckIn to CheckOut, both calendar dates.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Validate checks that CheckOut is strictly after CheckIn.
func (r DateRange) Validate() error {
	_, err := NightsBetween(r.CheckIn, r.CheckOut)
	return err
}

// ValidateFuture is Validate plus a check that the stay does not start
// before today. Used for new bookings.
func (r DateRange) ValidateFuture(today time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.CheckIn.Before(today) {
		return fmt.Errorf("%w: check-in %s is in the past", ErrInvalidDateRange, r.CheckIn.Format(DateLayout))
	}
	return nil
}

// Nights is NightsBetween for the range. It returns 0 for an invalid range.
func (r DateRange) Nights() int {
	n, err := NightsBetween(r.CheckIn, r.CheckOut)
	if err != nil {
		return 0
	}
	return n
}

// Overlaps reports whether r and o share a date under the closed-closed rule.
func (r DateRange) Overlaps(o DateRange) bool {
	return Overlaps(r.CheckIn, r.CheckOut, o.CheckIn, o.CheckOut)
}

// Contains reports whether d falls within [CheckIn, CheckOut].
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.CheckIn) && !d.After(r.CheckOut)
}

func (r DateRange) String() string {
	return r.CheckIn.Format(DateLayout) + ".." + r.CheckOut.Format(DateLayout)
}
