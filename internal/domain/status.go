package domain

import "fmt"

// transitions lists the user-initiated status changes. The reconciler's
// confirmed -> completed move is deliberately absent: it is never available
// to a caller of ResolveStatusChange.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
	StatusCompleted: {},
}

// IsValid reports whether s is a known lifecycle status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransitionTo reports whether a caller may move a reservation from s to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParseStatus converts a string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

// InitialStatus is the status a new reservation starts in for its channel:
// online bookings wait for staff confirmation, staff-entered ones are confirmed.
func InitialStatus(c Channel) Status {
	if c == ChannelOnline {
		return StatusPending
	}
	return StatusConfirmed
}

// ResolveStatusChange decides the outcome of a status change request.
//
// A non-staff caller may only cancel: whatever they request is replaced by
// cancelled, and the request is a no-op when the reservation is already
// terminal. Requesting the current status is a no-op for everyone.
// Any other move outside the transition table yields ErrInvalidTransition.
func ResolveStatusChange(current, requested Status, isStaff bool) (target Status, noop bool, err error) {
	if !isStaff {
		if current.IsTerminal() {
			return current, true, nil
		}
		requested = StatusCancelled
	}
	if !requested.IsValid() {
		return "", false, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, requested)
	}
	if requested == current {
		return current, true, nil
	}
	if !current.CanTransitionTo(requested) {
		return "", false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, requested)
	}
	return requested, false, nil
}
