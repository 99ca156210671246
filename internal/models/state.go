package models

import (
	"strings"
	"time"
)

// BookingState is the filter literal accepted by booking list queries.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// UnsupportedStateMessage is reported for any literal outside the known set.
const UnsupportedStateMessage = "Unknown state: UNSUPPORTED_STATUS"

// ParseBookingState accepts the exact literals above. An empty string means ALL.
func ParseBookingState(raw string) (BookingState, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StateAll, true
	}
	switch s := BookingState(raw); s {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return s, true
	}
	return "", false
}

// Matches classifies b relative to now.
func (s BookingState) Matches(b *Booking, now time.Time) bool {
	switch s {
	case StateAll:
		return true
	case StateCurrent:
		return b.IsCurrent(now)
	case StatePast:
		return b.IsPast(now)
	case StateFuture:
		return b.IsFuture(now)
	case StateWaiting:
		return b.Status == StatusWaiting
	case StateRejected:
		return b.Status == StatusRejected
	}
	return false
}
