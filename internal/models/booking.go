package models

import "time"

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// bookingTransitions lists the statuses each status may move to.
// Decided bookings are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusWaiting: {StatusApproved, StatusRejected},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DecisionStatus maps an owner's approve/reject flag to the resulting status.
func DecisionStatus(approved bool) BookingStatus {
	if approved {
		return StatusApproved
	}
	return StatusRejected
}

type Booking struct {
	ID        int64         `json:"id"`
	ItemID    int64         `json:"itemId"`
	BookerID  int64         `json:"bookerId"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Status    BookingStatus `json:"status"`
	Version   int64         `json:"version"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// IsCurrent reports start < now < end.
func (b *Booking) IsCurrent(now time.Time) bool {
	return b.Start.Before(now) && now.Before(b.End)
}

// IsPast reports end < now.
func (b *Booking) IsPast(now time.Time) bool {
	return b.End.Before(now)
}

// IsFuture reports start > now.
func (b *Booking) IsFuture(now time.Time) bool {
	return b.Start.After(now)
}

// HasEnded reports end <= now. A booking ending exactly now counts as
// finished for comment purposes.
func (b *Booking) HasEnded(now time.Time) bool {
	return !b.End.After(now)
}
