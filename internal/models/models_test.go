package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusTransitions(t *testing.T) {
	assert.True(t, StatusWaiting.CanTransitionTo(StatusApproved))
	assert.True(t, StatusWaiting.CanTransitionTo(StatusRejected))
	assert.False(t, StatusWaiting.CanTransitionTo(StatusWaiting))
	assert.False(t, StatusApproved.CanTransitionTo(StatusRejected))
	assert.False(t, StatusRejected.CanTransitionTo(StatusApproved))
	assert.False(t, StatusApproved.CanTransitionTo(StatusApproved))

	assert.Equal(t, StatusApproved, DecisionStatus(true))
	assert.Equal(t, StatusRejected, DecisionStatus(false))
	assert.False(t, BookingStatus("CANCELED").Valid())
}

func TestParseBookingState(t *testing.T) {
	tests := []struct {
		raw  string
		want BookingState
		ok   bool
	}{
		{"", StateAll, true},
		{"ALL", StateAll, true},
		{"CURRENT", StateCurrent, true},
		{"PAST", StatePast, true},
		{"FUTURE", StateFuture, true},
		{"WAITING", StateWaiting, true},
		{"REJECTED", StateRejected, true},
		{" PAST ", StatePast, true},
		{"APPROVED", "", false},
		{"past", "", false},
		{"UNSUPPORTED_STATUS", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseBookingState(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBookingStateMatches(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	past := &Booking{Start: now.Add(-48 * time.Hour), End: now.Add(-24 * time.Hour), Status: StatusApproved}
	current := &Booking{Start: now.Add(-time.Hour), End: now.Add(time.Hour), Status: StatusWaiting}
	future := &Booking{Start: now.Add(24 * time.Hour), End: now.Add(48 * time.Hour), Status: StatusRejected}
	endsNow := &Booking{Start: now.Add(-time.Hour), End: now, Status: StatusApproved}
	startsNow := &Booking{Start: now, End: now.Add(time.Hour), Status: StatusApproved}

	tests := []struct {
		name    string
		state   BookingState
		booking *Booking
		want    bool
	}{
		{"all past", StateAll, past, true},
		{"past past", StatePast, past, true},
		{"past current", StatePast, current, false},
		{"current current", StateCurrent, current, true},
		{"current future", StateCurrent, future, false},
		{"future future", StateFuture, future, true},
		{"future past", StateFuture, past, false},
		{"waiting", StateWaiting, current, true},
		{"waiting approved", StateWaiting, past, false},
		{"rejected", StateRejected, future, true},
		{"boundary end equals now is not past", StatePast, endsNow, false},
		{"boundary end equals now is not current", StateCurrent, endsNow, false},
		{"boundary start equals now is not future", StateFuture, startsNow, false},
		{"boundary start equals now is not current", StateCurrent, startsNow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Matches(tt.booking, now))
		})
	}

	assert.True(t, endsNow.HasEnded(now))
	assert.False(t, current.HasEnded(now))
}

func TestBookingFilterMatch(t *testing.T) {
	now := time.Now()
	b := &Booking{ItemID: 3, BookerID: 2, Start: now.Add(time.Hour), End: now.Add(2 * time.Hour), Status: StatusWaiting}

	assert.True(t, BookingFilter{Now: now}.Match(b, 1))
	assert.True(t, BookingFilter{BookerID: 2, State: StateFuture, Now: now}.Match(b, 1))
	assert.False(t, BookingFilter{BookerID: 5, Now: now}.Match(b, 1))
	assert.True(t, BookingFilter{OwnerID: 1, Now: now}.Match(b, 1))
	assert.False(t, BookingFilter{OwnerID: 2, Now: now}.Match(b, 1))
	assert.False(t, BookingFilter{ItemID: 4, Now: now}.Match(b, 1))
	assert.False(t, BookingFilter{State: StatePast, Now: now}.Match(b, 1))
}

func TestSlice(t *testing.T) {
	list := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, Slice(list, NewPage(0, 2)))
	assert.Equal(t, []int{3, 4}, Slice(list, NewPage(2, 2)))
	assert.Equal(t, []int{5}, Slice(list, NewPage(4, 10)))
	assert.Equal(t, []int{}, Slice(list, NewPage(5, 10)))
	assert.Equal(t, list, Slice(list, Page{}))
}

func TestItemMatchesText(t *testing.T) {
	item := &Item{Name: "Power Drill", Description: "Cordless, 18V"}

	assert.True(t, item.MatchesText("drill"))
	assert.True(t, item.MatchesText("CORDLESS"))
	assert.False(t, item.MatchesText("saw"))
}

func TestPatches(t *testing.T) {
	name := "New"
	blank := "  "
	avail := false
	item := &Item{Name: "Old", Description: "desc", Available: true}

	ItemPatch{Name: &name, Description: &blank, Available: &avail}.Apply(item)
	assert.Equal(t, "New", item.Name)
	assert.Equal(t, "desc", item.Description)
	assert.False(t, item.Available)

	email := "new@example.com"
	user := &User{Name: "Ann", Email: "ann@example.com"}
	UserPatch{Email: &email}.Apply(user)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, email, user.Email)
}
