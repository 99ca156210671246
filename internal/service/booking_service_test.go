package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAddBooking(t *testing.T) {
	f := newFixture(t)
	pub := new(mockPublisher)
	pub.On("PublishJSON", events.EventBookingCreated, mock.AnythingOfType("events.BookingEventPayload")).Return(nil).Once()
	s := NewBookingService(f.store, f.clock, pub, f.logger)

	start := baseTime.Add(24 * time.Hour)
	view, err := s.AddBooking(f.ctx, f.booker.ID, f.item.ID, start, start.Add(time.Hour))
	require.NoError(t, err)

	assert.NotZero(t, view.ID)
	assert.Equal(t, models.StatusWaiting, view.Status)
	assert.Equal(t, f.item.ID, view.Item.ID)
	assert.Equal(t, f.item.Name, view.Item.Name)
	assert.Equal(t, f.booker.ID, view.Booker.ID)
	assert.Equal(t, f.booker.Name, view.Booker.Name)
	pub.AssertExpectations(t)

	item, err := f.store.GetItem(f.ctx, f.item.ID)
	require.NoError(t, err)
	assert.True(t, item.Available, "creating a booking does not withdraw the item")
}

func TestAddBookingErrors(t *testing.T) {
	f := newFixture(t)
	s := NewBookingService(f.store, f.clock, nil, f.logger)
	hidden := f.addItem(t, f.owner.ID, "Ladder", false)

	start := baseTime.Add(time.Hour)
	end := start.Add(time.Hour)

	tests := []struct {
		name     string
		bookerID int64
		itemID   int64
		start    time.Time
		end      time.Time
		wantKind error
	}{
		{name: "unknown booker", bookerID: 999, itemID: f.item.ID, start: start, end: end, wantKind: domain.ErrNotFound},
		{name: "unknown item", bookerID: f.booker.ID, itemID: 999, start: start, end: end, wantKind: domain.ErrNotFound},
		{name: "item not available", bookerID: f.booker.ID, itemID: hidden.ID, start: start, end: end, wantKind: domain.ErrNotAvailable},
		{name: "availability checked before ownership", bookerID: f.owner.ID, itemID: hidden.ID, start: start, end: end, wantKind: domain.ErrNotAvailable},
		{name: "owner books own item", bookerID: f.owner.ID, itemID: f.item.ID, start: start, end: end, wantKind: domain.ErrNotFound},
		{name: "start equals end", bookerID: f.booker.ID, itemID: f.item.ID, start: start, end: start, wantKind: domain.ErrInvalidState},
		{name: "start after end", bookerID: f.booker.ID, itemID: f.item.ID, start: end, end: start, wantKind: domain.ErrInvalidState},
		{name: "missing start", bookerID: f.booker.ID, itemID: f.item.ID, end: end, wantKind: domain.ErrInvalidState},
		{name: "missing end", bookerID: f.booker.ID, itemID: f.item.ID, start: start, wantKind: domain.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := s.AddBooking(f.ctx, tt.bookerID, tt.itemID, tt.start, tt.end)
			assert.Nil(t, view)
			assert.ErrorIs(t, err, tt.wantKind)
		})
	}

	list, err := f.store.ListBookings(f.ctx, models.BookingFilter{Now: baseTime})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddBookingPublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	pub := new(mockPublisher)
	pub.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("bus down"))
	s := NewBookingService(f.store, f.clock, pub, f.logger)

	view, err := s.AddBooking(f.ctx, f.booker.ID, f.item.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, view)
}

func TestPatchBooking(t *testing.T) {
	f := newFixture(t)
	pub := new(mockPublisher)
	s := NewBookingService(f.store, f.clock, pub, f.logger)

	approve := f.addBooking(t, f.booker.ID, f.item.ID, time.Hour, 2*time.Hour, models.StatusWaiting)
	reject := f.addBooking(t, f.booker.ID, f.item.ID, 3*time.Hour, 4*time.Hour, models.StatusWaiting)

	t.Run("stranger gets not found", func(t *testing.T) {
		_, err := s.PatchBooking(f.ctx, approve.ID, f.other.ID, true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("booker cannot approve", func(t *testing.T) {
		_, err := s.PatchBooking(f.ctx, approve.ID, f.booker.ID, true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing booking", func(t *testing.T) {
		_, err := s.PatchBooking(f.ctx, 999, f.owner.ID, true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("approve", func(t *testing.T) {
		pub.On("PublishJSON", events.EventBookingApproved, mock.MatchedBy(func(p events.BookingEventPayload) bool {
			return p.BookingID == approve.ID && p.Status == string(models.StatusApproved) && p.OwnerID == f.owner.ID
		})).Return(nil).Once()

		view, err := s.PatchBooking(f.ctx, approve.ID, f.owner.ID, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, view.Status)
		assert.Equal(t, f.booker.ID, view.Booker.ID)

		stored, err := f.store.GetBooking(f.ctx, approve.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, stored.Status)
	})

	t.Run("reject", func(t *testing.T) {
		pub.On("PublishJSON", events.EventBookingRejected, mock.Anything).Return(nil).Once()

		view, err := s.PatchBooking(f.ctx, reject.ID, f.owner.ID, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, view.Status)
	})

	t.Run("decided booking is terminal", func(t *testing.T) {
		_, err := s.PatchBooking(f.ctx, approve.ID, f.owner.ID, false)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		_, err = s.PatchBooking(f.ctx, reject.ID, f.owner.ID, true)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	pub.AssertExpectations(t)
}

// racingStore loses every versioned update, as if another owner request
// had decided the booking first.
type racingStore struct {
	domain.Repository
}

func (r racingStore) UpdateBookingStatusWithVersion(context.Context, int64, int64, models.BookingStatus) error {
	return domain.ErrConcurrentModification
}

func TestPatchBookingConcurrentModification(t *testing.T) {
	f := newFixture(t)
	s := NewBookingService(racingStore{f.store}, f.clock, nil, f.logger)
	b := f.addBooking(t, f.booker.ID, f.item.ID, time.Hour, 2*time.Hour, models.StatusWaiting)

	_, err := s.PatchBooking(f.ctx, b.ID, f.owner.ID, true)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestGetBooking(t *testing.T) {
	f := newFixture(t)
	s := NewBookingService(f.store, f.clock, nil, f.logger)
	b := f.addBooking(t, f.booker.ID, f.item.ID, time.Hour, 2*time.Hour, models.StatusWaiting)

	for _, caller := range []int64{f.booker.ID, f.owner.ID} {
		view, err := s.GetBooking(f.ctx, b.ID, caller)
		require.NoError(t, err)
		assert.Equal(t, b.ID, view.ID)
		assert.Equal(t, f.item.ID, view.Item.ID)
	}

	_, err := s.GetBooking(f.ctx, b.ID, f.other.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.GetBooking(f.ctx, 999, f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingLists(t *testing.T) {
	t.Run("memory", func(t *testing.T) { testBookingLists(t, newFixture(t)) })
	t.Run("sqlite", func(t *testing.T) { testBookingLists(t, newSQLiteFixture(t)) })
}

func testBookingLists(t *testing.T, f *fixture) {
	s := NewBookingService(f.store, f.clock, nil, f.logger)

	past := f.addBooking(t, f.booker.ID, f.item.ID, -48*time.Hour, -24*time.Hour, models.StatusWaiting)
	current := f.addBooking(t, f.booker.ID, f.item.ID, -time.Hour, time.Hour, models.StatusApproved)
	future := f.addBooking(t, f.booker.ID, f.item.ID, 24*time.Hour, 48*time.Hour, models.StatusRejected)

	// a booking by someone else on another owner's item stays out of both scopes
	foreign := f.addItem(t, f.other.ID, "Tent", true)
	f.addBooking(t, f.owner.ID, foreign.ID, time.Hour, 2*time.Hour, models.StatusWaiting)

	ids := func(views []*models.BookingView) []int64 {
		out := make([]int64, 0, len(views))
		for _, v := range views {
			out = append(out, v.ID)
		}
		return out
	}

	tests := []struct {
		state string
		want  []int64
	}{
		{state: "ALL", want: []int64{future.ID, current.ID, past.ID}},
		{state: "", want: []int64{future.ID, current.ID, past.ID}},
		{state: "CURRENT", want: []int64{current.ID}},
		{state: "PAST", want: []int64{past.ID}},
		{state: "FUTURE", want: []int64{future.ID}},
		{state: "WAITING", want: []int64{past.ID}},
		{state: "REJECTED", want: []int64{future.ID}},
	}

	for _, tt := range tests {
		t.Run("booker "+tt.state, func(t *testing.T) {
			views, err := s.GetUserBookingList(f.ctx, f.booker.ID, tt.state, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(views))
		})
		t.Run("owner "+tt.state, func(t *testing.T) {
			views, err := s.GetOwnerBookingList(f.ctx, f.owner.ID, tt.state, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(views))
		})
	}

	t.Run("paging", func(t *testing.T) {
		views, err := s.GetUserBookingList(f.ctx, f.booker.ID, "ALL", 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{current.ID}, ids(views))

		views, err = s.GetUserBookingList(f.ctx, f.booker.ID, "ALL", 5, 10)
		require.NoError(t, err)
		assert.Empty(t, views)
	})

	t.Run("zero size is empty", func(t *testing.T) {
		views, err := s.GetOwnerBookingList(f.ctx, f.owner.ID, "ALL", 0, 0)
		require.NoError(t, err)
		assert.NotNil(t, views)
		assert.Empty(t, views)
	})

	t.Run("negative from", func(t *testing.T) {
		_, err := s.GetUserBookingList(f.ctx, f.booker.ID, "ALL", -1, 10)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("unknown state", func(t *testing.T) {
		for _, state := range []string{"SPECIFIC", "all", "UNSUPPORTED_STATUS"} {
			_, err := s.GetUserBookingList(f.ctx, f.booker.ID, state, 0, 10)
			assert.ErrorIs(t, err, domain.ErrNotAvailable)
			assert.EqualError(t, err, models.UnsupportedStateMessage)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.GetUserBookingList(f.ctx, 999, "ALL", 0, 10)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = s.GetOwnerBookingList(f.ctx, 999, "ALL", 0, 10)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("buckets follow the clock", func(t *testing.T) {
		f.clock.Set(baseTime.Add(72 * time.Hour))
		defer f.clock.Set(baseTime)

		views, err := s.GetUserBookingList(f.ctx, f.booker.ID, "PAST", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []int64{future.ID, current.ID, past.ID}, ids(views))
	})
}

func TestBookingLifecycleOnSQLite(t *testing.T) {
	f := newSQLiteFixture(t)
	bookings := NewBookingService(f.store, f.clock, nil, f.logger)
	comments := NewCommentService(f.store, f.clock, nil, f.logger)

	view, err := bookings.AddBooking(f.ctx, f.booker.ID, f.item.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, view.Status)

	_, err = bookings.AddBooking(f.ctx, f.owner.ID, f.item.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	approved, err := bookings.PatchBooking(f.ctx, view.ID, f.owner.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	_, err = bookings.PatchBooking(f.ctx, view.ID, f.owner.ID, false)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = comments.AddComment(f.ctx, f.booker.ID, f.item.ID, "solid drill")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	f.clock.Advance(3 * time.Hour)
	added, err := comments.AddComment(f.ctx, f.booker.ID, f.item.ID, "solid drill")
	require.NoError(t, err)
	assert.Equal(t, f.booker.Name, added.AuthorName)
}
