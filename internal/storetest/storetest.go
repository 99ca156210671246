// Package storetest holds the behavioural checks every domain.Repository
// implementation must pass.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) domain.Repository

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// Run executes the contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Items", func(t *testing.T) { testItems(t, newStore(t)) })
	t.Run("BookingCreateGuard", func(t *testing.T) { testBookingGuard(t, newStore(t)) })
	t.Run("BookingVersioning", func(t *testing.T) { testBookingVersioning(t, newStore(t)) })
	t.Run("BookingListing", func(t *testing.T) { testBookingListing(t, newStore(t)) })
	t.Run("Comments", func(t *testing.T) { testComments(t, newStore(t)) })
	t.Run("Requests", func(t *testing.T) { testRequests(t, newStore(t)) })
	t.Run("DeleteUserCascades", func(t *testing.T) { testDeleteCascade(t, newStore(t)) })
	t.Run("ConcurrentApprove", func(t *testing.T) { testConcurrentApprove(t, newStore(t)) })
}

func mustUser(t *testing.T, s domain.Repository, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mustItem(t *testing.T, s domain.Repository, owner int64, name string, available bool) *models.Item {
	t.Helper()
	i := &models.Item{Name: name, Description: name + " description", Available: available, OwnerID: owner}
	require.NoError(t, s.CreateItem(context.Background(), i))
	return i
}

func mustBooking(t *testing.T, s domain.Repository, item, booker int64, start, end time.Time) *models.Booking {
	t.Helper()
	b := &models.Booking{ItemID: item, BookerID: booker, Start: start, End: end}
	require.NoError(t, s.CreateBookingWithLock(context.Background(), b))
	return b
}

func ids[T any](list []T, id func(T) int64) []int64 {
	out := make([]int64, 0, len(list))
	for _, v := range list {
		out = append(out, id(v))
	}
	return out
}

func bookingIDs(list []*models.Booking) []int64 {
	return ids(list, func(b *models.Booking) int64 { return b.ID })
}

func testUsers(t *testing.T, s domain.Repository) {
	ctx := context.Background()

	ann := mustUser(t, s, "ann")
	bob := mustUser(t, s, "bob")
	assert.NotZero(t, ann.ID)
	assert.NotEqual(t, ann.ID, bob.ID)
	assert.False(t, ann.CreatedAt.IsZero())

	got, err := s.GetUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Name)
	assert.Equal(t, "ann@example.com", got.Email)

	_, err = s.GetUser(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	dup := &models.User{Name: "other", Email: "ann@example.com"}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), domain.ErrInvalidState)

	got.Name = "Ann"
	require.NoError(t, s.UpdateUser(ctx, got))
	got, err = s.GetUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	got.Email = "bob@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, got), domain.ErrInvalidState)
	assert.ErrorIs(t, s.UpdateUser(ctx, &models.User{ID: 999, Email: "x@example.com"}), domain.ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{ann.ID, bob.ID}, ids(users, func(u *models.User) int64 { return u.ID }))

	require.NoError(t, s.DeleteUser(ctx, bob.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, bob.ID), domain.ErrNotFound)
	_, err = s.GetUser(ctx, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testItems(t *testing.T, s domain.Repository) {
	ctx := context.Background()

	owner := mustUser(t, s, "owner")
	other := mustUser(t, s, "other")

	drill := mustItem(t, s, owner.ID, "Drill", true)
	saw := mustItem(t, s, owner.ID, "Saw", false)
	ladder := mustItem(t, s, other.ID, "Ladder", true)

	err := s.CreateItem(ctx, &models.Item{Name: "x", OwnerID: 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	missingReq := int64(42)
	err = s.CreateItem(ctx, &models.Item{Name: "x", OwnerID: owner.ID, RequestID: &missingReq})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := s.GetItem(ctx, drill.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", got.Name)
	assert.True(t, got.Available)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Nil(t, got.RequestID)

	_, err = s.GetItem(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got.Description = "Cordless drill"
	got.Available = false
	require.NoError(t, s.UpdateItem(ctx, got))
	got, err = s.GetItem(ctx, drill.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cordless drill", got.Description)
	assert.False(t, got.Available)
	assert.ErrorIs(t, s.UpdateItem(ctx, &models.Item{ID: 999}), domain.ErrNotFound)

	got.Description = "Drill description"
	got.Available = true
	require.NoError(t, s.UpdateItem(ctx, got))

	itemID := func(i *models.Item) int64 { return i.ID }

	owned, err := s.ListItems(ctx, owner.ID, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []int64{drill.ID, saw.ID}, ids(owned, itemID))

	all, err := s.ListItems(ctx, 0, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []int64{drill.ID, saw.ID, ladder.ID}, ids(all, itemID))

	paged, err := s.ListItems(ctx, 0, models.NewPage(1, 1))
	require.NoError(t, err)
	assert.Equal(t, []int64{saw.ID}, ids(paged, itemID))

	found, err := s.SearchItems(ctx, "DRILL", models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []int64{drill.ID}, ids(found, itemID))

	found, err = s.SearchItems(ctx, "description", models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []int64{drill.ID, ladder.ID}, ids(found, itemID), "unavailable items are not searchable")

	found, err = s.SearchItems(ctx, "description", models.NewPage(1, 5))
	require.NoError(t, err)
	assert.Equal(t, []int64{ladder.ID}, ids(found, itemID))
}

func testBookingGuard(t *testing.T, s domain.Repository) {
	ctx := context.Background()

	owner := mustUser(t, s, "owner")
	booker := mustUser(t, s, "booker")
	item := mustItem(t, s, owner.ID, "Tent", true)
	closed := mustItem(t, s, owner.ID, "Kayak", false)

	b := mustBooking(t, s, item.ID, booker.ID, base.Add(time.Hour), base.Add(2*time.Hour))
	assert.NotZero(t, b.ID)
	assert.Equal(t, models.StatusWaiting, b.Status)
	assert.Equal(t, int64(1), b.Version)

	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ItemID)
	assert.Equal(t, booker.ID, got.BookerID)
	assert.True(t, got.Start.Equal(b.Start))
	assert.True(t, got.End.Equal(b.End))
	assert.Equal(t, models.StatusWaiting, got.Status)

	_, err = s.GetBooking(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.CreateBookingWithLock(ctx, &models.Booking{ItemID: closed.ID, BookerID: booker.ID, Start: base, End: base.Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrNotAvailable)

	err = s.CreateBookingWithLock(ctx, &models.Booking{ItemID: item.ID, BookerID: owner.ID, Start: base, End: base.Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrNotAvailable)

	err = s.CreateBookingWithLock(ctx, &models.Booking{ItemID: 999, BookerID: booker.ID, Start: base, End: base.Add(time.Hour)})
	assert.Error(t, err)

	// overlapping bookings are allowed
	mustBooking(t, s, item.ID, booker.ID, base.Add(time.Hour), base.Add(2*time.Hour))
}

func testBookingVersioning(t *testing.T, s domain.Repository) {
	ctx := context.Background()

	owner := mustUser(t, s, "owner")
	booker := mustUser(t, s, "booker")
	item := mustItem(t, s, owner.ID, "Tent", true)
	b := mustBooking(t, s, item.ID, booker.ID, base, base.Add(time.Hour))

	require.NoError(t, s.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusApproved))
	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, int64(2), got.Version)

	err = s.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusRejected)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	err = s.UpdateBookingStatusWithVersion(ctx, 999, 1, models.StatusRejected)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testBookingListing(t *testing.T, s domain.Repository) {
	ctx := context.Background()
	now := base

	owner := mustUser(t, s, "owner")
	booker := mustUser(t, s, "booker")
	stranger := mustUser(t, s, "stranger")
	tent := mustItem(t, s, owner.ID, "Tent", true)
	stove := mustItem(t, s, owner.ID, "Stove", true)

	past := mustBooking(t, s, tent.ID, booker.ID, now.Add(-72*time.Hour), now.Add(-48*time.Hour))
	current := mustBooking(t, s, stove.ID, booker.ID, now.Add(-time.Hour), now.Add(time.Hour))
	future := mustBooking(t, s, tent.ID, booker.ID, now.Add(48*time.Hour), now.Add(72*time.Hour))
	rejected := mustBooking(t, s, stove.ID, booker.ID, now.Add(24*time.Hour), now.Add(30*time.Hour))
	require.NoError(t, s.UpdateBookingStatusWithVersion(ctx, rejected.ID, 1, models.StatusRejected))
	require.NoError(t, s.UpdateBookingStatusWithVersion(ctx, past.ID, 1, models.StatusApproved))

	list := func(f models.BookingFilter) []int64 {
		t.Helper()
		f.Now = now
		got, err := s.ListBookings(ctx, f)
		require.NoError(t, err)
		return bookingIDs(got)
	}

	assert.Equal(t, []int64{future.ID, rejected.ID, current.ID, past.ID}, list(models.BookingFilter{BookerID: booker.ID, State: models.StateAll}))
	assert.Equal(t, []int64{future.ID, rejected.ID, current.ID, past.ID}, list(models.BookingFilter{OwnerID: owner.ID}))
	assert.Equal(t, []int64{current.ID}, list(models.BookingFilter{BookerID: booker.ID, State: models.StateCurrent}))
	assert.Equal(t, []int64{past.ID}, list(models.BookingFilter{OwnerID: owner.ID, State: models.StatePast}))
	assert.Equal(t, []int64{future.ID, rejected.ID}, list(models.BookingFilter{BookerID: booker.ID, State: models.StateFuture}))
	assert.Equal(t, []int64{future.ID, current.ID}, list(models.BookingFilter{OwnerID: owner.ID, State: models.StateWaiting}))
	assert.Equal(t, []int64{rejected.ID}, list(models.BookingFilter{BookerID: booker.ID, State: models.StateRejected}))
	assert.Equal(t, []int64{future.ID, past.ID}, list(models.BookingFilter{ItemID: tent.ID}))
	assert.Equal(t, []int64{future.ID}, list(models.BookingFilter{BookerID: booker.ID, ItemID: tent.ID, State: models.StateFuture}))
	assert.Empty(t, list(models.BookingFilter{BookerID: stranger.ID}))
	assert.Empty(t, list(models.BookingFilter{OwnerID: booker.ID}))

	assert.Equal(t, []int64{rejected.ID, current.ID}, list(models.BookingFilter{BookerID: booker.ID, Page: models.NewPage(1, 2)}))
	assert.Equal(t, []int64{past.ID}, list(models.BookingFilter{BookerID: booker.ID, Page: models.NewPage(3, 2)}))
	assert.Empty(t, list(models.BookingFilter{BookerID: booker.ID, Page: models.NewPage(10, 2)}))

	// same start orders by id descending
	twin := mustBooking(t, s, tent.ID, booker.ID, future.Start, future.End)
	assert.Equal(t, []int64{twin.ID, future.ID}, list(models.BookingFilter{ItemID: tent.ID, State: models.StateFuture}))
}

func testComments(t *testing.T, s domain.Repository) {
	ctx := context.Background()

	owner := mustUser(t, s, "owner")
	author := mustUser(t, s, "author")
	tent := mustItem(t, s, owner.ID, "Tent", true)
	stove := mustItem(t, s, owner.ID, "Stove", true)

	first := &models.Comment{ItemID: tent.ID, AuthorID: author.ID, Text: "great", CreatedAt: base}
	require.NoError(t, s.CreateComment(ctx, first))
	second := &models.Comment{ItemID: stove.ID, AuthorID: author.ID, Text: "ok", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, s.CreateComment(ctx, second))
	assert.NotZero(t, first.ID)

	assert.ErrorIs(t, s.CreateComment(ctx, &models.Comment{ItemID: 999, AuthorID: author.ID, Text: "x"}), domain.ErrNotFound)

	got, err := s.ListCommentsByItems(ctx, []int64{tent.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "great", got[0].Text)
	assert.Equal(t, author.ID, got[0].AuthorID)
	assert.True(t, got[0].CreatedAt.Equal(base))

	got, err = s.ListCommentsByItems(ctx, []int64{tent.ID, stove.ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListCommentsByItems(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testRequests(t *testing.T, s domain.Repository) {
	ctx := context.Background()

	ann := mustUser(t, s, "ann")
	bob := mustUser(t, s, "bob")

	older := &models.ItemRequest{Description: "need a ladder", RequesterID: ann.ID, CreatedAt: base}
	require.NoError(t, s.CreateRequest(ctx, older))
	newer := &models.ItemRequest{Description: "need a drill", RequesterID: ann.ID, CreatedAt: base.Add(time.Hour)}
	require.NoError(t, s.CreateRequest(ctx, newer))
	bobs := &models.ItemRequest{Description: "need a tent", RequesterID: bob.ID, CreatedAt: base.Add(2 * time.Hour)}
	require.NoError(t, s.CreateRequest(ctx, bobs))

	assert.ErrorIs(t, s.CreateRequest(ctx, &models.ItemRequest{Description: "x", RequesterID: 999}), domain.ErrNotFound)

	got, err := s.GetRequest(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "need a ladder", got.Description)
	assert.True(t, got.CreatedAt.Equal(base))

	_, err = s.GetRequest(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	reqID := func(r *models.ItemRequest) int64 { return r.ID }

	own, err := s.ListRequests(ctx, ann.ID, false, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []int64{newer.ID, older.ID}, ids(own, reqID))

	others, err := s.ListRequests(ctx, bob.ID, true, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, []int64{newer.ID, older.ID}, ids(others, reqID))

	others, err = s.ListRequests(ctx, ann.ID, true, models.NewPage(0, 1))
	require.NoError(t, err)
	assert.Equal(t, []int64{bobs.ID}, ids(others, reqID))

	item := &models.Item{Name: "Ladder", Available: true, OwnerID: bob.ID, RequestID: &older.ID}
	require.NoError(t, s.CreateItem(ctx, item))
	mustItem(t, s, bob.ID, "Unrelated", true)

	stored, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RequestID)
	assert.Equal(t, older.ID, *stored.RequestID)

	fulfilled, err := s.ListItemsByRequests(ctx, []int64{older.ID, newer.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{item.ID}, ids(fulfilled, func(i *models.Item) int64 { return i.ID }))

	fulfilled, err = s.ListItemsByRequests(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, fulfilled)
}

func testDeleteCascade(t *testing.T, s domain.Repository) {
	ctx := context.Background()

	owner := mustUser(t, s, "owner")
	booker := mustUser(t, s, "booker")
	item := mustItem(t, s, owner.ID, "Tent", true)
	b := mustBooking(t, s, item.ID, booker.ID, base, base.Add(time.Hour))
	req := &models.ItemRequest{Description: "tent", RequesterID: booker.ID, CreatedAt: base}
	require.NoError(t, s.CreateRequest(ctx, req))
	fulfilling := &models.Item{Name: "Tent 2", Available: true, OwnerID: owner.ID, RequestID: &req.ID}
	require.NoError(t, s.CreateItem(ctx, fulfilling))

	require.NoError(t, s.DeleteUser(ctx, booker.ID))

	_, err := s.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetRequest(ctx, req.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	stored, err := s.GetItem(ctx, fulfilling.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RequestID)

	require.NoError(t, s.DeleteUser(ctx, owner.ID))
	_, err = s.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testConcurrentApprove(t *testing.T, s domain.Repository) {
	ctx := context.Background()

	owner := mustUser(t, s, "owner")
	booker := mustUser(t, s, "booker")
	item := mustItem(t, s, owner.ID, "Tent", true)
	b := mustBooking(t, s, item.ID, booker.ID, base, base.Add(time.Hour))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- s.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.DecisionStatus(i%2 == 0))
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	}
	assert.Equal(t, 1, succeeded, "exactly one versioned update wins")

	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}
