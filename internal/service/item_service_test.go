package service

import (
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem(t *testing.T) {
	f := newFixture(t)
	s := NewItemService(f.store, f.clock, f.logger)

	item, err := s.AddItem(f.ctx, f.owner.ID, &models.Item{Name: "Saw", Description: "hand saw", Available: true, OwnerID: 999})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, f.owner.ID, item.OwnerID, "owner comes from the caller, not the payload")

	_, err = s.AddItem(f.ctx, 999, &models.Item{Name: "Saw", Available: true})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	missing := int64(42)
	_, err = s.AddItem(f.ctx, f.owner.ID, &models.Item{Name: "Saw", Available: true, RequestID: &missing})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	req := &models.ItemRequest{Description: "need a saw", RequesterID: f.booker.ID}
	require.NoError(t, f.store.CreateRequest(f.ctx, req))
	answered, err := s.AddItem(f.ctx, f.owner.ID, &models.Item{Name: "Saw", Available: true, RequestID: &req.ID})
	require.NoError(t, err)
	require.NotNil(t, answered.RequestID)
	assert.Equal(t, req.ID, *answered.RequestID)
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	s := NewItemService(f.store, f.clock, f.logger)

	name := "Hammer drill"
	blank := "  "
	off := false

	_, err := s.UpdateItem(f.ctx, f.other.ID, f.item.ID, models.ItemPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.UpdateItem(f.ctx, f.owner.ID, 999, models.ItemPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := s.UpdateItem(f.ctx, f.owner.ID, f.item.ID, models.ItemPatch{Name: &name, Description: &blank, Available: &off})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, f.item.Description, updated.Description)
	assert.False(t, updated.Available)

	stored, err := f.store.GetItem(f.ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, name, stored.Name)
	assert.False(t, stored.Available)
}

func TestGetItem(t *testing.T) {
	f := newFixture(t)
	s := NewItemService(f.store, f.clock, f.logger)

	lastOld := f.addBooking(t, f.booker.ID, f.item.ID, -72*time.Hour, -48*time.Hour, models.StatusApproved)
	last := f.addBooking(t, f.booker.ID, f.item.ID, -2*time.Hour, -time.Hour, models.StatusApproved)
	f.addBooking(t, f.booker.ID, f.item.ID, time.Hour, 2*time.Hour, models.StatusRejected)
	next := f.addBooking(t, f.other.ID, f.item.ID, 3*time.Hour, 4*time.Hour, models.StatusApproved)
	f.addBooking(t, f.other.ID, f.item.ID, 24*time.Hour, 25*time.Hour, models.StatusApproved)
	require.NotEqual(t, lastOld.ID, last.ID)

	require.NoError(t, f.store.CreateComment(f.ctx, &models.Comment{ItemID: f.item.ID, AuthorID: f.booker.ID, Text: "great", CreatedAt: baseTime}))

	t.Run("owner", func(t *testing.T) {
		view, err := s.GetItem(f.ctx, f.owner.ID, f.item.ID)
		require.NoError(t, err)
		require.NotNil(t, view.LastBooking)
		require.NotNil(t, view.NextBooking)
		assert.Equal(t, last.ID, view.LastBooking.ID)
		assert.Equal(t, next.ID, view.NextBooking.ID)
		assert.Equal(t, f.other.ID, view.NextBooking.BookerID)

		require.Len(t, view.Comments, 1)
		assert.Equal(t, "great", view.Comments[0].Text)
		assert.Equal(t, f.booker.Name, view.Comments[0].AuthorName)
	})

	t.Run("non owner", func(t *testing.T) {
		view, err := s.GetItem(f.ctx, f.booker.ID, f.item.ID)
		require.NoError(t, err)
		assert.Nil(t, view.LastBooking)
		assert.Nil(t, view.NextBooking)
		assert.Len(t, view.Comments, 1)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.GetItem(f.ctx, f.owner.ID, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestListItems(t *testing.T) {
	f := newFixture(t)
	s := NewItemService(f.store, f.clock, f.logger)

	second := f.addItem(t, f.owner.ID, "Ladder", true)
	f.addItem(t, f.other.ID, "Tent", true)
	next := f.addBooking(t, f.booker.ID, second.ID, time.Hour, 2*time.Hour, models.StatusApproved)

	views, err := s.ListItems(f.ctx, f.owner.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, f.item.ID, views[0].ID)
	assert.Nil(t, views[0].NextBooking)
	assert.Equal(t, second.ID, views[1].ID)
	require.NotNil(t, views[1].NextBooking)
	assert.Equal(t, next.ID, views[1].NextBooking.ID)
	assert.NotNil(t, views[1].Comments)

	views, err = s.ListItems(f.ctx, f.owner.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, second.ID, views[0].ID)

	views, err = s.ListItems(f.ctx, f.owner.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = s.ListItems(f.ctx, 999, 0, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.ListItems(f.ctx, f.owner.ID, -1, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSearchItems(t *testing.T) {
	f := newFixture(t)
	s := NewItemService(f.store, f.clock, f.logger)

	f.addItem(t, f.other.ID, "Cordless DRILL", false)
	screwdriver := f.addItem(t, f.other.ID, "Screwdriver", true)

	found, err := s.SearchItems(f.ctx, "drill", 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, f.item.ID, found[0].ID)

	found, err = s.SearchItems(f.ctx, "FOR RENT", 0, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.SearchItems(f.ctx, "screw", 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, screwdriver.ID, found[0].ID)

	found, err = s.SearchItems(f.ctx, "   ", 0, 10)
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestLastAndNext(t *testing.T) {
	now := baseTime
	at := func(id int64, offset time.Duration, status models.BookingStatus) *models.Booking {
		return &models.Booking{ID: id, Start: now.Add(offset), End: now.Add(offset + time.Hour), Status: status}
	}

	last, next := lastAndNext(nil, now)
	assert.Nil(t, last)
	assert.Nil(t, next)

	last, next = lastAndNext([]*models.Booking{
		at(1, -5*time.Hour, models.StatusApproved),
		at(2, -time.Hour, models.StatusWaiting),
		at(3, -2*time.Hour, models.StatusApproved),
		at(4, 0, models.StatusApproved),
		at(5, 5*time.Hour, models.StatusApproved),
		at(6, 2*time.Hour, models.StatusApproved),
		at(7, time.Hour, models.StatusRejected),
	}, now)
	require.NotNil(t, last)
	require.NotNil(t, next)
	assert.Equal(t, int64(3), last.ID)
	assert.Equal(t, int64(6), next.ID)
}
