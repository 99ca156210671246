package database

import (
	"context"
	"io"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	assert.NoError(t, err)
	db.Close() // Close the DB to trigger errors

	ctx := context.Background()
	now := time.Now()

	checks := map[string]func() error{
		"CreateUser": func() error { return db.CreateUser(ctx, &models.User{Name: "a", Email: "a@b.c"}) },
		"UpdateUser": func() error { return db.UpdateUser(ctx, &models.User{ID: 1}) },
		"GetUser":    func() error { _, err := db.GetUser(ctx, 1); return err },
		"ListUsers":  func() error { _, err := db.ListUsers(ctx); return err },
		"DeleteUser": func() error { return db.DeleteUser(ctx, 1) },
		"CreateItem": func() error { return db.CreateItem(ctx, &models.Item{OwnerID: 1}) },
		"UpdateItem": func() error { return db.UpdateItem(ctx, &models.Item{ID: 1}) },
		"GetItem":    func() error { _, err := db.GetItem(ctx, 1); return err },
		"ListItems":  func() error { _, err := db.ListItems(ctx, 0, models.Page{}); return err },
		"Search":     func() error { _, err := db.SearchItems(ctx, "x", models.Page{}); return err },
		"ByRequests": func() error { _, err := db.ListItemsByRequests(ctx, []int64{1}); return err },
		"CreateBooking": func() error {
			return db.CreateBookingWithLock(ctx, &models.Booking{ItemID: 1, BookerID: 2, Start: now, End: now.Add(time.Hour)})
		},
		"GetBooking":    func() error { _, err := db.GetBooking(ctx, 1); return err },
		"UpdateStatus":  func() error { return db.UpdateBookingStatusWithVersion(ctx, 1, 1, models.StatusApproved) },
		"ListBookings":  func() error { _, err := db.ListBookings(ctx, models.BookingFilter{Now: now}); return err },
		"CreateComment": func() error { return db.CreateComment(ctx, &models.Comment{ItemID: 1, AuthorID: 1, Text: "x"}) },
		"ListComments":  func() error { _, err := db.ListCommentsByItems(ctx, []int64{1}); return err },
		"CreateRequest": func() error { return db.CreateRequest(ctx, &models.ItemRequest{RequesterID: 1}) },
		"GetRequest":    func() error { _, err := db.GetRequest(ctx, 1); return err },
		"ListRequests":  func() error { _, err := db.ListRequests(ctx, 1, false, models.Page{}); return err },
		"Ping":          func() error { return db.Ping(ctx) },
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			err := check()
			assert.Error(t, err)
			assert.Nil(t, domain.KindOf(err), "closed database must not look like a rule failure")
		})
	}
}

func TestListBookingsRejectsUnknownState(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.ListBookings(context.Background(), models.BookingFilter{State: "SOMETIME", Now: time.Now()})
	assert.Error(t, err)
}
