package service

import (
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService(t *testing.T) {
	f := newFixture(t)
	s := NewUserService(f.store, f.logger)

	user, err := s.AddUser(f.ctx, &models.User{ID: 77, Name: " Ann ", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, int64(77), user.ID)
	assert.Equal(t, "Ann", user.Name)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.AddUser(f.ctx, &models.User{Name: "Ann2", Email: "ANN@example.com"})
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("blank fields", func(t *testing.T) {
		_, err := s.AddUser(f.ctx, &models.User{Name: "", Email: "x@example.com"})
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("update", func(t *testing.T) {
		name := "Anna"
		updated, err := s.UpdateUser(f.ctx, user.ID, models.UserPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Anna", updated.Name)
		assert.Equal(t, "ann@example.com", updated.Email)

		taken := f.owner.Email
		_, err = s.UpdateUser(f.ctx, user.ID, models.UserPatch{Email: &taken})
		assert.ErrorIs(t, err, domain.ErrInvalidState)

		_, err = s.UpdateUser(f.ctx, 999, models.UserPatch{Name: &name})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		users, err := s.ListUsers(f.ctx)
		require.NoError(t, err)
		assert.Len(t, users, 4)
	})

	t.Run("delete cascades", func(t *testing.T) {
		f.addBooking(t, f.booker.ID, f.item.ID, time.Hour, 2*time.Hour, models.StatusWaiting)
		require.NoError(t, s.DeleteUser(f.ctx, f.owner.ID))

		_, err := s.GetUser(f.ctx, f.owner.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = f.store.GetItem(f.ctx, f.item.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		bookings, err := f.store.ListBookings(f.ctx, models.BookingFilter{BookerID: f.booker.ID, Now: baseTime})
		require.NoError(t, err)
		assert.Empty(t, bookings)

		assert.ErrorIs(t, s.DeleteUser(f.ctx, f.owner.ID), domain.ErrNotFound)
	})
}
