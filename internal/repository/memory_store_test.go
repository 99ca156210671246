package repository

import (
	"context"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Repository {
		return NewMemoryStore()
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u := &models.User{Name: "ann", Email: "ann@example.com"}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", again.Name)
	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.Close())
}
