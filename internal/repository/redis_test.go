package repository

import (
	"context"
	"testing"
	"time"

	"shareit/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisThrottleRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisThrottleRepository(client, "test")
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(789)
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		assert.True(t, s.Exists("test:rate_limit:789"))
		assert.Equal(t, window, s.TTL("test:rate_limit:789"))

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("UsersAreIndependent", func(t *testing.T) {
		allowed, err := repo.CheckRateLimit(ctx, 1, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, 2, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("ServerDown", func(t *testing.T) {
		down, err := miniredis.Run()
		require.NoError(t, err)
		downClient := redis.NewClient(&redis.Options{Addr: down.Addr(), MaxRetries: -1})
		defer downClient.Close()
		down.Close()

		_, err = NewRedisThrottleRepository(downClient, "").CheckRateLimit(ctx, 1, 1, time.Minute)
		assert.Error(t, err)
		assert.Error(t, Ping(ctx, downClient))
	})

	t.Run("NilClient", func(t *testing.T) {
		_, err := NewRedisThrottleRepository(nil, "").CheckRateLimit(ctx, 1, 1, time.Minute)
		assert.Error(t, err)
	})
}
