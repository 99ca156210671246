package repository

import (
	"context"
	"sync"
	"time"
)

const sweepThreshold = 1024

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryThrottleRepository is the process-local counterpart of
// RedisThrottleRepository.
type MemoryThrottleRepository struct {
	mu      sync.Mutex
	entries map[int64]*rateLimitEntry
	now     func() time.Time
}

func NewMemoryThrottleRepository() *MemoryThrottleRepository {
	return &MemoryThrottleRepository{
		entries: make(map[int64]*rateLimitEntry),
		now:     time.Now,
	}
}

func (r *MemoryThrottleRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= sweepThreshold {
		r.sweepLocked(now)
	}

	entry, ok := r.entries[userID]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.entries[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

// sweepLocked drops windows that have already closed.
func (r *MemoryThrottleRepository) sweepLocked(now time.Time) {
	for id, entry := range r.entries {
		if !now.Before(entry.expiresAt) {
			delete(r.entries, id)
		}
	}
}
