package localcache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"edu-tutor/internal/domain/ports/adapter"
)

var _ adapter.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is the in-process fixed-window counter.
type RateLimiter struct {
	mu sync.Mutex
	c  *gocache.Cache
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{c: gocache.New(time.Minute, 5*time.Minute)}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Add fails when the window is already open
	_ = r.c.Add(key, 0, window)
	n, err := r.c.IncrementInt(key, 1)
	if err != nil {
		return false, err
	}
	return n <= limit, nil
}
