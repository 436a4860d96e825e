package adapter

import (
	"context"
	"time"
)

// Locker serialises work on one key across requests (and across replicas for the Redis backend).
// TryLock blocks until the lock is held or ctx is done, in which case it returns domain.ErrLockBusy.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
