package localcache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/ports/adapter"
)

var _ adapter.Locker = (*Locker)(nil)

type lease struct {
	token   string
	expires time.Time
	release chan struct{}
}

// Locker is a keyed mutex with lease expiry, for a single replica.
type Locker struct {
	mu     sync.Mutex
	leases map[string]*lease
	now    func() time.Time
}

func NewLocker() *Locker {
	return &Locker{leases: make(map[string]*lease), now: time.Now}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	for {
		l.mu.Lock()
		cur, held := l.leases[key]
		if held && l.now().After(cur.expires) {
			close(cur.release)
			delete(l.leases, key)
			held = false
		}
		if !held {
			tok := uuid.NewString()
			l.leases[key] = &lease{token: tok, expires: l.now().Add(ttl), release: make(chan struct{})}
			l.mu.Unlock()
			return tok, nil
		}
		wait := cur.release
		remaining := cur.expires.Sub(l.now())
		l.mu.Unlock()

		t := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", domain.ErrLockBusy
		case <-wait:
		case <-t.C:
		}
		t.Stop()
	}
}

// Unlock is a no-op when the token no longer owns the key.
func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.leases[key]
	if !ok || cur.token != token {
		return nil
	}
	close(cur.release)
	delete(l.leases, key)
	return nil
}
