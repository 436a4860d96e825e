// Package localcache holds the single-process stand-ins for the Redis backed adapters.
package localcache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
	"edu-tutor/internal/infra/metrics"
)

var _ repository.SessionCache = (*SessionCache)(nil)

// SessionCache keeps clones in process memory. A value of invalidated marks a key whose
// session was just written through.
type SessionCache struct {
	c *gocache.Cache
}

type invalidated struct{}

func NewSessionCache(ttl time.Duration) *SessionCache {
	return &SessionCache{c: gocache.New(ttl, 2*ttl)}
}

func (s *SessionCache) Get(ctx context.Context, id model.ID) (*model.ChatSession, error) {
	v, ok := s.c.Get(id.String())
	cached, isSession := v.(*model.ChatSession)
	if !ok || !isSession {
		metrics.IncCacheRequest("local_session", "miss")
		return nil, nil
	}
	metrics.IncCacheRequest("local_session", "hit")
	return cached.Clone(), nil
}

func (s *SessionCache) Fill(ctx context.Context, session *model.ChatSession) error {
	// Add fails when the key holds a session or an invalidation marker
	_ = s.c.Add(session.ID.String(), session.Clone(), gocache.DefaultExpiration)
	return nil
}

func (s *SessionCache) Invalidate(ctx context.Context, id model.ID) error {
	s.c.Set(id.String(), invalidated{}, repository.InvalidationHold)
	return nil
}
