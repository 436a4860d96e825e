package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
	"edu-tutor/internal/infra/metrics"
)

var _ repository.SessionCache = (*ChatCache)(nil)

// ChatCache keeps full sessions as JSON under chat_session:<id>.
type ChatCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewChatCache(client RedisClient, ttl time.Duration) *ChatCache {
	return &ChatCache{
		client: client,
		ttl:    ttl,
	}
}

// invalidated marks a key that was just written through; it reads as a miss.
const invalidated = "-"

func sessionKey(id model.ID) string { return "chat_session:" + id.String() }

// Fill stores the session with SET NX, so it never replaces an entry or an invalidation marker.
func (c *ChatCache) Fill(ctx context.Context, session *model.ChatSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	_, err = c.client.SetNX(ctx, sessionKey(session.ID), data, c.ttl)
	return err
}

// Get returns (nil, nil) on a miss.
func (c *ChatCache) Get(ctx context.Context, id model.ID) (*model.ChatSession, error) {
	data, err := c.client.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.IncCacheRequest("redis_session", "miss")
			return nil, nil
		}
		return nil, err
	}
	if data == invalidated {
		metrics.IncCacheRequest("redis_session", "miss")
		return nil, nil
	}

	var session model.ChatSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		// unreadable entry: drop it and fall back to the store
		_ = c.client.Del(ctx, sessionKey(id))
		metrics.IncCacheRequest("redis_session", "miss")
		return nil, nil
	}
	metrics.IncCacheRequest("redis_session", "hit")
	return &session, nil
}

func (c *ChatCache) Invalidate(ctx context.Context, id model.ID) error {
	return c.client.Set(ctx, sessionKey(id), invalidated, repository.InvalidationHold)
}
