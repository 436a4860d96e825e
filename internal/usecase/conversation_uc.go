// File: internal/usecase/conversation_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
	"edu-tutor/internal/infra/logging"
)

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

const chatNotFound = "Chat not found"

// ConversationUseCase owns chat session persistence. Every owner-scoped call reports an absent
// session and someone else's session the same way: a NotFound error.
type ConversationUseCase interface {
	CreateSession(ctx context.Context, ownerID model.ID, firstMessage string, g model.Grouping, msgs ...model.ChatMessage) (*model.ChatSession, error)
	AppendMessages(ctx context.Context, sessionID, ownerID model.ID, msgs ...model.ChatMessage) error
	GetSession(ctx context.Context, sessionID, ownerID model.ID) (*model.ChatSession, error)
	// LoadSession reads from storage, skipping the cache.
	LoadSession(ctx context.Context, sessionID, ownerID model.ID) (*model.ChatSession, error)
	ListSessions(ctx context.Context, ownerID model.ID, f repository.SessionFilter) ([]model.SessionSummary, error)
	DeleteSession(ctx context.Context, sessionID, ownerID model.ID) error
}

type conversationUC struct {
	sessions repository.ChatSessionRepository
	cache    repository.SessionCache // optional
	log      *zerolog.Logger
	now      func() time.Time
}

func NewConversationUseCase(sessions repository.ChatSessionRepository, cache repository.SessionCache, logger *zerolog.Logger) *conversationUC {
	return &conversationUC{
		sessions: sessions,
		cache:    cache,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (c *conversationUC) CreateSession(ctx context.Context, ownerID model.ID, firstMessage string, g model.Grouping, msgs ...model.ChatMessage) (*model.ChatSession, error) {
	defer logging.TraceDuration(c.log, "ConversationUC.CreateSession")()

	if ownerID.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	at := c.now()
	if len(msgs) > 0 {
		at = msgs[0].Timestamp
	}
	s := model.NewChatSession(ownerID, firstMessage, g, at)
	s.AddMessages(msgs...)
	if err := c.sessions.Create(ctx, nil, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (c *conversationUC) AppendMessages(ctx context.Context, sessionID, ownerID model.ID, msgs ...model.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	at := msgs[len(msgs)-1].Timestamp
	err := c.sessions.AppendMessages(ctx, nil, sessionID, ownerID, msgs, at)
	c.invalidate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrNotFound, chatNotFound)
		}
		return fmt.Errorf("append messages: %w", err)
	}
	return nil
}

func (c *conversationUC) GetSession(ctx context.Context, sessionID, ownerID model.ID) (*model.ChatSession, error) {
	if c.cache != nil {
		if s, err := c.cache.Get(ctx, sessionID); err != nil {
			c.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("session cache read failed")
		} else if s != nil {
			if !s.OwnedBy(ownerID) {
				return nil, domain.NewError(domain.ErrNotFound, chatNotFound)
			}
			return s, nil
		}
	}

	s, err := c.LoadSession(ctx, sessionID, ownerID)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Fill(ctx, s); err != nil {
			c.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("session cache write failed")
		}
	}
	return s, nil
}

func (c *conversationUC) LoadSession(ctx context.Context, sessionID, ownerID model.ID) (*model.ChatSession, error) {
	s, err := c.sessions.FindByID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, chatNotFound)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !s.OwnedBy(ownerID) {
		return nil, domain.NewError(domain.ErrNotFound, chatNotFound)
	}
	return s, nil
}

func (c *conversationUC) ListSessions(ctx context.Context, ownerID model.ID, f repository.SessionFilter) ([]model.SessionSummary, error) {
	out, err := c.sessions.ListByUser(ctx, nil, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (c *conversationUC) DeleteSession(ctx context.Context, sessionID, ownerID model.ID) error {
	defer logging.TraceDuration(c.log, "ConversationUC.DeleteSession")()

	err := c.sessions.Delete(ctx, nil, sessionID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrNotFound, chatNotFound)
		}
		return fmt.Errorf("delete session: %w", err)
	}
	c.invalidate(ctx, sessionID)
	return nil
}

func (c *conversationUC) invalidate(ctx context.Context, id model.ID) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, id); err != nil {
		c.log.Warn().Err(err).Str("session_id", id.String()).Msg("session cache invalidate failed")
	}
}
