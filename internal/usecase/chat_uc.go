// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"edu-tutor/internal/config"
	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/adapter"
	"edu-tutor/internal/infra/logging"
	"edu-tutor/internal/infra/metrics"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

type ChatInput struct {
	UserID    model.ID
	SessionID model.ID // zero starts a new session
	ProjectID model.ID // only meaningful for new sessions in project mode
	Message   string
}

type ChatReply struct {
	Response string
	// SessionID is zero when a rejected question was not persisted.
	SessionID model.ID
	Title     string
	Grouping  model.Grouping
	Rejected  bool
}

type ChatUseCase interface {
	Send(ctx context.Context, in ChatInput) (*ChatReply, error)
	ListModels(ctx context.Context) ([]string, error)
}

// ChatDeps groups the optional collaborators of the orchestrator.
type ChatDeps struct {
	Locker  adapter.Locker      // nil disables per-session serialisation
	Limiter adapter.RateLimiter // nil disables rate limiting
}

type chatUC struct {
	conv     ConversationUseCase
	grouping GroupingStrategy
	ai       adapter.AIServiceAdapter
	deps     ChatDeps
	chatCfg  config.ChatConfig
	aiCfg    config.AIConfig
	log      *zerolog.Logger
	now      func() time.Time
}

func NewChatUseCase(conv ConversationUseCase, grouping GroupingStrategy, ai adapter.AIServiceAdapter, deps ChatDeps, chatCfg config.ChatConfig, aiCfg config.AIConfig, logger *zerolog.Logger) *chatUC {
	return &chatUC{
		conv:     conv,
		grouping: grouping,
		ai:       ai,
		deps:     deps,
		chatCfg:  chatCfg,
		aiCfg:    aiCfg,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (c *chatUC) Send(ctx context.Context, in ChatInput) (*ChatReply, error) {
	defer logging.TraceDuration(c.log, "ChatUC.Send")()

	if strings.TrimSpace(in.Message) == "" {
		return nil, domain.NewError(domain.ErrValidation, "message is required")
	}
	if err := c.allow(ctx, in.UserID); err != nil {
		return nil, err
	}

	if in.SessionID.IsZero() {
		reply, err := c.startSession(ctx, in)
		c.countTurn(reply, err)
		return reply, err
	}

	if c.chatCfg.SerializeSessions && c.deps.Locker != nil {
		key := "lock:chat_session:" + in.SessionID.String()
		token, err := c.deps.Locker.TryLock(ctx, key, c.chatCfg.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockBusy) {
				return nil, domain.NewError(domain.ErrConflict, "This chat is busy with another message, please retry")
			}
			return nil, fmt.Errorf("lock session: %w", err)
		}
		defer func() {
			// the request context may already be cancelled
			if err := c.deps.Locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				c.log.Warn().Err(err).Str("session_id", in.SessionID.String()).Msg("unlock failed")
			}
		}()
	}
	reply, err := c.continueSession(ctx, in)
	c.countTurn(reply, err)
	return reply, err
}

func (c *chatUC) startSession(ctx context.Context, in ChatInput) (*ChatReply, error) {
	asg, err := c.grouping.Assign(ctx, in.UserID, in.ProjectID, in.Message)
	if err != nil {
		return nil, err
	}
	userTurn := model.NewChatMessage(model.RoleUser, in.Message, c.now())

	if asg.Rejected {
		reply := &ChatReply{Response: Refusal, Title: model.DeriveTitle(in.Message), Grouping: asg.Grouping, Rejected: true}
		if !asg.Persist {
			return reply, nil
		}
		s, err := c.conv.CreateSession(ctx, in.UserID, in.Message, asg.Grouping,
			userTurn, model.NewChatMessage(model.RoleAssistant, Refusal, c.now()))
		if err != nil {
			return nil, err
		}
		metrics.IncSessionCreated(c.grouping.Mode())
		reply.SessionID = s.ID
		return reply, nil
	}

	prompt := buildPrompt(nil, userTurn)
	if err := c.precheck(ctx, prompt); err != nil {
		return nil, err
	}

	var s *model.ChatSession
	if c.chatCfg.PersistUserTurnFirst {
		if s, err = c.conv.CreateSession(ctx, in.UserID, in.Message, asg.Grouping, userTurn); err != nil {
			return nil, err
		}
		metrics.IncSessionCreated(c.grouping.Mode())
	}

	answer, err := c.complete(logging.WithUserID(ctx, in.UserID.String()), prompt)
	if err != nil {
		return nil, err
	}
	assistantTurn := model.NewChatMessage(model.RoleAssistant, answer, c.now())

	if s == nil {
		if s, err = c.conv.CreateSession(ctx, in.UserID, in.Message, asg.Grouping, userTurn, assistantTurn); err != nil {
			return nil, err
		}
		metrics.IncSessionCreated(c.grouping.Mode())
	} else if err := c.conv.AppendMessages(ctx, s.ID, in.UserID, assistantTurn); err != nil {
		return nil, err
	}
	return &ChatReply{Response: answer, SessionID: s.ID, Title: s.Title, Grouping: s.Grouping}, nil
}

// continueSession builds the prompt from stored history, never from the read cache.
func (c *chatUC) continueSession(ctx context.Context, in ChatInput) (*ChatReply, error) {
	s, err := c.conv.LoadSession(ctx, in.SessionID, in.UserID)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithSessID(logging.WithUserID(ctx, in.UserID.String()), s.ID.String())

	userTurn := model.NewChatMessage(model.RoleUser, in.Message, c.now())
	prompt := buildPrompt(s.Messages, userTurn)
	if err := c.precheck(ctx, prompt); err != nil {
		return nil, err
	}

	persisted := false
	if c.chatCfg.PersistUserTurnFirst {
		if err := c.conv.AppendMessages(ctx, s.ID, in.UserID, userTurn); err != nil {
			return nil, err
		}
		persisted = true
	}

	answer, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	assistantTurn := model.NewChatMessage(model.RoleAssistant, answer, c.now())

	turns := []model.ChatMessage{userTurn, assistantTurn}
	if persisted {
		turns = turns[1:]
	}
	if err := c.conv.AppendMessages(ctx, s.ID, in.UserID, turns...); err != nil {
		return nil, err
	}
	return &ChatReply{Response: answer, SessionID: s.ID, Title: s.Title, Grouping: s.Grouping}, nil
}

// buildPrompt is the system instruction followed by the full history, roles and content only.
func buildPrompt(history []model.ChatMessage, next model.ChatMessage) []adapter.Message {
	out := make([]adapter.Message, 0, len(history)+2)
	out = append(out, adapter.Message{Role: "system", Content: SystemInstruction})
	for _, m := range history {
		out = append(out, adapter.Message{Role: string(m.Role), Content: m.Content})
	}
	return append(out, adapter.Message{Role: string(next.Role), Content: next.Content})
}

func (c *chatUC) precheck(ctx context.Context, prompt []adapter.Message) error {
	if c.aiCfg.MaxPromptTokens <= 0 {
		return nil
	}
	n, err := c.ai.CountTokens(ctx, c.aiCfg.DefaultModel, prompt)
	if err != nil {
		// counting is best-effort; the provider enforces its own limits
		c.log.Debug().Err(err).Msg("token count unavailable, skipping precheck")
		return nil
	}
	if n > c.aiCfg.MaxPromptTokens {
		metrics.PrecheckBlocked(c.ai.Provider(), c.aiCfg.DefaultModel)
		return domain.NewError(domain.ErrValidation, "This conversation is too long, please start a new chat")
	}
	return nil
}

func (c *chatUC) complete(ctx context.Context, prompt []adapter.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.aiCfg.Timeout)
	defer cancel()

	answer, err := c.ai.Chat(callCtx, c.aiCfg.DefaultModel, prompt)
	if err != nil {
		logging.With(ctx, c.log).Error().Err(err).Str("provider", c.ai.Provider()).Msg("completion failed")
		return "", domain.NewError(domain.ErrUpstream, "Error generating response")
	}
	return answer, nil
}

func (c *chatUC) allow(ctx context.Context, userID model.ID) error {
	if c.deps.Limiter == nil || c.chatCfg.RateLimitPerMinute <= 0 {
		return nil
	}
	ok, err := c.deps.Limiter.Allow(ctx, "rate_limit:chat:"+userID.String(), c.chatCfg.RateLimitPerMinute, time.Minute)
	if err != nil {
		c.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		return nil
	}
	if !ok {
		metrics.IncRateLimited()
		return domain.NewError(domain.ErrRateLimited, "Too many messages, please wait a minute")
	}
	return nil
}

func (c *chatUC) countTurn(reply *ChatReply, err error) {
	switch {
	case err != nil:
		metrics.IncChatTurn("failed")
	case reply.Rejected:
		metrics.IncChatTurn("rejected")
	default:
		metrics.IncChatTurn("replied")
	}
}

func (c *chatUC) ListModels(ctx context.Context) ([]string, error) {
	return c.ai.ListModels(ctx)
}
