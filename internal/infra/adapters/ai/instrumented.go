package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"edu-tutor/internal/domain/ports/adapter"
	"edu-tutor/internal/infra/logging"
	"edu-tutor/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*instrumentedAI)(nil)

// instrumentedAI records latency, outcome and token usage of every completion.
type instrumentedAI struct {
	inner adapter.AIServiceAdapter
	log   *zerolog.Logger
}

func NewInstrumentedAI(inner adapter.AIServiceAdapter, logger *zerolog.Logger) adapter.AIServiceAdapter {
	return &instrumentedAI{inner: inner, log: logger}
}

func (i *instrumentedAI) Provider() string { return i.inner.Provider() }

func (i *instrumentedAI) ListModels(ctx context.Context) ([]string, error) {
	return i.inner.ListModels(ctx)
}

func (i *instrumentedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return i.inner.CountTokens(ctx, model, messages)
}

func (i *instrumentedAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := i.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (i *instrumentedAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	start := time.Now()
	reply, usage, err := i.inner.ChatWithUsage(ctx, model, messages)
	elapsed := time.Since(start)
	metrics.ObserveAICall(i.inner.Provider(), model, usage.PromptTokens, usage.CompletionTokens, elapsed, err == nil)
	logging.With(ctx, i.log).Debug().
		Str("provider", i.inner.Provider()).
		Str("model", model).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Dur("elapsed", elapsed).
		Bool("ok", err == nil).
		Msg("ai call")
	return reply, usage, err
}
