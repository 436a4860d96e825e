package ai

import (
	"context"
	"errors"
	"time"

	"edu-tutor/internal/domain/ports/adapter"
	"edu-tutor/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*retryingAI)(nil)

// retryingAI retries completions with linear backoff. Context errors are never retried.
type retryingAI struct {
	inner   adapter.AIServiceAdapter
	retries int
	backoff time.Duration
}

func NewRetryingAI(inner adapter.AIServiceAdapter, maxRetries int, backoff time.Duration) adapter.AIServiceAdapter {
	if maxRetries <= 0 {
		return inner
	}
	return &retryingAI{inner: inner, retries: maxRetries, backoff: backoff}
}

func (r *retryingAI) Provider() string { return r.inner.Provider() }

func (r *retryingAI) ListModels(ctx context.Context) ([]string, error) {
	return r.inner.ListModels(ctx)
}

func (r *retryingAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return r.inner.CountTokens(ctx, model, messages)
}

func (r *retryingAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := r.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (r *retryingAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	var (
		reply string
		usage adapter.Usage
		err   error
	)
	for attempt := 0; ; attempt++ {
		reply, usage, err = r.inner.ChatWithUsage(ctx, model, messages)
		if err == nil || attempt >= r.retries || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return reply, usage, err
		}
		metrics.IncAIRetry(r.inner.Provider())
		select {
		case <-time.After(r.backoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			return "", adapter.Usage{}, ctx.Err()
		}
	}
}
