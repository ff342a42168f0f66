package llm

import (
	"context"
	"time"

	"reasoning-orchestrator/internal/apperr"
)

// RetryingClient wraps a Client with the exponential-backoff retry loop
// spec §7 describes for UpstreamTimeout/UpstreamRateLimited: up to
// maxAttempts total tries, doubling the base backoff each retry. No
// dedicated backoff library appears anywhere in the retrieved pack, so
// this is hand-rolled (see DESIGN.md) with stdlib time.Sleep/context.
type RetryingClient struct {
	inner       Client
	maxAttempts int
	baseBackoff time.Duration
}

// NewRetryingClient wraps inner with retry/backoff. maxAttempts <= 1
// disables retrying.
func NewRetryingClient(inner Client, maxAttempts int, baseBackoff time.Duration) *RetryingClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingClient{inner: inner, maxAttempts: maxAttempts, baseBackoff: baseBackoff}
}

// Complete retries only on apperr.KindUpstreamTimeout / KindUpstreamRateLimited;
// every other error (including UnknownModel and UpstreamAuth) surfaces
// immediately, matching spec §7's propagation policy.
func (r *RetryingClient) Complete(ctx context.Context, modelID string, messages []Message, params Params) (*Result, error) {
	var lastErr error
	backoff := r.baseBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.inner.Complete(ctx, modelID, messages, params)
		if err == nil {
			return result, nil
		}
		lastErr = err

		ae, ok := err.(*apperr.Error)
		if !ok || !apperr.Retryable(ae.Kind) || attempt == r.maxAttempts {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}
