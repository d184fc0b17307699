package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/jobfeeds/internal/model"
)

// RetryGetter is a decorator that retries transient failures with exponential
// backoff and jitter before giving up on a GET.
type RetryGetter struct {
	inner      model.Getter
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryGetter wraps a Getter with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryGetter(inner model.Getter, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryGetter {
	return &RetryGetter{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Get performs the request, retrying on transient errors.
func (g *RetryGetter) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	body, err := g.inner.Get(ctx, url, header)
	if err == nil {
		return body, nil
	}
	if !isRetryable(err) {
		return nil, err
	}

	lastErr := err
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		delay := g.backoffDelay(attempt, lastErr)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			return nil, lastErr
		}

		g.logger.Warn("retrying after transient error",
			"url", url,
			"attempt", attempt,
			"max_retries", g.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		body, err = g.inner.Get(ctx, url, header)
		if err == nil {
			return body, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (g *RetryGetter) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := g.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Cancelled or timed out: give up.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var cfgErr *model.ConfigError
	if errors.As(err, &cfgErr) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	// Network, DNS and similar.
	return true
}
