package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amishk599/jobfeeds/internal/model"
)

// HostRateLimiter enforces a minimum delay between requests to the same host.
type HostRateLimiter struct {
	mu        sync.Mutex
	lastCall  map[string]time.Time // key: host
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewHostRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same host. overrides replaces minDelay for
// specific hosts.
func NewHostRateLimiter(minDelay time.Duration, overrides map[string]time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		lastCall:  make(map[string]time.Time),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (r *HostRateLimiter) delayFor(host string) time.Duration {
	if d, ok := r.overrides[host]; ok {
		return d
	}
	return r.minDelay
}

// Wait blocks until enough time has passed since the last request to host.
// Returns an error if the context is cancelled while waiting.
func (r *HostRateLimiter) Wait(ctx context.Context, host string) error {
	r.mu.Lock()
	last, ok := r.lastCall[host]
	now := time.Now()
	minDelay := r.delayFor(host)

	if !ok || now.Sub(last) >= minDelay {
		r.lastCall[host] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot so concurrent callers queue behind it.
	next := last.Add(minDelay)
	r.lastCall[host] = next
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	case <-time.After(time.Until(next)):
	}
	return nil
}

// RateLimitedGetter is a decorator that enforces per-host rate limiting
// before delegating to the wrapped Getter.
type RateLimitedGetter struct {
	inner   model.Getter
	limiter *HostRateLimiter
}

// NewRateLimitedGetter wraps a Getter with per-host rate limiting.
func NewRateLimitedGetter(inner model.Getter, limiter *HostRateLimiter) *RateLimitedGetter {
	return &RateLimitedGetter{inner: inner, limiter: limiter}
}

// Get waits for the limiter to allow a request to the URL's host, then
// delegates to the wrapped getter.
func (g *RateLimitedGetter) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		if err := g.limiter.Wait(ctx, strings.ToLower(u.Hostname())); err != nil {
			return nil, err
		}
	}
	return g.inner.Get(ctx, rawURL, header)
}
