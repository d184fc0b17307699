package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/amishk599/jobfeeds/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockGetter calls a function on each invocation, tracking call count.
type mockGetter struct {
	calls int
	fn    func(attempt int) ([]byte, error)
}

func (m *mockGetter) Get(_ context.Context, _ string, _ http.Header) ([]byte, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := &mockGetter{fn: func(_ int) ([]byte, error) { return []byte("ok"), nil }}

	g := NewRetryGetter(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := g.Get(context.Background(), "http://x", nil)
	if err != nil || string(got) != "ok" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx(t *testing.T) {
	mock := &mockGetter{fn: func(attempt int) ([]byte, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return []byte("ok"), nil
	}}

	g := NewRetryGetter(mock, 2, 10*time.Millisecond, discardLogger())
	if _, err := g.Get(context.Background(), "http://x", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_NoRetryOn4xx(t *testing.T) {
	mock := &mockGetter{fn: func(_ int) ([]byte, error) {
		return nil, &model.HTTPError{StatusCode: 404}
	}}

	g := NewRetryGetter(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := g.Get(context.Background(), "http://x", nil)

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("err = %v, want 404", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_ExhaustsRetries(t *testing.T) {
	mock := &mockGetter{fn: func(_ int) ([]byte, error) {
		return nil, errors.New("connection reset")
	}}

	g := NewRetryGetter(mock, 2, 5*time.Millisecond, discardLogger())
	if _, err := g.Get(context.Background(), "http://x", nil); err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.calls)
	}
}

func TestRetry_UsesRetryAfter(t *testing.T) {
	g := NewRetryGetter(nil, 2, time.Second, discardLogger())
	d := g.backoffDelay(1, &model.HTTPError{StatusCode: 429, RetryAfter: 7 * time.Second})
	if d != 7*time.Second {
		t.Errorf("delay = %v, want 7s", d)
	}
}

func TestRetry_StopsWhenDeadlineTooClose(t *testing.T) {
	mock := &mockGetter{fn: func(_ int) ([]byte, error) {
		return nil, &model.HTTPError{StatusCode: 502}
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	g := NewRetryGetter(mock, 3, time.Second, discardLogger())
	if _, err := g.Get(ctx, "http://x", nil); err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Errorf("expected no retry past the deadline, got %d calls", mock.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{&model.ConfigError{Msg: "missing"}, false},
		{&model.HTTPError{StatusCode: 429}, true},
		{&model.HTTPError{StatusCode: 500}, true},
		{&model.HTTPError{StatusCode: 403}, false},
		{errors.New("dial tcp: timeout"), true},
	}
	for _, tt := range tests {
		if got := isRetryable(tt.err); got != tt.want {
			t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
