package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrFeedNotFound is returned by feed stores when no feed has the given id.
var ErrFeedNotFound = errors.New("feed not found")

// ErrProviderUnavailable is returned when a feed's provider id cannot be
// resolved to a working provider instance.
var ErrProviderUnavailable = errors.New("provider not available")

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ConfigError reports a feed that cannot be processed because of its own
// configuration (missing url, missing publisher id). It is raised before any
// network call is made.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Msg
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Msg)
}
