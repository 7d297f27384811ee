// Package messenger contains the delivery channel implementations. Each
// channel serializes the platform-agnostic notification into its own
// payload schema and handles its own credentials, rate limiting, and
// degraded-delivery fallbacks.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "request_id"

// Common error types used by the delivery channels

// RateLimitError represents a 429 rate limit error from a messaging API.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a messaging API.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a messaging API.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// is429Error checks if the error is a rate limit error and extracts retry_after.
func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// isRetryableError checks if the error is worth retrying (5xx server
// errors, network errors). Client errors (4xx) are not retryable except
// for rate limits (429), which are handled separately.
func isRetryableError(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false
	}

	return true
}

// sendWithRetry runs fn with the shared delivery retry strategy.
//
// Retry strategy:
//   - Max attempts: 2
//   - Base delay: 5 seconds, scaled by attempt
//   - Rate limit errors: wait the reported retry_after instead
//   - Client errors (4xx): no retry, fail immediately
func sendWithRetry(ctx context.Context, channel string, fn func() error) error {
	const (
		maxAttempts = 2
		baseDelay   = 5 * time.Second
	)

	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		delay := baseDelay * time.Duration(attempt)
		if rateLimitErr, ok := is429Error(lastErr); ok {
			delay = rateLimitErr.RetryAfter
		} else if !isRetryableError(lastErr) {
			return lastErr
		}

		if attempt == maxAttempts {
			break
		}

		slog.Warn("delivery attempt failed, retrying",
			slog.String("channel", channel),
			slog.String("request_id", requestID),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}
	return lastErr
}

// signString maps a signed percentage to its direction marker.
func signString(v float64) string {
	switch {
	case v > 0:
		return "🟢"
	case v < 0:
		return "🔴"
	default:
		return "⚪"
	}
}
