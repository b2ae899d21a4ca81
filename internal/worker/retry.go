package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"worker/internal/providers/sogni"
)

// ErrAttemptsExhausted wraps the final failure once every retry attempt of
// a retryable operation has been spent.
var ErrAttemptsExhausted = errors.New("attempts exhausted")

// RetryPolicy retries a fallible operation with exponential backoff.
// Only errors the classifier marks retryable are retried; anything else
// propagates immediately.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
}

// DefaultRetryPolicy returns the provider retry defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Base:        500 * time.Millisecond,
		Cap:         15 * time.Second,
	}
}

// Do runs op until it succeeds, fails fatally, or exhausts MaxAttempts.
func (p RetryPolicy) Do(ctx context.Context, retryable func(error) bool, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff(attempt)):
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrAttemptsExhausted, p.MaxAttempts, lastErr)
}

// backoff doubles per attempt from Base, capped at Cap.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.Cap {
			return p.Cap
		}
	}
	return d
}

// IsRateLimited classifies provider errors: HTTP 429 and rate-limit
// signals are the retryable case, everything else is fatal.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *sogni.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "ratelimit")
}
