// Package embedding provides shared failure classification and retry
// behaviour for embedding provider adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/logger"
)

// Default retry policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 8 * time.Second
)

// Policy bounds the retry behaviour for retryable provider failures.
type Policy struct {
	// MaxAttempts caps the total number of calls, including the first.
	MaxAttempts int

	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
}

// DefaultPolicy returns the standard bounded-retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// normalise fills zero fields with defaults.
func (p Policy) normalise() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// Do runs fn with bounded retries. Only rate-limit and transient failures
// are retried; auth and invalid-input failures surface immediately. After
// the attempt cap, the last error is wrapped in EmbeddingExhaustedError so
// callers can see how many attempts were made.
func Do(ctx context.Context, p Policy, fn func() error) error {
	p = p.normalise()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !domain.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt == p.MaxAttempts {
			break
		}

		delay := backoff(p, attempt)
		logger.Debug("Embedding attempt %d/%d failed (%v), retrying in %s",
			attempt, p.MaxAttempts, lastErr, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return &domain.EmbeddingExhaustedError{
		Attempts: p.MaxAttempts,
		LastErr:  lastErr,
	}
}

// backoff computes the exponential delay with full jitter for an attempt.
func backoff(p Policy, attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	// Full jitter: uniform in [d/2, d].
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// ClassifyStatus maps an HTTP status code to the domain error taxonomy.
// A zero status means the request never completed (network failure).
func ClassifyStatus(status int, message string) error {
	switch {
	case status == 0:
		return fmt.Errorf("%w: %s", domain.ErrTransient, message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrAuthFailed, message)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, message)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", domain.ErrTransient, status, message)
	case status >= 400:
		return fmt.Errorf("%w: status %d: %s", domain.ErrInvalidInput, status, message)
	default:
		return fmt.Errorf("unexpected status %d: %s", status, message)
	}
}

// IsFatal reports whether an embedding error should abort the whole
// operation rather than skip one chunk.
func IsFatal(err error) bool {
	return errors.Is(err, domain.ErrAuthFailed)
}
