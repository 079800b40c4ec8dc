package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseWait   = 500 * time.Millisecond
)

// RetryableFunc is an operation that can be attempted more than once
type RetryableFunc func() error

// Option configures Do
type Option func(*options)

type options struct {
	maxRetries int
	baseWait   time.Duration
	maxWait    time.Duration
	onRetry    func(attempt int, err error, wait time.Duration)
}

// WithMaxRetries sets the total number of attempts. Values below one mean a
// single attempt.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithBaseWait sets the wait before the second attempt. It doubles for each
// subsequent attempt.
func WithBaseWait(d time.Duration) Option {
	return func(o *options) {
		o.baseWait = d
	}
}

// WithMaxWait caps the wait between attempts
func WithMaxWait(d time.Duration) Option {
	return func(o *options) {
		o.maxWait = d
	}
}

// WithOnRetry registers a callback invoked before each wait
func WithOnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// Do runs f until it succeeds, returns an error that is not recoverable, or
// the attempts are exhausted. The last error is returned unwrapped.
func Do(ctx context.Context, f RetryableFunc, opts ...Option) error {
	o := options{maxRetries: DefaultMaxRetries, baseWait: DefaultBaseWait}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxRetries < 1 {
		o.maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < o.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff(o.baseWait, o.maxWait, attempt)
			if o.onRetry != nil {
				o.onRetry(attempt, lastErr, wait)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := f()
		if err == nil {
			return nil
		}
		var recoverable *RecoverableError
		if !errors.As(err, &recoverable) {
			return err
		}
		lastErr = recoverable.Err
	}
	return lastErr
}

// Exponential backoff with up to 10% jitter
func backoff(base, max time.Duration, attempt int) time.Duration {
	wait := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if max > 0 && wait > max {
		wait = max
	}
	jitter := time.Duration(rand.Float64() * float64(wait) * 0.1)
	return wait + jitter
}

// RecoverableError marks an error as safe to retry
type RecoverableError struct {
	Err error
}

func NewRecoverableError(err error) *RecoverableError {
	return &RecoverableError{Err: err}
}

func (e *RecoverableError) Error() string {
	return e.Err.Error()
}

func (e *RecoverableError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err is, or wraps, a RecoverableError
func IsRecoverable(err error) bool {
	var recoverable *RecoverableError
	return errors.As(err, &recoverable)
}

// ShouldRetry determines if the given status code should trigger a retry
func ShouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || // 429
		statusCode == http.StatusInternalServerError || // 500
		statusCode == http.StatusServiceUnavailable || // 503
		statusCode == http.StatusGatewayTimeout // 504
}
