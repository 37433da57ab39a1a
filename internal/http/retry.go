package http

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy is an explicit retry policy: total attempt budget,
// backoff curve and a retryable-error predicate. The same policy value
// is shared by the listing fetcher and the download scheduler.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// Cooldown is the backoff before the second attempt.
	Cooldown time.Duration

	// Exponent grows the backoff per attempt. 1.0 means fixed waits.
	Exponent float64

	// MaxBackoff caps the backoff. Zero means no cap.
	MaxBackoff time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Nil means IsTransient.
	Retryable func(error) bool
}

// DefaultRetryPolicy mirrors the historical behavior: three attempts
// with a two second cooldown, doubling and capped at 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Cooldown:    2 * time.Second,
		Exponent:    2.0,
		MaxBackoff:  30 * time.Second,
	}
}

// Attempts returns the attempt budget, at least 1.
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// ShouldRetry reports whether err warrants another attempt.
func (p RetryPolicy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsTransient(err)
}

// Backoff returns the jittered wait before the given attempt number
// (2 for the first retry). Jitter spreads concurrent tasks that failed
// together so they do not retry in lockstep.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 1 || p.Cooldown <= 0 {
		return 0
	}

	exp := p.Exponent
	if exp <= 0 {
		exp = 1.0
	}
	backoff := time.Duration(float64(p.Cooldown) * math.Pow(exp, float64(attempt-2)))
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}

	return time.Duration(float64(backoff) * (0.5 + rand.Float64()))
}

// Wait sleeps for the backoff before attempt, or returns early with the
// context error if ctx is done first.
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	backoff := p.Backoff(attempt)
	if backoff <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}
