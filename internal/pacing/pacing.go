// Package pacing throttles page requests against the remote rate limit.
package pacing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Policy names accepted by New.
const (
	PolicyFixed       = "fixed"
	PolicyTokenBucket = "token_bucket"
	PolicyNone        = "none"
)

// DefaultInterval is the pause between page requests.
const DefaultInterval = time.Second

// Pacer is consulted once at every page boundary, before the next request.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Fixed blocks for a constant interval on every call.
type Fixed struct {
	Interval time.Duration
}

// Wait sleeps for the interval or until ctx is done.
func (f Fixed) Wait(ctx context.Context) error {
	if f.Interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.Interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenBucket spaces calls at an average of one per interval, allowing
// bursts of up to burst calls. The first burst calls return immediately.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a TokenBucket refilling one token per interval.
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

// Wait blocks until a token is available.
func (t *TokenBucket) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// None never blocks.
type None struct{}

// Wait only reports context cancellation.
func (None) Wait(ctx context.Context) error { return ctx.Err() }

// New builds a Pacer from a policy name.
func New(policy string, interval time.Duration, burst int) (Pacer, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	switch strings.ToLower(policy) {
	case "", PolicyFixed:
		return Fixed{Interval: interval}, nil
	case PolicyTokenBucket:
		return NewTokenBucket(interval, burst), nil
	case PolicyNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown pacing policy %q", policy)
	}
}
