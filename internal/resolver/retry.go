package resolver

import (
	"context"
	"time"

	"adspotly/internal/domain"

	"go.uber.org/zap"
)

// RetryPolicy bounds whole-resolution retries on constrained networks
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy matches the historical mobile behavior: three
// passes with a short fixed delay.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: 700 * time.Millisecond}

// ResolveWithRetry re-runs resolution when a constrained client got no
// design on the first pass, covering the eventual-consistency window
// right after a design is created. Validation errors never retry, and
// unconstrained requests get exactly one pass.
func (e *Engine) ResolveWithRetry(ctx context.Context, p Params, policy RetryPolicy) (*domain.ResolvedAd, error) {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	var res *domain.ResolvedAd
	var err error

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		res, err = e.Resolve(ctx, p)
		if err != nil {
			// Only validation can fail, and bad input stays bad.
			return nil, err
		}

		if !p.Constrained || res.DesignID != "" || attempt == policy.Attempts {
			return res, nil
		}

		e.log.Info("no design found, retrying resolution",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.Attempts))

		select {
		case <-ctx.Done():
			return res, nil
		case <-time.After(policy.Delay):
		}
	}

	return res, err
}
