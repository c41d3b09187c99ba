// Package throttle paces how fast documents are emitted.
package throttle

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttle admits documents at a steady rate.
type Throttle struct {
	limiter *rate.Limiter
}

// New admits perSecond documents per second with bursts of up to burst
// documents. Zero or a negative rate disables pacing.
func New(perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))}
}

// Wait blocks until the next document may be emitted or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return nil
}

// Rate returns the configured documents per second, 0 when unlimited.
func (t *Throttle) Rate() float64 {
	limit := t.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}
