package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out consecutive sends.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer returns a pacer that lets one send through per delay. The first
// Wait returns immediately. A non-positive delay disables pacing.
func NewPacer(delay time.Duration) Pacer {
	if delay <= 0 {
		return noPacer{}
	}
	return &ratePacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

type ratePacer struct {
	limiter *rate.Limiter
}

// Wait blocks until the next send may start. The limiter refuses up front
// when the wait would outlast ctx's deadline; that refusal is reported as
// context.DeadlineExceeded so callers treat it like any other deadline stop.
func (p *ratePacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}

type noPacer struct{}

func (noPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
