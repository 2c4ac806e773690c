package script

import (
	"context"
	"time"
)

// DefaultGranularity is the delay increment between pause checks.
const DefaultGranularity = 10 * time.Millisecond

// PauseGate blocks while execution is paused.
type PauseGate interface {
	WaitIfPaused(ctx context.Context) error
}

// Delay sleeps for d in increments of granularity, waiting at the gate
// before each one, so a pause takes effect within one increment. Paused
// time does not count toward d. It returns ctx.Err() if ctx is done first.
func Delay(ctx context.Context, d, granularity time.Duration, gate PauseGate) error {
	if granularity <= 0 {
		granularity = DefaultGranularity
	}

	for remaining := d; remaining > 0; remaining -= granularity {
		if err := gate.WaitIfPaused(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(min(granularity, remaining)):
		}
	}
	return ctx.Err()
}
