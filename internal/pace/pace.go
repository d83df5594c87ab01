// Package pace holds the context-aware delay used between pipeline steps.
package pace

import (
	"context"
	"time"
)

// SleepFunc waits for d or until ctx is done. Tests substitute a fake that
// records the requested delays instead of blocking.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep blocks for d. It returns ctx.Err() if the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Or returns fn, falling back to Sleep when fn is nil.
func Or(fn SleepFunc) SleepFunc {
	if fn != nil {
		return fn
	}
	return Sleep
}
