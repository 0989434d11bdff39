package clock

import (
	"context"
	"time"
)

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Clock abstracts time observation and sleeping so that polling loops can be
// driven deterministically in tests without real delays.
type Clock interface {
	Now() time.Time

	// Sleep blocks for the supplied duration or until ctx is done, in which
	// case it returns the context error.
	Sleep(ctx context.Context, d time.Duration) error
}

// System returns a Clock backed by the wall clock.
func System() Clock { return system{} }

type system struct{}

func (system) Now() time.Time { return NowFunc() }

func (system) Sleep(ctx context.Context, d time.Duration) error {
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
