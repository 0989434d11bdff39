package clock

import (
	"context"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Sleep is called or Advance is
// invoked explicitly. Sleeping never blocks, which keeps polling loops fast
// and deterministic under test.
type Manual struct {
	mu  sync.Mutex
	now time.Time

	// Slept accumulates every duration passed to Sleep.
	Slept []time.Duration
}

// NewManual returns a Manual clock positioned at the supplied start time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward without recording a sleep.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	m.Slept = append(m.Slept, d)
	return nil
}
