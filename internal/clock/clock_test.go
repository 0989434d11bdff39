package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_Sleep(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	err := m.Sleep(context.Background(), 500*time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, start.Add(500*time.Millisecond), m.Now())
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, m.Slept)

	m.Advance(time.Second)
	assert.Equal(t, start.Add(1500*time.Millisecond), m.Now())
}

func TestManual_SleepCancelled(t *testing.T) {
	m := NewManual(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, m.Sleep(ctx, time.Second))
}

func TestSystem_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := System().Sleep(ctx, time.Minute)
	assert.Error(t, err)
}
