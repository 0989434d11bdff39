package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	var notified []Counters
	ctx, tracker := WithNewTracker(context.Background(), "s1", "localhost", func(c Counters) {
		notified = append(notified, c)
	})

	UpdateCtx(ctx, Delta{Total: 1, Running: 1})
	UpdateCtx(ctx, Delta{Completed: 1, Running: -1})

	snapshot := tracker.Snapshot()
	assert.Equal(t, "s1", snapshot.SessionID)
	assert.Equal(t, "localhost", snapshot.Host)
	assert.Equal(t, 1, snapshot.TotalCommands)
	assert.Equal(t, 1, snapshot.CompletedCommands)
	assert.Equal(t, 0, snapshot.RunningCommands)

	if assert.Len(t, notified, 2) {
		assert.Equal(t, 1, notified[0].RunningCommands)
		assert.Equal(t, 0, notified[1].RunningCommands)
	}
}

func TestProgress_NilSafe(t *testing.T) {
	var tracker *Progress
	tracker.Update(Delta{Total: 1})
	tracker.OnChange(nil)
	assert.Equal(t, Counters{}, tracker.Snapshot())

	// context without tracker
	UpdateCtx(context.Background(), Delta{Total: 1})
	_, ok := GetSnapshot(context.Background())
	assert.False(t, ok)
}

func TestProgress_ConcurrentUpdates(t *testing.T) {
	ctx, tracker := WithNewTracker(context.Background(), "s1", "localhost", nil)

	var wg sync.WaitGroup
	workers := 8
	updates := 100
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < updates; j++ {
				UpdateCtx(ctx, Delta{Total: 1, Completed: 1})
			}
		}()
	}
	wg.Wait()

	snapshot, ok := GetSnapshot(ctx)
	assert.True(t, ok)
	assert.Equal(t, workers*updates, snapshot.TotalCommands)
	assert.Equal(t, workers*updates, snapshot.CompletedCommands)
	assert.Equal(t, tracker.Snapshot(), snapshot)
}
