// Package progress provides a lightweight tracker that keeps aggregated
// command counters (total, completed, failed, ...) for a session or a whole
// run. The tracker instance lives in the execution context, so every
// component that receives the context can atomically update the counters via
// the Delta helper without requiring a global registry.

package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by a session or a
// dispatcher worker. The fields are signed and therefore can be either
// positive (increment) or negative (decrement).
type Delta struct {
	Total     int
	Completed int
	Failed    int
	Rejected  int
	TimedOut  int
	Running   int
}

// Counters is a point-in-time copy of the aggregated command counters.
type Counters struct {
	// Identification, informative only, filled when the tracker is created.
	SessionID string
	Host      string
	StartedAt time.Time

	TotalCommands     int
	CompletedCommands int
	FailedCommands    int
	RejectedCommands  int
	TimedOutCommands  int
	RunningCommands   int
}

// Progress keeps aggregated command counters. It is safe for concurrent use.
type Progress struct {
	mu sync.Mutex
	Counters
	onChange func(Counters)
}

// Update applies the supplied delta to the tracker. It is safe to call from
// multiple goroutines. A registered onChange callback is invoked with a copy
// of the updated counters outside the critical section, so the callback can
// perform slow operations (e.g. JSON encoding, I/O) without blocking the
// caller.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.mu.Lock()

	p.TotalCommands += d.Total
	p.CompletedCommands += d.Completed
	p.FailedCommands += d.Failed
	p.RejectedCommands += d.Rejected
	p.TimedOutCommands += d.TimedOut
	p.RunningCommands += d.Running

	snapshot := p.Counters
	cb := p.onChange

	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters suitable for read-only inspection.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Counters
}

// OnChange registers a callback that is invoked after every successful
// Update. Passing nil disables the callback. Only one callback can be
// active; subsequent calls overwrite the previous value.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a new Progress tracker, embeds it in a derived
// context and returns both. The caller may optionally pass an onChange
// callback that will be invoked after every counter update.
func WithNewTracker(ctx context.Context, sessionID, host string, onChange func(Counters)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		Counters: Counters{
			SessionID: sessionID,
			Host:      host,
			StartedAt: time.Now(),
		},
		onChange: onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the Progress tracker from ctx. The second return
// value is false when the context carries no tracker.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// GetSnapshot is a convenience wrapper that combines FromContext and
// Snapshot. The boolean return value is false when the context does not
// carry a tracker.
func GetSnapshot(ctx context.Context) (Counters, bool) {
	if tr, ok := FromContext(ctx); ok {
		return tr.Snapshot(), true
	}
	return Counters{}, false
}

// UpdateCtx looks up the tracker in ctx (if any) and applies the supplied
// delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
