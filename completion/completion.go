// Package completion decides whether a submitted command has finished
// running. A raw pipe or channel offers no wait primitive for a command the
// shell itself spawned, so completion is detected heuristically by inspecting
// a process table. The Detector interface keeps the heuristic swappable.
package completion

import (
	"context"
	"time"

	"github.com/viant/sesh/internal/clause"
)

// Detector reports whether a command previously submitted to a shell has
// exited. Implementations are heuristics; they may be wrong in both
// directions for unusually named processes.
type Detector interface {
	Exited(ctx context.Context, command string) (bool, error)
}

// Func adapts a function to the Detector interface.
type Func func(ctx context.Context, command string) (bool, error)

func (f Func) Exited(ctx context.Context, command string) (bool, error) {
	return f(ctx, command)
}

// FastCommands lists commands that return near instantly. Polling the process
// table for them is wasted work and can race with their exit; detectors
// assume completion after FastDelay instead.
var FastCommands = []string{"cd", "ls", "pwd"}

// FastDelay is the fixed settling delay applied instead of polling when every
// clause of a command is fast.
const FastDelay = 300 * time.Millisecond

// AllFast reports whether every `&&` clause of the command starts with one of
// the fast commands. Blank clauses are ignored.
func AllFast(command string, fast []string) bool {
	matched := false
	for _, part := range clause.SplitAnd(command) {
		first := clause.FirstToken(part)
		if first == "" {
			continue
		}
		found := false
		for _, candidate := range fast {
			if first == candidate {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		matched = true
	}
	return matched
}
