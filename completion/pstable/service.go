// Package pstable detects command completion by snapshotting the local
// process table. A command counts as exited when none of its `&&` clauses
// appears among the running process command lines, either verbatim or as a
// verbatim prefix followed by further arguments. This matches names, not
// process identity, and is a documented limitation rather than a bug.
package pstable

import (
	"context"
	"os/exec"
	"strings"

	"github.com/viant/sesh/completion"
	"github.com/viant/sesh/internal/clause"
	"github.com/viant/sesh/internal/clock"
)

// Service implements completion.Detector against the local process table.
type Service struct {
	fast     []string
	clock    clock.Clock
	snapshot func(ctx context.Context) (string, error)
}

// Option customises the detector.
type Option func(*Service)

// WithFastCommands replaces the fast command allowlist.
func WithFastCommands(commands ...string) Option {
	return func(s *Service) {
		s.fast = commands
	}
}

// WithClock sets the clock used for the fast command delay.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithSnapshot replaces the process table source, mainly for tests.
func WithSnapshot(snapshot func(ctx context.Context) (string, error)) Option {
	return func(s *Service) {
		s.snapshot = snapshot
	}
}

// New creates a process table detector.
func New(options ...Option) *Service {
	ret := &Service{
		fast:     append([]string(nil), completion.FastCommands...),
		clock:    clock.System(),
		snapshot: snapshot,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

var _ completion.Detector = (*Service)(nil)

// Exited implements completion.Detector. Fast commands short circuit with a
// fixed delay; everything else is looked up in the process table. A failed
// snapshot reads as "not visible", so the command counts as exited.
func (s *Service) Exited(ctx context.Context, command string) (bool, error) {
	if completion.AllFast(command, s.fast) {
		if err := s.clock.Sleep(ctx, completion.FastDelay); err != nil {
			return false, err
		}
		return true, nil
	}

	table, err := s.snapshot(ctx)
	if err != nil {
		return true, nil
	}

	clauses := activeClauses(command)
	lines := strings.Split(table, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	for _, line := range lines {
		process := strings.TrimSpace(line)
		for _, c := range clauses {
			if process == c || strings.HasPrefix(process, c+" ") {
				return false, nil
			}
		}
	}
	return true, nil
}

func activeClauses(command string) []string {
	var ret []string
	for _, part := range clause.SplitAnd(command) {
		if part = strings.TrimSpace(part); part != "" {
			ret = append(ret, part)
		}
	}
	return ret
}

func snapshot(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, "ps", "-e", "-o", "args=").Output()
	if err != nil {
		return "", err
	}
	return string(output), nil
}
