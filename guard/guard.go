// Package guard flags commands that need a live terminal. Interactive
// programs never emit the completion markers a session waits for, so letting
// one through stalls the read loop until its timeout; rejecting the command
// up front is cheaper and gives the caller an actionable error.
package guard

import (
	"strings"

	"github.com/viant/sesh/internal/clause"
)

// DefaultCommands is the non-exhaustive catalog of known interactive
// invocations. Entries may carry arguments: `tail -f` flags only the follow
// form, a plain `tail` passes.
var DefaultCommands = []string{"tail -f", "watch", "top", "htop", "less", "more", "vim", "nano", "vi"}

// Guard decides whether a command would require a live terminal. It is a
// best-effort safety net, not a sandbox: a command it does not flag may still
// block forever.
type Guard struct {
	commands []string
}

// Option customises a Guard.
type Option func(*Guard)

// WithCommands replaces the catalog.
func WithCommands(commands ...string) Option {
	return func(g *Guard) {
		g.commands = commands
	}
}

// WithAdditionalCommands extends the catalog.
func WithAdditionalCommands(commands ...string) Option {
	return func(g *Guard) {
		g.commands = append(g.commands, commands...)
	}
}

// New creates a Guard with the default catalog unless options override it.
func New(options ...Option) *Guard {
	ret := &Guard{commands: append([]string(nil), DefaultCommands...)}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// IsInteractive reports whether any clause of the command matches a cataloged
// interactive invocation. A clause matches when its first token equals the
// entry's first token and the clause starts with the complete entry.
func (g *Guard) IsInteractive(command string) bool {
	for _, part := range clause.Split(command) {
		part = strings.ToLower(strings.TrimSpace(part))
		first := clause.FirstToken(part)
		if first == "" {
			continue
		}
		for _, candidate := range g.commands {
			if first == clause.FirstToken(candidate) && strings.HasPrefix(part, candidate) {
				return true
			}
		}
	}
	return false
}
