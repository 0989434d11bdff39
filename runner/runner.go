// Package runner defines the session contract shared by the local and ssh
// transports. A session is a persistent shell context: commands submitted
// through Execute run sequentially in the same shell, and each returns its
// captured stdout, stderr and exit status despite the transport delivering a
// single unframed byte stream.
package runner

import (
	"context"
	"time"
)

// Session is a persistent command execution context. Implementations own
// their transport exclusively: it is opened once in Setup, closed once in
// Teardown and never shared. At most one Execute call may be in flight;
// concurrent commands require separate sessions.
type Session interface {
	// ID returns the session identity markers derive from.
	ID() string

	// Setup opens the transport and prepares the shell environment.
	Setup(ctx context.Context) error

	// Execute runs a command and returns its framed result. It fails without
	// touching the transport when the command is recognised as interactive.
	Execute(ctx context.Context, command string, options ...Option) (*CommandResult, error)

	// Teardown releases the transport. Safe to call repeatedly and from any
	// state.
	Teardown(ctx context.Context) error
}

// CommandResult carries the demultiplexed outcome of one command. Stderr is
// empty for remote sessions, whose channel does not separate streams. A zero
// ExitCode is an explicit success; parse failures normalise to one.
type CommandResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exitCode"`
}

// State describes where a session is in its lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
	StateExecuting     State = "executing"
	StateClosed        State = "closed"
)

// Clock abstracts time observation and sleeping so polling loops can run
// deterministically in tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}
