// Package local implements the session contract over a bash subprocess. The
// subprocess is spawned once per session with explicit pipe pairs for its
// standard streams and every command round trip is framed by the marker
// protocol, so a single long lived shell can serve an arbitrary sequence of
// commands.
package local

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/viant/afs"
	"github.com/viant/sesh/completion/pstable"
	"github.com/viant/sesh/guard"
	"github.com/viant/sesh/internal/clock"
	"github.com/viant/sesh/internal/idgen"
	"github.com/viant/sesh/marker"
	"github.com/viant/sesh/runner"
)

// DefaultActivationPath is probed during setup; when the file exists it is
// sourced before anything else so the development toolchain lands on PATH.
const DefaultActivationPath = "/home/user/.dev/bin/activate"

// settleDelay separates consecutive environment exports so the shell keeps
// up with the writes.
const settleDelay = 50 * time.Millisecond

// Session runs commands in a persistent local shell.
type Session struct {
	id             string
	options        *runner.Options
	markers        *marker.Factory
	shell          []string
	activationPath string
	fs             afs.Service
	start          StartFunc
	process        Process
	state          runner.State
	mux            sync.Mutex
}

var _ runner.Session = (*Session)(nil)

// New creates a local session. The shell is not spawned until Setup.
func New(options ...Option) *Session {
	result := &Session{
		id:             idgen.NewShort(),
		options:        runner.NewOptions(),
		shell:          DefaultShell,
		activationPath: DefaultActivationPath,
		start:          Start,
		state:          runner.StateUninitialized,
	}
	for _, option := range options {
		option(result)
	}
	result.ensureBaseSetup()
	result.markers = marker.NewFactory(result.id)
	return result
}

func (s *Session) ensureBaseSetup() {
	if s.options.Clock == nil {
		s.options.Clock = clock.System()
	}
	if s.options.Detector == nil {
		s.options.Detector = pstable.New(pstable.WithClock(s.options.Clock))
	}
	if s.options.Guard == nil {
		s.options.Guard = guard.New()
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
}

// ID returns the session identity markers derive from.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() runner.State {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.state
}

// Setup spawns the shell, drains its greeting, sources the activation file
// when present and exports the configured environment variables one by one.
// Setting up an already prepared session is a no-op.
func (s *Session) Setup(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	switch s.state {
	case runner.StateClosed:
		return runner.ErrSessionClosed
	case runner.StateUninitialized:
	default:
		return nil
	}
	if err := s.prepare(ctx); err != nil {
		if s.process != nil {
			_ = s.process.Kill()
			s.process = nil
		}
		return err
	}
	s.state = runner.StateReady
	return nil
}

func (s *Session) prepare(ctx context.Context) error {
	s.logf("setting up session: %v", s.id)
	process, err := s.start(s.shell, s.options.Environment)
	if err != nil {
		return fmt.Errorf("failed to start session %v: %w", s.id, err)
	}
	s.process = process

	drain := s.options.Clone()
	drain.Wait = false
	initialOut, initialErr, err := s.read(ctx, readRequest{options: drain})
	if err != nil {
		return err
	}
	s.logf("initial data from session: %v - %q %q", s.id, initialOut, initialErr)

	if s.activated(ctx) {
		s.logf("loading development environment")
		if _, err := s.execute(ctx, "source "+s.activationPath, s.options); err != nil {
			return fmt.Errorf("failed to load development environment: %w", err)
		}
	}
	for _, key := range sortedKeys(s.options.Environment) {
		if _, err := s.execute(ctx, fmt.Sprintf("export %s=%s", key, s.options.Environment[key]), s.options); err != nil {
			return fmt.Errorf("failed to export %v: %w", key, err)
		}
		if err := s.options.Clock.Sleep(ctx, settleDelay); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) activated(ctx context.Context) bool {
	ok, err := s.fs.Exists(ctx, s.activationPath)
	return err == nil && ok
}

// Execute runs a command and returns its framed result. At most one command
// may be in flight; a second concurrent call fails rather than interleave.
func (s *Session) Execute(ctx context.Context, command string, options ...runner.Option) (*runner.CommandResult, error) {
	s.mux.Lock()
	switch s.state {
	case runner.StateClosed:
		s.mux.Unlock()
		return nil, runner.ErrSessionClosed
	case runner.StateExecuting:
		s.mux.Unlock()
		return nil, runner.ErrSessionBusy
	case runner.StateUninitialized:
		s.mux.Unlock()
		return nil, runner.ErrSessionNotReady
	}
	s.state = runner.StateExecuting
	s.mux.Unlock()
	defer func() {
		s.mux.Lock()
		if s.state == runner.StateExecuting {
			s.state = runner.StateReady
		}
		s.mux.Unlock()
	}()

	opts := s.options.Clone()
	opts.Apply(options...)
	return s.execute(ctx, command, opts)
}

func (s *Session) execute(ctx context.Context, command string, options *runner.Options) (*runner.CommandResult, error) {
	if options.Guard.IsInteractive(command) {
		return nil, &runner.InteractiveError{Command: command}
	}
	set := s.markers.Next()
	if err := s.write(set.Wrap(command)); err != nil {
		return nil, err
	}
	stdout, stderr, err := s.read(ctx, readRequest{
		command:      marker.Safe(command),
		cmdMarker:    set.CmdEnd,
		stderrMarker: set.StderrEnd,
		options:      options,
	})
	if err != nil {
		return nil, err
	}
	stdout, exitCode := set.ExtractExitCode(stdout)
	return &runner.CommandResult{
		Stdout:   marker.TruncateStray(stdout),
		Stderr:   marker.TruncateStray(stderr),
		ExitCode: exitCode,
	}, nil
}

func (s *Session) write(command string) error {
	payload := strings.TrimRightFunc(command, unicode.IsSpace) + "\n"
	if _, err := s.process.Write([]byte(payload)); err != nil {
		return &runner.TransportError{Err: err}
	}
	return nil
}

// Teardown kills the shell. It may be called in any state and never errors
// once the session is closed.
func (s *Session) Teardown(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.state == runner.StateClosed {
		return nil
	}
	s.state = runner.StateClosed
	if s.process == nil {
		return nil
	}
	err := s.process.Kill()
	s.process = nil
	if err != nil {
		return fmt.Errorf("failed to kill session %v: %w", s.id, err)
	}
	return nil
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.options.Logger == nil {
		return
	}
	s.options.Logger.Printf(format, args...)
}

func sortedKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
