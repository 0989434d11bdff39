// Package ssh implements the session contract over an interactive SSH
// channel. Unlike the local variant there is no marker protocol: the channel
// separates logical turns well enough that each clause is sent on its own,
// waited for through a remote process table probe and drained non blocking.
// The channel does not separate streams, so stderr is always empty and the
// exit status comes from a follow up echo round trip.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	gossh "golang.org/x/crypto/ssh"

	"github.com/viant/sesh/completion"
	"github.com/viant/sesh/guard"
	"github.com/viant/sesh/internal/ansi"
	"github.com/viant/sesh/internal/clause"
	"github.com/viant/sesh/internal/clock"
	"github.com/viant/sesh/internal/idgen"
	"github.com/viant/sesh/runner"
)

// DefaultActivationPath is probed on the remote host during setup; when the
// file exists it is sourced before anything else.
const DefaultActivationPath = "/home/user/.dev/bin/activate"

// settleDelay follows every channel send so the remote shell keeps up.
const settleDelay = 50 * time.Millisecond

// Session runs commands in a persistent shell on a remote host.
type Session struct {
	id             string
	options        *runner.Options
	address        string
	config         *gossh.ClientConfig
	client         *gossh.Client
	dialed         bool
	channelFactory ChannelFactory
	channel        Channel
	commander      Commander
	fast           []string
	activationPath string
	state          runner.State
	mux            sync.Mutex
}

var _ runner.Session = (*Session)(nil)

// New creates a remote session. The channel is not opened until Setup. The
// session needs an endpoint: an address plus client config to dial, an
// already connected client, or an injected channel factory.
func New(options ...Option) (*Session, error) {
	result := &Session{
		id:             idgen.NewShort(),
		options:        runner.NewOptions(),
		fast:           completion.FastCommands,
		activationPath: DefaultActivationPath,
		state:          runner.StateUninitialized,
	}
	for _, option := range options {
		option(result)
	}
	if result.channelFactory == nil && result.client == nil && (result.address == "" || result.config == nil) {
		return nil, errors.New("ssh endpoint was empty")
	}
	result.ensureBaseSetup()
	return result, nil
}

func (s *Session) ensureBaseSetup() {
	if s.options.Clock == nil {
		s.options.Clock = clock.System()
	}
	if s.options.Guard == nil {
		s.options.Guard = guard.New()
	}
}

// ID returns the session identity.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() runner.State {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.state
}

// Setup opens the channel, sources the remote activation file when present,
// exports the configured environment and clears the prompt. Setting up an
// already prepared session is a no-op.
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
		_ = s.release()
		return err
	}
	s.state = runner.StateReady
	return nil
}

func (s *Session) prepare(ctx context.Context) error {
	s.logf("setting up session: %v", s.id)
	if s.channel == nil {
		if s.client == nil && s.channelFactory == nil {
			client, err := gossh.Dial("tcp", s.address, s.config)
			if err != nil {
				return fmt.Errorf("failed to dial %v: %w", s.address, err)
			}
			s.client = client
			s.dialed = true
		}
		factory := s.channelFactory
		if factory == nil {
			factory = func(env map[string]string) (Channel, error) {
				return NewChannel(s.client, env)
			}
		}
		channel, err := factory(s.options.Environment)
		if err != nil {
			return err
		}
		s.channel = channel
	}
	if s.commander == nil && s.client != nil {
		s.commander = NewCommander(s.client)
	}
	if s.options.Detector == nil {
		if s.commander == nil {
			return errors.New("commander was empty")
		}
		s.options.Detector = &pscommand{commander: s.commander}
	}

	if s.activated(ctx) {
		s.logf("loading development environment")
		if _, err := s.execute(ctx, "source "+s.activationPath, s.options); err != nil {
			return fmt.Errorf("failed to load development environment: %w", err)
		}
	}
	for _, key := range sortedKeys(s.options.Environment) {
		if err := s.send(ctx, fmt.Sprintf("export %s=%s", key, s.options.Environment[key])); err != nil {
			return err
		}
		if err := s.options.Clock.Sleep(ctx, settleDelay); err != nil {
			return err
		}
		s.drain()
	}
	if _, err := s.execute(ctx, "cd ~/ && export PS1=''", s.options); err != nil {
		return fmt.Errorf("failed to initialise shell: %w", err)
	}
	return nil
}

// activated probes the activation file on the remote host; a zero exit
// status of the probe means the file exists.
func (s *Session) activated(ctx context.Context) bool {
	if s.commander == nil {
		return false
	}
	_, err := s.commander.Output(ctx, "test -f "+s.activationPath)
	return err == nil
}

// Execute runs a command and returns its result. Stderr is always empty for
// remote sessions. At most one command may be in flight.
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
	deadline := options.Clock.Now().Add(options.Timeout)
	var output strings.Builder
	for _, raw := range clause.SplitAnd(command) {
		part := strings.TrimSpace(raw)
		if err := s.send(ctx, part); err != nil {
			return nil, err
		}
		if options.Wait {
			if err := s.waitClause(ctx, part, options, deadline); err != nil {
				return nil, err
			}
		}
		output.WriteString(sanitizeOutput(s.drain()))
	}
	return &runner.CommandResult{
		Stdout:   output.String(),
		Stderr:   "",
		ExitCode: s.exitStatus(ctx),
	}, nil
}

// waitClause blocks until the clause no longer shows in the remote process
// table. Single token and fast allowlisted clauses skip the table probe and
// settle on the fixed delay instead.
func (s *Session) waitClause(ctx context.Context, part string, options *runner.Options, deadline time.Time) error {
	fields := strings.Fields(part)
	if len(fields) <= 1 || completion.AllFast(part, s.fast) {
		return options.Clock.Sleep(ctx, completion.FastDelay)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !options.Clock.Now().Before(deadline) {
			return &runner.TimeoutError{Timeout: options.Timeout, Stdout: sanitizeOutput(s.drain())}
		}
		exited, err := options.Detector.Exited(ctx, part)
		if err != nil {
			return err
		}
		if exited {
			return nil
		}
		if err := options.Clock.Sleep(ctx, completion.FastDelay); err != nil {
			return err
		}
	}
}

func (s *Session) send(ctx context.Context, payload string) error {
	if err := s.channel.Send(payload + "\n"); err != nil {
		return &runner.TransportError{Err: err}
	}
	return s.options.Clock.Sleep(ctx, settleDelay)
}

// drain collects whatever is immediately available on both channel
// facilities and strips terminal escapes.
func (s *Session) drain() string {
	return ansi.Strip(s.channel.Recv() + s.channel.RecvStderr())
}

// exitStatus queries $? of the last command. The response echoes the query
// first, so a multi line response carries the status on its second line.
// Any parse trouble normalises to one.
func (s *Session) exitStatus(ctx context.Context) int {
	if err := s.send(ctx, "echo $?"); err != nil {
		return 1
	}
	lines := strings.Split(s.drain(), "\n")
	line := lines[0]
	if len(lines) > 1 {
		line = lines[1]
	}
	code, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 1
	}
	return code
}

// sanitizeOutput normalises a raw channel read: trailing whitespace per
// line, the leading echo of the sent command, a stray leading carriage
// return and the activation banner all go away.
func sanitizeOutput(output string) string {
	lines := strings.Split(output, "\r\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	if len(lines) > 0 {
		lines = lines[1:]
	}
	clean := strings.Join(lines, "\n")
	clean = strings.TrimPrefix(clean, "\r")
	return strings.ReplaceAll(clean, "(.dev)\n", "")
}

// Teardown closes the channel and any client this session dialed itself. It
// may be called in any state and never errors once the session is closed.
func (s *Session) Teardown(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.state == runner.StateClosed {
		return nil
	}
	s.state = runner.StateClosed
	return s.release()
}

func (s *Session) release() error {
	var err error
	if s.channel != nil {
		err = s.channel.Close()
		s.channel = nil
	}
	if s.client != nil && s.dialed {
		if closeErr := s.client.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		s.client = nil
	}
	return err
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
