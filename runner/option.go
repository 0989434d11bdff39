package runner

import (
	"log"
	"time"

	"github.com/viant/sesh/completion"
	"github.com/viant/sesh/guard"
)

// DefaultTimeout bounds how long Execute waits for a command's output before
// giving up with a timeout error.
const DefaultTimeout = 120 * time.Second

// Options aggregates the tunables shared by session implementations. Sessions
// are constructed with a baseline set and each Execute call may layer
// per-command overrides on top.
type Options struct {
	// Environment holds variables exported into the shell during Setup.
	Environment map[string]string

	// Timeout bounds a single Execute call.
	Timeout time.Duration

	// Wait controls whether Execute polls the completion detector before
	// reading output. Disabled for commands known to linger in the process
	// table, such as backgrounded servers.
	Wait bool

	// Clock drives the polling loops. Defaults to the system clock.
	Clock Clock

	// Detector reports whether a submitted command has finished running.
	Detector completion.Detector

	// Guard screens commands for interactive behaviour before submission.
	Guard *guard.Guard

	// Logger receives sparse diagnostics. Defaults to the standard logger.
	Logger *log.Logger
}

// Option mutates session options.
type Option func(*Options)

// NewOptions returns options with defaults applied.
func NewOptions(options ...Option) *Options {
	result := &Options{
		Timeout: DefaultTimeout,
		Wait:    true,
	}
	result.Apply(options...)
	return result
}

// Apply layers the supplied options onto o.
func (o *Options) Apply(options ...Option) {
	for _, option := range options {
		option(o)
	}
}

// Clone returns a shallow copy so per-command overrides leave the session
// baseline untouched.
func (o *Options) Clone() *Options {
	clone := *o
	return &clone
}

// WithEnvironment sets variables exported into the shell during Setup.
func WithEnvironment(env map[string]string) Option {
	return func(o *Options) {
		o.Environment = env
	}
}

// WithTimeout bounds a single command in milliseconds.
func WithTimeout(ms int) Option {
	return func(o *Options) {
		o.Timeout = time.Duration(ms) * time.Millisecond
	}
}

// WithoutWait skips completion polling for the command, reading whatever
// output is available once the markers arrive.
func WithoutWait() Option {
	return func(o *Options) {
		o.Wait = false
	}
}

// WithClock overrides the clock driving the polling loops.
func WithClock(clock Clock) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}

// WithDetector overrides the completion detector.
func WithDetector(detector completion.Detector) Option {
	return func(o *Options) {
		o.Detector = detector
	}
}

// WithGuard overrides the interactive command guard.
func WithGuard(g *guard.Guard) Option {
	return func(o *Options) {
		o.Guard = g
	}
}

// WithLogger overrides the diagnostics logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
