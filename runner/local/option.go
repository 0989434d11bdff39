package local

import (
	"github.com/viant/afs"
	"github.com/viant/sesh/runner"
)

// Option customises a local session.
type Option func(*Session)

// WithOptions applies shared runner options as the session baseline;
// individual Execute calls may still override them per command.
func WithOptions(options ...runner.Option) Option {
	return func(s *Session) {
		s.options.Apply(options...)
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithShell overrides the shell invocation, including its arguments.
func WithShell(shell ...string) Option {
	return func(s *Session) {
		s.shell = shell
	}
}

// WithActivationPath overrides the development environment activation file.
func WithActivationPath(path string) Option {
	return func(s *Session) {
		s.activationPath = path
	}
}

// WithStarter overrides how the shell process is provisioned.
func WithStarter(start StartFunc) Option {
	return func(s *Session) {
		s.start = start
	}
}

// WithFS overrides the file service probing the activation file.
func WithFS(service afs.Service) Option {
	return func(s *Session) {
		s.fs = service
	}
}
