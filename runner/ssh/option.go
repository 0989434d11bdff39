package ssh

import (
	gossh "golang.org/x/crypto/ssh"

	"github.com/viant/sesh/runner"
)

// Option customises a remote session.
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

// WithAddress sets the host:port endpoint dialed during Setup.
func WithAddress(address string) Option {
	return func(s *Session) {
		s.address = address
	}
}

// WithClientConfig sets the client config used to dial the endpoint.
func WithClientConfig(config *gossh.ClientConfig) Option {
	return func(s *Session) {
		s.config = config
	}
}

// WithClient supplies an already connected client. The session will not
// close a supplied client on teardown.
func WithClient(client *gossh.Client) Option {
	return func(s *Session) {
		s.client = client
	}
}

// WithCommander overrides the side channel used for process table snapshots
// and file probes.
func WithCommander(commander Commander) Option {
	return func(s *Session) {
		s.commander = commander
	}
}

// WithChannelFactory overrides how the interactive channel is opened.
func WithChannelFactory(factory ChannelFactory) Option {
	return func(s *Session) {
		s.channelFactory = factory
	}
}

// WithFastCommands overrides the fast completion allowlist.
func WithFastCommands(commands ...string) Option {
	return func(s *Session) {
		s.fast = commands
	}
}

// WithActivationPath overrides the remote activation file location.
func WithActivationPath(path string) Option {
	return func(s *Session) {
		s.activationPath = path
	}
}
