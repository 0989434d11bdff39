package sesh

import (
	"context"
	"fmt"

	"github.com/viant/sesh/model"
	"github.com/viant/sesh/runner"
	"github.com/viant/sesh/runner/local"
	"github.com/viant/sesh/runner/ssh"
	"github.com/viant/sesh/service/event"
	"github.com/viant/sesh/tracing"
)

// Open returns the cached session for the host, dialing and setting up a new
// one on first use. Hosts not registered up front are treated as implicit
// targets with scheme derived from their URL.
func (s *Service) Open(ctx context.Context, hostURL string) (session runner.Session, err error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if session, ok := s.sessions[hostURL]; ok {
		return session, nil
	}
	host := s.lookupHost(hostURL)
	scheme := host.Scheme()

	ctx, span := tracing.StartSpan(ctx, "session.open", "CLIENT")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"host": hostURL, "scheme": scheme})

	factory := s.runners.Lookup(scheme)
	if factory == nil {
		return nil, fmt.Errorf("unsupported host scheme: %v", scheme)
	}
	options, err := s.sessionOptionsFor(ctx, host)
	if err != nil {
		return nil, err
	}
	session, err = factory(ctx, host, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %v session for %v: %w", scheme, hostURL, err)
	}
	if err = session.Setup(ctx); err != nil {
		_ = session.Teardown(ctx)
		return nil, fmt.Errorf("failed to set up session for %v: %w", hostURL, err)
	}
	s.sessions[hostURL] = session
	s.publishSessionEvent(ctx, session.ID(), host, event.TypeSessionOpened)
	return session, nil
}

// CloseHost tears down the cached session for a single host. A host without
// a session is a no-op.
func (s *Service) CloseHost(ctx context.Context, hostURL string) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	session, ok := s.sessions[hostURL]
	if !ok {
		return nil
	}
	delete(s.sessions, hostURL)
	if err := session.Teardown(ctx); err != nil {
		return fmt.Errorf("failed to close session for %v: %w", hostURL, err)
	}
	s.publishSessionEvent(ctx, session.ID(), s.lookupHost(hostURL), event.TypeSessionClosed)
	return nil
}

// lookupHost resolves a registered host or builds a transient one from the
// URL. Callers hold s.mux.
func (s *Service) lookupHost(hostURL string) *model.Host {
	if host, ok := s.hosts[hostURL]; ok {
		return host
	}
	return &model.Host{URL: hostURL}
}

// sessionOptionsFor assembles the baseline options for a new session: the
// configured timeout, the merged environment and any caller supplied session
// options.
func (s *Service) sessionOptionsFor(ctx context.Context, host *model.Host) ([]runner.Option, error) {
	env, err := s.environment(ctx, host)
	if err != nil {
		return nil, err
	}
	var options []runner.Option
	if s.config.TimeoutMs > 0 {
		options = append(options, runner.WithTimeout(s.config.TimeoutMs))
	}
	if len(env) > 0 {
		options = append(options, runner.WithEnvironment(env))
	}
	options = append(options, s.sessionOptions...)
	return options, nil
}

// environment merges the service wide variables with host level ones and any
// secret sourced set, in increasing precedence.
func (s *Service) environment(ctx context.Context, host *model.Host) (map[string]string, error) {
	env := map[string]string{}
	for k, v := range s.config.Env {
		env[k] = v
	}
	for k, v := range host.Env {
		env[k] = v
	}
	if host.SecretEnvURL != "" {
		secretEnv, err := s.secrets.EnvFrom(ctx, host.SecretEnvURL, host.SecretEnvKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load secret env for %v: %w", host.URL, err)
		}
		for k, v := range secretEnv {
			env[k] = v
		}
	}
	return env, nil
}

func (s *Service) localFactory(_ context.Context, _ *model.Host, options ...runner.Option) (runner.Session, error) {
	return local.New(local.WithOptions(options...)), nil
}

func (s *Service) sshFactory(ctx context.Context, host *model.Host, options ...runner.Option) (runner.Session, error) {
	config, err := s.secrets.SSHConfig(ctx, host.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials for %v: %w", host.URL, err)
	}
	return ssh.New(
		ssh.WithAddress(host.SSHAddress()),
		ssh.WithClientConfig(config),
		ssh.WithOptions(options...))
}
