package sesh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/sesh/extension"
	"github.com/viant/sesh/journal"
	"github.com/viant/sesh/model"
	"github.com/viant/sesh/policy"
	"github.com/viant/sesh/progress"
	"github.com/viant/sesh/runner"
	"github.com/viant/sesh/service/dao"
	journalfs "github.com/viant/sesh/service/dao/journal/fs"
	journalmem "github.com/viant/sesh/service/dao/journal/memory"
	"github.com/viant/sesh/service/dispatcher"
	"github.com/viant/sesh/service/event"
	"github.com/viant/sesh/service/messaging"
	mmemory "github.com/viant/sesh/service/messaging/memory"
	"github.com/viant/sesh/service/secret"
	"github.com/viant/sesh/tracing"
)

// Service coordinates persistent sessions across the configured hosts. It
// caches one session per host URL, screens commands through the policy and
// records every outcome in the journal. The synchronous Run path works
// immediately after New; the queued path needs Start.
type Service struct {
	config     *Config
	secrets    *secret.Service
	runners    *extension.Runners
	journal    dao.Service[string, journal.Entry]
	events     *event.Service
	policy     *policy.Policy
	queue      messaging.Queue[dispatcher.Request]
	dispatcher *dispatcher.Service
	progress   *progress.Progress

	hosts    map[string]*model.Host
	sessions map[string]runner.Session
	mux      sync.Mutex

	sessionOptions []runner.Option
}

// Service executes queued requests on behalf of the dispatcher workers.
var _ dispatcher.Runner = (*Service)(nil)

// New creates a session service with the supplied options applied on top of
// the defaults.
func New(options ...Option) (*Service, error) {
	s := &Service{
		config:   DefaultConfig(),
		secrets:  secret.New(),
		runners:  extension.NewRunners(),
		hosts:    map[string]*model.Host{},
		sessions: map[string]runner.Session{},
		progress: &progress.Progress{},
	}
	for _, option := range options {
		option(s)
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) init() error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	if s.config.Tracing.Enabled {
		_ = tracing.Init("sesh", "", s.config.Tracing.OutputFile)
	}
	for _, host := range s.config.Hosts {
		s.hosts[host.URL] = host
	}
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}

	config := dispatcher.DefaultConfig()
	if s.config.Dispatcher.WorkerCount > 0 {
		config.WorkerCount = s.config.Dispatcher.WorkerCount
	}
	if s.config.Dispatcher.MaxRetries > 0 {
		config.MaxRetries = s.config.Dispatcher.MaxRetries
	}
	if s.config.Dispatcher.RetryDelayMs > 0 {
		config.RetryDelay = time.Duration(s.config.Dispatcher.RetryDelayMs) * time.Millisecond
	}
	var err error
	s.dispatcher, err = dispatcher.New(
		dispatcher.WithConfig(config),
		dispatcher.WithRunner(s),
		dispatcher.WithJournal(s.journal),
		dispatcher.WithMessageQueue(s.queue),
		dispatcher.WithProgress(s.progress))
	return err
}

func (s *Service) ensureBaseSetup() error {
	if s.policy == nil && s.config.Policy != nil {
		s.policy = policy.FromConfig(s.config.Policy)
	}
	if s.journal == nil {
		if s.config.JournalURL != "" {
			store, err := journalfs.New(s.config.JournalURL)
			if err != nil {
				return err
			}
			s.journal = store
		} else {
			s.journal = journalmem.New()
		}
	}
	if s.queue == nil {
		s.queue = mmemory.NewQueue[dispatcher.Request](mmemory.DefaultConfig())
	}
	if s.runners.Lookup("local") == nil {
		s.runners.Register("local", s.localFactory)
	}
	if s.runners.Lookup("ssh") == nil {
		s.runners.Register("ssh", s.sshFactory)
	}
	return nil
}

// Run executes a command on the host's session and records the outcome in
// the journal. The entry is returned even when the command fails so callers
// can inspect captured output; the error reports the failure class.
func (s *Service) Run(ctx context.Context, hostURL, command string, options ...runner.Option) (*journal.Entry, error) {
	s.track(ctx, progress.Delta{Total: 1, Running: 1})
	entry, err := s.Execute(ctx, hostURL, command, options...)
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if daoErr := s.journal.Save(ctx, entry); daoErr != nil {
		if err == nil {
			err = fmt.Errorf("failed to record journal entry: %w", daoErr)
		} else {
			log.Printf("failed to record journal entry %v: %v", entry.ID, daoErr)
		}
	}
	s.track(ctx, outcomeDelta(err))
	return entry, err
}

// Execute runs a command on the host's session and reports the outcome as a
// journal entry without persisting it. Most callers want Run; the dispatcher
// workers call Execute directly and key the entry by request ID instead.
func (s *Service) Execute(ctx context.Context, hostURL, command string, options ...runner.Option) (entry *journal.Entry, err error) {
	ctx, span := tracing.StartSpan(ctx, "session.execute", "CLIENT")
	defer func() {
		if err != nil {
			tracing.EndSpan(span, err)
			return
		}
		span.SetStatusFromExitCode(entry.ExitCode)
		span.OnDone()
	}()
	span.WithAttributes(map[string]string{"host": hostURL, "command": command})

	entry = &journal.Entry{
		Host:      hostURL,
		Command:   command,
		StartedAt: time.Now(),
	}
	finish := func() {
		entry.EndedAt = time.Now()
		entry.DurationMs = entry.EndedAt.Sub(entry.StartedAt).Milliseconds()
	}

	if err = s.authorize(ctx, hostURL, command); err != nil {
		finish()
		entry.Error = err.Error()
		s.publishCommandEvent(ctx, entry, event.TypeCommandRejected)
		return entry, err
	}

	session, err := s.Open(ctx, hostURL)
	if err != nil {
		finish()
		entry.Error = err.Error()
		entry.ExitCode = -1
		s.publishCommandEvent(ctx, entry, event.TypeCommandFailed)
		return entry, err
	}
	entry.SessionID = session.ID()
	s.publishCommandEvent(ctx, entry, event.TypeCommandStarted)

	result, err := session.Execute(ctx, command, options...)
	finish()
	if result != nil {
		entry.Stdout = result.Stdout
		entry.Stderr = result.Stderr
		entry.ExitCode = result.ExitCode
	}
	if err != nil {
		entry.Error = err.Error()
		if result == nil {
			// No exit status was observed; -1 keeps the entry distinguishable
			// from an explicit success.
			entry.ExitCode = -1
			capturePartialOutput(entry, err)
		}
		s.publishCommandEvent(ctx, entry, event.TypeCommandFailed)
		return entry, err
	}
	s.publishCommandEvent(ctx, entry, event.TypeCommandCompleted)
	return entry, nil
}

// authorize screens the command through the context policy, falling back to
// the service policy. A nil policy admits everything.
func (s *Service) authorize(ctx context.Context, hostURL, command string) error {
	pol := policy.FromContext(ctx)
	if pol == nil {
		pol = s.policy
	}
	if pol == nil {
		return nil
	}
	if !pol.IsAllowed(command) {
		return fmt.Errorf("run %q on %v: %w", command, hostURL, policy.ErrRejected)
	}
	switch pol.Mode {
	case policy.ModeDeny:
		return fmt.Errorf("run %q on %v: %w", command, hostURL, policy.ErrRejected)
	case policy.ModeAsk:
		if pol.Ask == nil || !pol.Ask(ctx, hostURL, command, pol) {
			return fmt.Errorf("run %q on %v: %w", command, hostURL, policy.ErrRejected)
		}
	}
	return nil
}

// History lists recorded journal entries matching the supplied criteria, for
// example dao.NewParameter("Host", "localhost").
func (s *Service) History(ctx context.Context, parameters ...*dao.Parameter) ([]*journal.Entry, error) {
	return s.journal.List(ctx, parameters...)
}

// AddHost registers an execution target at runtime.
func (s *Service) AddHost(host *model.Host) error {
	if host == nil || host.URL == "" {
		return fmt.Errorf("host URL is required")
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.hosts[host.URL] = host
	return nil
}

// Start launches the dispatcher workers serving the queued request path.
func (s *Service) Start(ctx context.Context) error {
	return s.dispatcher.Start(ctx)
}

// Close stops the dispatcher workers and tears down every cached session.
func (s *Service) Close(ctx context.Context) error {
	s.dispatcher.Shutdown()

	s.mux.Lock()
	defer s.mux.Unlock()
	var errs []error
	for hostURL, session := range s.sessions {
		if err := session.Teardown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session for %v: %w", hostURL, err))
			continue
		}
		s.publishSessionEvent(ctx, session.ID(), s.lookupHost(hostURL), event.TypeSessionClosed)
	}
	s.sessions = map[string]runner.Session{}
	return errors.Join(errs...)
}

// Dispatcher returns the queued execution service.
func (s *Service) Dispatcher() *dispatcher.Service {
	return s.dispatcher
}

// Events returns the configured event service, nil when none was supplied.
// Session and command lifecycle notifications are published only when an
// event service is present.
func (s *Service) Events() *event.Service {
	return s.events
}

// Journal returns the store recording command outcomes.
func (s *Service) Journal() dao.Service[string, journal.Entry] {
	return s.journal
}

// Progress returns the tracker aggregating command counters.
func (s *Service) Progress() *progress.Progress {
	return s.progress
}

// Runners returns the session factory registry.
func (s *Service) Runners() *extension.Runners {
	return s.runners
}

// track applies the delta to the service tracker and to a context tracker
// when the caller installed one.
func (s *Service) track(ctx context.Context, d progress.Delta) {
	s.progress.Update(d)
	progress.UpdateCtx(ctx, d)
}

func outcomeDelta(err error) progress.Delta {
	delta := progress.Delta{Running: -1}
	switch {
	case err == nil:
		delta.Completed = 1
	case errors.Is(err, policy.ErrRejected):
		delta.Rejected = 1
	case errors.Is(err, runner.ErrReadTimeout):
		delta.TimedOut = 1
	default:
		delta.Failed = 1
	}
	return delta
}

// capturePartialOutput copies whatever output a failed command produced from
// the typed error onto the entry.
func capturePartialOutput(entry *journal.Entry, err error) {
	var timeout *runner.TimeoutError
	if errors.As(err, &timeout) {
		entry.Stdout = timeout.Stdout
		entry.Stderr = timeout.Stderr
		return
	}
	var exited *runner.ProcessExitedError
	if errors.As(err, &exited) {
		entry.Stdout = exited.Stdout
		entry.Stderr = exited.Stderr
	}
}

func (s *Service) publishCommandEvent(ctx context.Context, entry *journal.Entry, eventType string) {
	if s.events == nil {
		return
	}
	publisher, err := event.PublisherOf[*journal.Entry](s.events)
	if err != nil {
		log.Printf("failed to resolve command event publisher: %v", err)
		return
	}
	eventContext := &event.Context{
		SessionID:   entry.SessionID,
		Host:        entry.Host,
		Command:     entry.Command,
		EventType:   eventType,
		TimeTakenMs: int(entry.DurationMs),
	}
	_ = publisher.Publish(ctx, event.NewEvent(eventContext, entry))
}

func (s *Service) publishSessionEvent(ctx context.Context, sessionID string, host *model.Host, eventType string) {
	if s.events == nil {
		return
	}
	publisher, err := event.PublisherOf[*model.Host](s.events)
	if err != nil {
		log.Printf("failed to resolve session event publisher: %v", err)
		return
	}
	eventContext := &event.Context{
		SessionID: sessionID,
		Host:      host.URL,
		EventType: eventType,
	}
	_ = publisher.Publish(ctx, event.NewEvent(eventContext, host))
}
