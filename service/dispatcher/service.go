package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/sesh/journal"
	"github.com/viant/sesh/policy"
	"github.com/viant/sesh/progress"
	"github.com/viant/sesh/runner"
	"github.com/viant/sesh/service/dao"
	"github.com/viant/sesh/service/messaging"
	"github.com/viant/sesh/tracing"
)

// Config represents dispatcher service configuration
type Config struct {
	// WorkerCount is the number of workers draining the request queue
	WorkerCount int

	// MaxRetries is the maximum number of redeliveries for a request that
	// failed at the transport level
	MaxRetries int

	// RetryDelay is the delay between redelivery attempts
	RetryDelay time.Duration
}

// DefaultConfig returns the default dispatcher configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount: 5,
		MaxRetries:  1,
		RetryDelay:  3 * time.Second,
	}
}

// Runner executes a single command against a host and reports the outcome as
// a journal entry without persisting it. The root service implements this on
// top of its cached sessions.
type Runner interface {
	Execute(ctx context.Context, hostURL, command string, options ...runner.Option) (*journal.Entry, error)
}

// Service drains queued command requests through a pool of workers
type Service struct {
	config   Config
	runner   Runner
	journal  dao.Service[string, journal.Entry]
	queue    messaging.Queue[Request]
	progress *progress.Progress

	workers    []*worker
	workerWg   sync.WaitGroup
	shutdownCh chan struct{}
}

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// New creates a new dispatcher service
func New(options ...Option) (*Service, error) {
	s := &Service{
		config:     DefaultConfig(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if s.queue == nil {
		return nil, fmt.Errorf("message queue is required")
	}
	if s.journal == nil {
		return nil, fmt.Errorf("journal store is required")
	}
	return s, nil
}

// Start launches the worker pool
func (s *Service) Start(ctx context.Context) error {
	for i := 0; i < s.config.WorkerCount; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		worker := &worker{
			id:       i,
			service:  s,
			ctx:      workerCtx,
			cancelFn: cancel,
		}
		s.workers = append(s.workers, worker)
		s.workerWg.Add(1)
		go worker.run()
	}
	return nil
}

// run drains messages from the queue
func (w *worker) run() {
	defer w.service.workerWg.Done()

	for {
		// Block until we either get a message or the context is cancelled.
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			// Context was cancelled, graceful shutdown.
			if errors.Is(err, context.Canceled) {
				return
			}
			// Transient error (e.g. queue closed); back off a bit.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if msg == nil {
			// Non-blocking queue with nothing pending, back off before
			// polling again.
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}

		if pErr := w.service.processMessage(w.ctx, msg); pErr != nil {
			log.Printf("worker %d: failed to process request: %v", w.id, pErr)
		}
	}
}

// Submit queues a request for execution and returns the request ID, assigning
// one when the caller left it empty. The outcome becomes available through
// Result or Wait once a worker has run the command.
func (s *Service) Submit(ctx context.Context, request *Request) (requestID string, err error) {
	if request == nil {
		return "", fmt.Errorf("request cannot be nil")
	}
	if request.Command == "" {
		return "", fmt.Errorf("request command cannot be empty")
	}
	if request.ID == "" {
		request.ID = uuid.New().String()
	}

	ctx, span := tracing.StartSpan(ctx, "dispatcher.submit", "PRODUCER")
	defer tracing.EndSpan(span, err)
	span.WithAttributes(map[string]string{"request.id": request.ID, "host": request.Host})

	if err = s.queue.Publish(ctx, request); err != nil {
		err = fmt.Errorf("failed to publish request: %w", err)
		return "", err
	}
	s.progress.Update(progress.Delta{Total: 1})
	return request.ID, nil
}

// Result returns the recorded outcome of a request, or dao.ErrNotFound while
// the request is still pending.
func (s *Service) Result(ctx context.Context, requestID string) (*journal.Entry, error) {
	return s.journal.Load(ctx, requestID)
}

// Wait polls the journal until the request outcome is recorded, the timeout
// elapses or ctx is cancelled. A timeoutMs of zero waits indefinitely.
func (s *Service) Wait(ctx context.Context, requestID string, timeoutMs int) (*journal.Entry, error) {
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	for {
		entry, err := s.journal.Load(ctx, requestID)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, dao.ErrNotFound) {
			return nil, err
		}
		if timeoutMs > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("request %v still pending after %vms", requestID, timeoutMs)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// processMessage runs a single queued request and records its outcome
func (s *Service) processMessage(ctx context.Context, message messaging.Message[Request]) error {
	request := message.T()
	s.progress.Update(progress.Delta{Running: 1})

	var options []runner.Option
	if request.TimeoutMs > 0 {
		options = append(options, runner.WithTimeout(request.TimeoutMs))
	}

	started := time.Now()
	entry, err := s.runner.Execute(ctx, request.Host, request.Command, options...)
	if entry == nil {
		// The command was refused before reaching a session; synthesise a
		// minimal entry so the outcome is still recorded.
		entry = &journal.Entry{
			Host:      request.Host,
			Command:   request.Command,
			StartedAt: started,
			EndedAt:   time.Now(),
		}
		entry.DurationMs = entry.EndedAt.Sub(entry.StartedAt).Milliseconds()
	}
	entry.ID = request.ID
	if err != nil && entry.Error == "" {
		entry.Error = err.Error()
	}

	if err != nil && retryable(err) && request.Attempts < s.config.MaxRetries {
		next := *request
		next.Attempts++
		s.reschedule(&next)
		s.progress.Update(progress.Delta{Running: -1})
		return message.Ack()
	}

	if daoErr := s.journal.Save(ctx, entry); daoErr != nil {
		s.progress.Update(progress.Delta{Running: -1})
		return message.Nack(fmt.Errorf("failed to save journal entry: %w", daoErr))
	}

	delta := progress.Delta{Running: -1}
	switch {
	case errors.Is(err, policy.ErrRejected):
		delta.Rejected = 1
	case errors.Is(err, runner.ErrReadTimeout):
		delta.TimedOut = 1
	case err != nil:
		delta.Failed = 1
	default:
		delta.Completed = 1
	}
	s.progress.Update(delta)
	return message.Ack()
}

// retryable reports whether a request may succeed on redelivery. Policy
// rejections and interactive commands fail deterministically, and an output
// timeout leaves the session possibly still running the command, so all
// three are terminal.
func retryable(err error) bool {
	switch {
	case errors.Is(err, policy.ErrRejected):
		return false
	case errors.Is(err, runner.ErrInteractiveCommand):
		return false
	case errors.Is(err, runner.ErrReadTimeout):
		return false
	}
	return true
}

// reschedule republishes the request after the configured retry delay
func (s *Service) reschedule(request *Request) {
	go func() {
		select {
		case <-time.After(s.config.RetryDelay):
		case <-s.shutdownCh:
			return
		}
		if err := s.queue.Publish(context.Background(), request); err != nil {
			log.Printf("failed to reschedule request %v: %v", request.ID, err)
		}
	}()
}

// Shutdown stops the worker pool and waits for in-flight requests to finish
func (s *Service) Shutdown() {
	close(s.shutdownCh)
	for _, worker := range s.workers {
		worker.cancelFn()
	}
	s.workerWg.Wait()
}
