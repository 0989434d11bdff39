package dispatcher

import (
	"github.com/viant/sesh/journal"
	"github.com/viant/sesh/progress"
	"github.com/viant/sesh/service/dao"
	"github.com/viant/sesh/service/messaging"
)

// Option customises the dispatcher service.
type Option func(*Service)

// WithRunner sets the command runner requests are executed with
func WithRunner(r Runner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithJournal sets the store recording request outcomes
func WithJournal(journalDao dao.Service[string, journal.Entry]) Option {
	return func(s *Service) {
		s.journal = journalDao
	}
}

// WithMessageQueue sets the message queue implementation
func WithMessageQueue(queue messaging.Queue[Request]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.WorkerCount = count
	}
}

// WithProgress sets the tracker aggregating request counters
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Service) {
		s.progress = tracker
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
