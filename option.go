package sesh

import (
	"github.com/viant/sesh/extension"
	"github.com/viant/sesh/journal"
	"github.com/viant/sesh/model"
	"github.com/viant/sesh/policy"
	"github.com/viant/sesh/runner"
	"github.com/viant/sesh/service/dao"
	"github.com/viant/sesh/service/dispatcher"
	"github.com/viant/sesh/service/event"
	"github.com/viant/sesh/service/messaging"
	"github.com/viant/sesh/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures the service
type Option func(s *Service)

// WithConfig sets the service configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config == nil {
			return
		}
		s.config = config
	}
}

// WithHosts registers execution targets
func WithHosts(hosts ...*model.Host) Option {
	return func(s *Service) {
		s.config.Hosts = append(s.config.Hosts, hosts...)
	}
}

// WithEnv sets variables exported into every session shell
func WithEnv(env map[string]string) Option {
	return func(s *Service) {
		s.config.Env = env
	}
}

// WithJournal sets the store recording command outcomes
func WithJournal(store dao.Service[string, journal.Entry]) Option {
	return func(s *Service) {
		s.journal = store
	}
}

// WithEventService sets the event service receiving session and command
// lifecycle notifications. Without one, no events are published.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.events = service
	}
}

// WithPolicy sets the runtime policy, including the ask callback that a
// serialised policy config cannot carry
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithQueue sets the queue feeding the dispatcher workers
func WithQueue(queue messaging.Queue[dispatcher.Request]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithSessionOptions appends baseline options applied to every session
func WithSessionOptions(options ...runner.Option) Option {
	return func(s *Service) {
		s.sessionOptions = append(s.sessionOptions, options...)
	}
}

// WithRunnerFactory registers a session factory for a host scheme,
// overriding the built-in local and ssh factories when the scheme collides
func WithRunnerFactory(scheme string, factory extension.Factory) Option {
	return func(s *Service) {
		s.runners.Register(scheme, factory)
	}
}

// WithDispatcherWorkers sets the dispatcher worker count
func WithDispatcherWorkers(count int) Option {
	return func(s *Service) {
		s.config.Dispatcher.WorkerCount = count
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times, the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times, the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
