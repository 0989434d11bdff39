package sesh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/sesh/model"
	"github.com/viant/sesh/policy"
	"github.com/viant/sesh/runner"
	"gopkg.in/yaml.v3"
)

// DispatcherConfig tunes the workers serving the queued request path.
type DispatcherConfig struct {
	// WorkerCount is the number of workers, zero keeps the dispatcher default
	WorkerCount int `json:"workerCount,omitempty" yaml:"workerCount,omitempty"`

	// MaxRetries caps redeliveries of requests that failed at the transport
	// level
	MaxRetries int `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`

	// RetryDelayMs is the delay between redelivery attempts
	RetryDelayMs int `json:"retryDelayMs,omitempty" yaml:"retryDelayMs,omitempty"`
}

// TracingConfig controls span export.
type TracingConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// OutputFile receives exported spans, stdout when empty
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON or YAML; the zero value is useful since all
// nested fields inherit their package defaults.
type Config struct {
	// Hosts declares execution targets known up front; more can be added at
	// runtime with AddHost.
	Hosts []*model.Host `json:"hosts,omitempty" yaml:"hosts,omitempty"`

	// Env holds variables exported into every session shell. Host level
	// variables override these on collision.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// TimeoutMs bounds how long a command waits for output before failing
	// with a timeout.
	TimeoutMs int `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`

	// Policy screens commands before they reach a session.
	Policy *policy.Config `json:"policy,omitempty" yaml:"policy,omitempty"`

	// JournalURL persists command outcomes under the given base location,
	// empty keeps the journal in memory.
	JournalURL string `json:"journalURL,omitempty" yaml:"journalURL,omitempty"`

	Dispatcher DispatcherConfig `json:"dispatcher,omitempty" yaml:"dispatcher,omitempty"`
	Tracing    TracingConfig    `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() *Config {
	return &Config{
		TimeoutMs: int(runner.DefaultTimeout / time.Millisecond),
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.TimeoutMs < 0 {
		return fmt.Errorf("timeoutMs cannot be negative")
	}
	seen := map[string]bool{}
	for i, host := range c.Hosts {
		if host == nil || host.URL == "" {
			return fmt.Errorf("hosts[%d]: URL is required", i)
		}
		if seen[host.URL] {
			return fmt.Errorf("hosts[%d]: duplicate host %v", i, host.URL)
		}
		seen[host.URL] = true
	}
	if c.Policy != nil {
		switch c.Policy.Mode {
		case "", policy.ModeAsk, policy.ModeAuto, policy.ModeDeny:
		default:
			return fmt.Errorf("unsupported policy mode: %v", c.Policy.Mode)
		}
	}
	return nil
}

// NewConfigFromURL loads a JSON or YAML configuration document from any
// location the file service understands.
func NewConfigFromURL(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if strings.HasSuffix(URL, ".json") {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
