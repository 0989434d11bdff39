package extension

import (
	"context"
	"sync"

	"github.com/viant/sesh/model"
	"github.com/viant/sesh/runner"
)

// Factory creates a session for the supplied host.
type Factory func(ctx context.Context, host *model.Host, options ...runner.Option) (runner.Session, error)

// Runners maps URL schemes to session factories.
type Runners struct {
	factories map[string]Factory
	mux       sync.RWMutex
}

// Lookup returns a factory by scheme, or nil when none was registered.
func (r *Runners) Lookup(scheme string) Factory {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.factories[scheme]
}

// Register registers a factory for a scheme, replacing any previous one.
func (r *Runners) Register(scheme string, factory Factory) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.factories[scheme] = factory
}

// Schemes returns the registered scheme names.
func (r *Runners) Schemes() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	schemes := make([]string, 0, len(r.factories))
	for scheme := range r.factories {
		schemes = append(schemes, scheme)
	}
	return schemes
}

// NewRunners creates an empty runner registry.
func NewRunners() *Runners {
	return &Runners{
		factories: make(map[string]Factory),
	}
}
