// Package memory provides an in-memory journal store.
package memory

import (
	"context"
	"sync"

	"github.com/viant/sesh/journal"
	"github.com/viant/sesh/service/dao"
	"github.com/viant/sesh/service/dao/criteria"
)

// Service implements in-memory journal storage. All operations are
// thread-safe and return copies of the stored entries so callers can mutate
// results without racing the store.
type Service struct {
	entries map[string]*journal.Entry
	mux     sync.RWMutex
}

// Compile-time check that Service implements the generic DAO interface.
var _ dao.Service[string, journal.Entry] = (*Service)(nil)

// New creates an empty store.
func New() *Service {
	return &Service{entries: map[string]*journal.Entry{}}
}

// Save persists (a clone of) the supplied entry.
func (s *Service) Save(_ context.Context, entry *journal.Entry) error {
	if entry == nil {
		return dao.ErrNilEntity
	}
	if entry.ID == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	s.entries[entry.ID] = entry.Clone()
	return nil
}

// Load retrieves a copy of the entry or dao.ErrNotFound.
func (s *Service) Load(_ context.Context, id string) (*journal.Entry, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mux.RLock()
	entry, ok := s.entries[id]
	s.mux.RUnlock()

	if !ok {
		return nil, dao.ErrNotFound
	}
	return entry.Clone(), nil
}

// Delete removes an entry.
func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.entries[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// List returns copies of all entries matching the supplied parameters.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*journal.Entry, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	out := make([]*journal.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if !criteria.Matches(entry, parameters) {
			continue
		}
		out = append(out, entry.Clone())
	}
	return out, nil
}
