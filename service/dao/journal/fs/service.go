// Package fs provides a filesystem journal store backed by afs, so entries
// can live on a local directory or any afs supported storage scheme.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/sesh/journal"
	"github.com/viant/sesh/service/dao"
	"github.com/viant/sesh/service/dao/criteria"
)

// Service implements filesystem-based journal storage. Each entry is a JSON
// file named after its ID under the base path.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

// Ensure Service implements dao.Service
var _ dao.Service[string, journal.Entry] = (*Service)(nil)

// New creates a filesystem journal store rooted at basePath, creating the
// directory when missing.
func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	fs := afs.New()

	ctx := context.Background()
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}

	basePath = url.Normalize(basePath, file.Scheme)

	return &Service{
		basePath: basePath,
		fs:       fs,
	}, nil
}

// Save persists an entry as a JSON file.
func (s *Service) Save(ctx context.Context, entry *journal.Entry) error {
	if entry == nil {
		return dao.ErrNilEntity
	}
	if entry.ID == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	filePath := s.entryPath(entry.ID)
	err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to save journal entry to file %s: %w", filePath, err)
	}

	return nil
}

// Load retrieves an entry by ID or dao.ErrNotFound.
func (s *Service) Load(ctx context.Context, id string) (*journal.Entry, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.entryPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if journal entry exists: %w", err)
	}

	if !exists {
		return nil, dao.ErrNotFound
	}

	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal entry file: %w", err)
	}

	var entry journal.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal entry: %w", err)
	}

	return &entry, nil
}

// Delete removes an entry file.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.entryPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if journal entry exists: %w", err)
	}

	if !exists {
		return dao.ErrNotFound
	}

	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete journal entry file: %w", err)
	}

	return nil
}

// List returns all entries under the base path matching the supplied
// parameters. Unreadable files are skipped.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entry files: %w", err)
	}

	var entries []*journal.Entry
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		if !strings.HasSuffix(object.Name(), ".json") {
			continue
		}

		data, err := s.fs.Download(ctx, object)
		if err != nil {
			log.Printf("failed to read journal entry %s: %v", object.URL(), err)
			continue
		}

		var entry journal.Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			log.Printf("failed to unmarshal journal entry %s: %v", object.URL(), err)
			continue
		}
		if !criteria.Matches(&entry, parameters) {
			continue
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

// entryPath returns the file path for an entry
func (s *Service) entryPath(id string) string {
	return path.Join(s.basePath, fmt.Sprintf("%s.json", id))
}
