// Package cache persists evaluation records keyed by fingerprint. The
// whole index is one JSON blob on disk; saves rewrite it atomically so
// a crash mid-save leaves the previous blob intact.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vcdesk/deckeval/internal/domain"
	"github.com/vcdesk/deckeval/internal/ports"
)

// indexVersion is bumped when the blob layout changes; older blobs are
// discarded on load rather than migrated.
const indexVersion = 1

type index struct {
	Version int                                 `json:"version"`
	Meta    map[string]string                   `json:"meta"`
	Items   map[string]*domain.EvaluationRecord `json:"items"`
}

func newIndex() index {
	return index{
		Version: indexVersion,
		Meta:    map[string]string{},
		Items:   map[string]*domain.EvaluationRecord{},
	}
}

// FileStore is a ports.CacheStore backed by a single JSON file.
// Safe for concurrent use.
type FileStore struct {
	path string

	mu  sync.RWMutex
	idx index
}

var _ ports.CacheStore = (*FileStore)(nil)

// NewFileStore creates a store persisting to path. Call Load before
// first use.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, idx: newIndex()}
}

// Load reads the blob from disk. A missing, unreadable, or
// version-mismatched blob degrades to an empty index rather than
// failing the run.
func (s *FileStore) Load(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idx = newIndex()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return nil
	}

	var loaded index
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil
	}
	if loaded.Version != indexVersion {
		return nil
	}
	if loaded.Meta == nil {
		loaded.Meta = map[string]string{}
	}
	if loaded.Items == nil {
		loaded.Items = map[string]*domain.EvaluationRecord{}
	}
	s.idx = loaded
	return nil
}

// Save writes the index to a temp file in the same directory and
// renames it over the target.
func (s *FileStore) Save(_ context.Context) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.idx, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return &domain.PersistenceError{Op: "encode cache index", Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.PersistenceError{Op: "create cache dir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return &domain.PersistenceError{Op: "create temp cache file", Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return &domain.PersistenceError{Op: "write cache blob", Err: err}
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		cleanup()
		return &domain.PersistenceError{Op: "close temp cache file", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &domain.PersistenceError{Op: fmt.Sprintf("rename %s", filepath.Base(tmpName)), Err: err}
	}
	return nil
}

// Get returns the record for a fingerprint.
func (s *FileStore) Get(fingerprint string) (*domain.EvaluationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.idx.Items[fingerprint]
	return rec, ok
}

// Set stores a record, replacing any existing one wholesale.
func (s *FileStore) Set(fingerprint string, record *domain.EvaluationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx.Items[fingerprint] = record
}

// Records returns all cached records in unspecified order.
func (s *FileStore) Records() []*domain.EvaluationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*domain.EvaluationRecord, 0, len(s.idx.Items))
	for _, rec := range s.idx.Items {
		records = append(records, rec)
	}
	return records
}

// Clear drops all records and metadata.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = newIndex()
}

// SetMeta stores an index-level metadata entry.
func (s *FileStore) SetMeta(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx.Meta[key] = value
}

// GetMeta returns an index-level metadata entry.
func (s *FileStore) GetMeta(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.idx.Meta[key]
	return v, ok
}
