// Package recent maintains the recent-documents list: a small JSON file in
// the editor's data directory, most-recent-first, capped.
package recent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLimit caps the list length.
const DefaultLimit = 10

// Entry is one remembered project file.
type Entry struct {
	Path     string `json:"path"`
	OpenedAt int64  `json:"opened_at"`
}

// Store is the recent-documents list backed by one JSON file. Safe for
// concurrent use; the file is loaded lazily on first access and rewritten
// on every change.
type Store struct {
	path   string
	limit  int
	logger zerolog.Logger

	mu      sync.Mutex
	once    sync.Once
	entries []Entry
}

// NewStore creates a store persisting to path.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		limit:  DefaultLimit,
		logger: logger.With().Str("component", "recent").Logger(),
	}
}

func (s *Store) load() {
	s.once.Do(func() {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to read recent list")
			}
			return
		}
		if err := json.Unmarshal(data, &s.entries); err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("recent list corrupt, starting empty")
			s.entries = nil
		}
	})
}

// Record moves path to the front of the list, inserting it if new, and
// persists the result. Implements the engine's RecentRecorder.
func (s *Store) Record(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	entries := make([]Entry, 0, len(s.entries)+1)
	entries = append(entries, Entry{Path: path, OpenedAt: time.Now().UnixMilli()})
	for _, e := range s.entries {
		if e.Path == path {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	s.entries = entries
	s.persist()
}

// Remove drops path from the list, e.g. after the user opened a file that
// no longer exists.
func (s *Store) Remove(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Path != path {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(s.entries) {
		return
	}
	s.entries = kept
	s.persist()
}

// List returns the entries most-recent-first.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// persist writes the list out. Callers hold the lock. Failures are logged
// and swallowed: losing the recent list must never break a save.
func (s *Store) persist() {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode recent list")
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to create recent list directory")
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn().Err(fmt.Errorf("write recent list: %w", err)).Str("path", s.path).Msg("failed to persist recent list")
	}
}
