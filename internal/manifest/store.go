package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"srcset/internal/fileutil"
	"srcset/internal/logging"
)

const lockRetryDelay = 250 * time.Millisecond

// Store provides thread-safe access to a manifest file.
type Store struct {
	path   string
	logger *slog.Logger
	lock   *flock.Flock

	mu   sync.RWMutex
	data Manifest
}

// NewStore returns an empty store bound to path. Call Load to read the file,
// normally after Lock so a concurrent run's result is not overwritten.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "manifest"),
		lock:   flock.New(path + ".lock"),
		data:   make(Manifest),
	}
}

// Open returns a store with the manifest at path already loaded.
func Open(path string, logger *slog.Logger) *Store {
	s := NewStore(path, logger)
	s.Load()
	return s
}

// Load replaces the in-memory manifest with the file's contents. A missing
// file yields an empty manifest; an unreadable or corrupt one is logged and
// also treated as empty, so the run rebuilds it from derivatives on disk.
func (s *Store) Load() {
	if err := s.load(); err != nil {
		logging.WarnWithContext(s.logger, "failed to load image manifest", "manifest_load_failed",
			logging.String("path", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "manifest will be rebuilt from existing derivatives"),
			logging.String(logging.FieldImpact, "starting from an empty manifest"),
		)
		s.mu.Lock()
		s.data = make(Manifest)
		s.mu.Unlock()
	}
}

// Path returns the manifest file location.
func (s *Store) Path() string {
	return s.path
}

// Lock blocks until the cross-process manifest lock is held or ctx is done.
func (s *Store) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire manifest lock: %w", err)
	}
	if !ok {
		return errors.New("manifest lock not acquired")
	}
	s.logger.Debug("acquired manifest lock", logging.String("lock", s.lock.Path()))
	return nil
}

// Unlock releases the cross-process manifest lock.
func (s *Store) Unlock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release manifest lock",
			logging.String("lock", s.lock.Path()),
			logging.Error(err),
			logging.String(logging.FieldEventType, "manifest_unlock_failed"),
		)
	}
}

// Entry returns a copy of the entry recorded for source.
func (s *Store) Entry(source string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.data[source]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// Merge folds records for one source into the manifest. Formats absent from
// records are left as they were. Empty input leaves the manifest untouched.
func (s *Store) Merge(source string, records Entry) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.data[source]
	if entry == nil {
		entry = make(Entry, len(records))
		s.data[source] = entry
	}
	for format, incoming := range records {
		if len(incoming) == 0 {
			continue
		}
		entry[format] = MergeRecords(entry[format], incoming)
	}
	if len(entry) == 0 {
		delete(s.data, source)
	}
}

// Snapshot returns a deep copy of the current manifest.
func (s *Store) Snapshot() Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Count returns the number of sources in the manifest.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Save writes the manifest to disk atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := Encode(s.data)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	s.logger.Debug("saved image manifest",
		logging.String("path", s.path),
		logging.Int("source_count", s.Count()),
	)
	return nil
}

// Encode renders a manifest in its canonical on-disk form. Map keys are
// emitted sorted, so equal manifests encode to identical bytes.
func Encode(m Manifest) ([]byte, error) {
	if m == nil {
		m = Manifest{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Read parses the manifest file at path. A missing file is an empty manifest.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if len(data) == 0 {
		return Manifest{}, nil
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m == nil {
		m = Manifest{}
	}
	return m, nil
}

func (s *Store) load() error {
	m, err := Read(s.path)
	if err != nil {
		return err
	}
	if dropped := dropNullEntries(m); dropped > 0 {
		logging.WarnWithContext(s.logger, "ignoring null manifest entries", "manifest_null_entries",
			logging.String("path", s.path),
			logging.Int("count", dropped),
			logging.String(logging.FieldErrorHint, "run srcset manifest check to list them"),
			logging.String(logging.FieldImpact, "affected sources are rebuilt from existing derivatives"),
		)
	}
	s.mu.Lock()
	s.data = m
	s.mu.Unlock()
	s.logger.Debug("loaded image manifest",
		logging.Int("source_count", len(m)),
		logging.String("path", s.path),
	)
	return nil
}

// dropNullEntries removes sources whose entry decoded from JSON null.
func dropNullEntries(m Manifest) int {
	dropped := 0
	for source, entry := range m {
		if entry == nil {
			delete(m, source)
			dropped++
		}
	}
	return dropped
}
