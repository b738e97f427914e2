// Package kvstore persists small JSON records under string keys.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mrz1836/marksafe/internal/fileutil"
)

// storeFilePermissions is the permission mode for the store file.
const storeFilePermissions = 0o600

// ErrCorruptStore indicates the store file is not valid JSON.
var ErrCorruptStore = errors.New("store file is corrupted")

// Store reads and writes JSON-serializable records by key.
type Store interface {
	// Get decodes the record stored under key into dst.
	// It reports false, and leaves dst untouched, when the key does not exist.
	Get(key string, dst any) (bool, error)

	// Set replaces the record stored under key.
	Set(key string, value any) error
}

// Compile-time interface checks.
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// FileStore keeps all records in one JSON document on disk. Every Set is a
// read-modify-write of the whole document followed by an atomic rename, so a
// crash never leaves a half-written file behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the store file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get decodes the record under key into dst.
func (s *FileStore) Get(key string, dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return false, err
	}

	raw, ok := records[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key.
func (s *FileStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil && !errors.Is(err, ErrCorruptStore) {
		return err
	}
	records[key] = raw

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	if err := fileutil.WriteAtomic(s.path, data, storeFilePermissions); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	return nil
}

// load reads the document. A missing file is an empty store. A corrupt file
// is moved aside so the next write starts clean, and ErrCorruptStore is returned
// together with an empty record set.
func (s *FileStore) load() (map[string]json.RawMessage, error) {
	records := make(map[string]json.RawMessage)

	// #nosec G304 -- store path comes from configuration
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("reading store: %w", err)
	}
	if len(data) == 0 {
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			return map[string]json.RawMessage{}, fmt.Errorf("%w: %w (also failed to move file: %w)", ErrCorruptStore, err, renameErr)
		}
		return map[string]json.RawMessage{}, fmt.Errorf("%w: %w (moved to %s)", ErrCorruptStore, err, corruptPath)
	}
	if records == nil {
		records = make(map[string]json.RawMessage)
	}
	return records, nil
}

// MemoryStore is an in-process Store. Values are kept JSON encoded so callers
// never share memory with the store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte

	// SetErr, when non-nil, is returned by every Set.
	SetErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Get decodes the record under key into dst.
func (m *MemoryStore) Get(key string, dst any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.records[key]
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(key string, value any) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = raw
	return nil
}
