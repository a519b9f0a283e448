package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/cadence/internal/logger"
)

const jsonStoreVersion = 1

type document struct {
	Version     int                        `json:"version"`
	Collections map[string]json.RawMessage `json:"collections"`
}

// JSONStore keeps every collection in a single JSON file. Each write rewrites
// the file through a temporary file and rename, so a failed write leaves the
// previous contents in place. The cached document is re-read whenever the file
// on disk was replaced by another process.
type JSONStore struct {
	path string
	doc  *document
	// info identifies the file the cached doc was read from or written to.
	info os.FileInfo
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	doc := &document{
		Version:     jsonStoreVersion,
		Collections: make(map[string]json.RawMessage),
	}
	if err := s.save(doc); err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *JSONStore) Load() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'cadence init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		// An unreadable file degrades to empty collections rather than failing.
		logger.Warn("Storage file is corrupt, starting with empty collections", "path", s.path, "error", err)
		doc = &document{Version: jsonStoreVersion}
	}
	if doc.Collections == nil {
		doc.Collections = make(map[string]json.RawMessage)
	}

	s.doc = doc
	s.info = info
	return nil
}

// refresh reloads the document if the file was replaced or modified since it
// was last read or written by this store.
func (s *JSONStore) refresh() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat storage: %w", err)
	}
	if s.info != nil && os.SameFile(s.info, info) &&
		info.ModTime().Equal(s.info.ModTime()) && info.Size() == s.info.Size() {
		return nil
	}
	logger.Debug("Storage file changed on disk, reloading", "path", s.path)
	return s.Load()
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) Get(key string) ([]byte, bool, error) {
	if s.doc == nil {
		return nil, false, fmt.Errorf("storage not loaded")
	}
	if err := s.refresh(); err != nil {
		return nil, false, err
	}

	raw, ok := s.doc.Collections[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (s *JSONStore) Put(key string, data []byte) error {
	return s.PutBatch(map[string][]byte{key: data})
}

func (s *JSONStore) PutBatch(entries map[string][]byte) error {
	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}
	if err := s.refresh(); err != nil {
		return err
	}

	next := &document{
		Version:     jsonStoreVersion,
		Collections: make(map[string]json.RawMessage, len(s.doc.Collections)+len(entries)),
	}
	for key, raw := range s.doc.Collections {
		next.Collections[key] = raw
	}
	for key, data := range entries {
		if !json.Valid(data) {
			return fmt.Errorf("refusing to store invalid JSON under %q", key)
		}
		next.Collections[key] = append(json.RawMessage(nil), data...)
	}

	if err := s.save(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *JSONStore) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close storage: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set storage permissions: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace storage: %w", err)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat storage: %w", err)
	}
	s.info = info
	return nil
}

// GetConfigPath returns the path to the storage file.
//
// Concurrency note:
//   - JSONStore is not safe for concurrent use by multiple goroutines without external
//     synchronization.
//   - Writes from other cadence processes are picked up on the next Get or PutBatch.
//     Two processes writing in the same instant can still race; the last rename wins.
func (s *JSONStore) GetConfigPath() string {
	return s.path
}
