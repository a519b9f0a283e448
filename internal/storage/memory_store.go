package storage

import "sync"

// MemoryStore keeps collections in process memory. It backs tests and the
// "memory" backend.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Init() error  { return nil }
func (s *MemoryStore) Load() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *MemoryStore) Put(key string, data []byte) error {
	return s.PutBatch(map[string][]byte{key: data})
}

func (s *MemoryStore) PutBatch(entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, data := range entries {
		s.data[key] = append([]byte(nil), data...)
	}
	return nil
}

func (s *MemoryStore) GetConfigPath() string {
	return ":memory:"
}
