package storage

// Provider is a mapping store: each key holds one opaque blob (a JSON array of
// records). Writes replace the whole value for a key.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Get returns the blob stored under key. ok is false when nothing is stored.
	Get(key string) (data []byte, ok bool, err error)
	// Put replaces the blob under key. On error the previous value is retained.
	Put(key string, data []byte) error
	// PutBatch replaces several keys in one write. Either every key is written
	// or none is.
	PutBatch(entries map[string][]byte) error

	// Utils
	GetConfigPath() string
}
