package storage

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Keys under which the two collections are stored.
const (
	ActiveKey    = "advancedTodos"
	CompletedKey = "advancedCompletedTodos"
)

// KV is a durable string-valued key-value store.
// A missing key is reported with ok=false, not an error.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Close() error
}

// Open returns the KV backend named by backend ("file" or "sqlite") rooted at path.
func Open(backend, path string) (KV, error) {
	switch backend {
	case "", "file":
		return NewFileKV(path)
	case "sqlite":
		return NewSQLiteKV(path)
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// MemoryKV keeps everything in process memory.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Close() error {
	return nil
}
