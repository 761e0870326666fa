package store

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Op is a single write within an atomic batch.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Put returns an Op that sets key to value.
func Put(key, value []byte) Op { return Op{Key: key, Value: value} }

// Del returns an Op that removes key.
func Del(key []byte) Op { return Op{Key: key, Delete: true} }

// KV is the host storage primitive. Apply must be all-or-nothing.
type KV interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Apply(ops []Op) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

// Open creates the KV backend named by backend at path.
func Open(backend, path string) (KV, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemKV(), nil
	case BackendLevelDB:
		return NewLevelKV(path)
	case BackendBolt:
		return NewBoltKV(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// MemKV is an in-memory KV for testing.
type MemKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemKV) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemKV) Apply(ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		if op.Delete {
			delete(m.data, string(op.Key))
			continue
		}
		m.data[string(op.Key)] = append([]byte(nil), op.Value...)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Close satisfies KV; there is nothing to release.
func (m *MemKV) Close() error { return nil }
