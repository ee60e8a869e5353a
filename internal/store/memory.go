package store

import "sync"

// MemoryBackend keeps namespaces in memory. Values survive Close and reopen
// for the lifetime of the backend. It is safe for concurrent use.
type MemoryBackend struct {
	mu         sync.Mutex
	namespaces map[string]map[string]byte

	// OpenError, if set, is returned by Open.
	OpenError error
	// PutError, if set, is returned by PutByte on every store.
	PutError error
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{namespaces: map[string]map[string]byte{}}
}

func (b *MemoryBackend) Open(namespace string) (Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OpenError != nil {
		return nil, b.OpenError
	}
	if b.namespaces[namespace] == nil {
		b.namespaces[namespace] = map[string]byte{}
	}
	return &memoryStore{backend: b, namespace: namespace}, nil
}

// Value returns the stored value and whether it exists.
func (b *MemoryBackend) Value(namespace, key string) (byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.namespaces[namespace][key]
	return v, ok
}

// Seed stores a value without going through a Store.
func (b *MemoryBackend) Seed(namespace, key string, v byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.namespaces[namespace] == nil {
		b.namespaces[namespace] = map[string]byte{}
	}
	b.namespaces[namespace][key] = v
}

type memoryStore struct {
	backend   *MemoryBackend
	namespace string
	closed    bool
}

func (s *memoryStore) GetByte(key string, def byte) byte {
	if v, ok := s.backend.Value(s.namespace, key); ok {
		return v
	}
	return def
}

func (s *memoryStore) PutByte(key string, v byte) error {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if b.PutError != nil {
		return b.PutError
	}
	b.namespaces[s.namespace][key] = v
	return nil
}

func (s *memoryStore) Close() error {
	s.backend.mu.Lock()
	s.closed = true
	s.backend.mu.Unlock()
	return nil
}
