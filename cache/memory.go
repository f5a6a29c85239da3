package cache

import (
	"context"
	"sync"

	"github.com/acmeware/shopsync/identity"
)

// MemoryStore implements Store with an in-process map. Used in tests and for
// sessions that do not need to survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

func (s *MemoryStore) Get(_ context.Context, scope identity.Scope, entity Entity) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.data[key(scope, entity)]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, scope identity.Scope, entity Entity, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.data[key(scope, entity)] = stored
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func key(scope identity.Scope, entity Entity) string {
	return string(entity) + "." + string(scope)
}
