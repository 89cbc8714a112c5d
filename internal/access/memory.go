package access

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory, thread-safe Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	current string
}

// NewMemoryStore creates a MemoryStore initialised to the given controller
// address. addr may be empty; Init can set it later.
func NewMemoryStore(addr string) *MemoryStore {
	return &MemoryStore{current: addr}
}

// Current implements Store.
func (s *MemoryStore) Current(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

// Init implements Store.
func (s *MemoryStore) Init(_ context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		s.current = addr
	}
	return nil
}

// Replace implements Store.
func (s *MemoryStore) Replace(_ context.Context, expected, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != expected {
		return ErrNotAuthorized
	}
	s.current = next
	return nil
}
