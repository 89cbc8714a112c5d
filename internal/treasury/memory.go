package treasury

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory, thread-safe Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	balance int64
}

// NewMemoryStore creates a MemoryStore with a zero balance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Balance implements Store.
func (s *MemoryStore) Balance(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance, nil
}

// Credit implements Store.
func (s *MemoryStore) Credit(_ context.Context, amount int64) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance += amount
	return s.balance, nil
}

// Debit implements Store.
func (s *MemoryStore) Debit(_ context.Context, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount > s.balance {
		return 0, ErrInsufficientFunds
	}
	s.balance -= amount
	return s.balance, nil
}

// DebitAll implements Store.
func (s *MemoryStore) DebitAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balance == 0 {
		return 0, ErrNoFunds
	}
	drained := s.balance
	s.balance = 0
	return drained, nil
}
