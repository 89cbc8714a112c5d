package proof

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory, thread-safe Store implementation.
// It is primarily useful for testing and for single-process deployments
// that do not require durable persistence across restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	byCID    map[string]*Proof
	byPostID map[string]string // post ID -> CID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCID:    make(map[string]*Proof),
		byPostID: make(map[string]string),
	}
}

// Insert implements Store. Both indices are written under one lock so no
// reader ever observes a partial registration.
func (s *MemoryStore) Insert(_ context.Context, p *Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byPostID[p.PostID]; ok {
		return ErrDuplicatePostID
	}
	if _, ok := s.byCID[p.CID]; ok {
		return ErrDuplicateCID
	}

	cp := *p
	s.byCID[p.CID] = &cp
	s.byPostID[p.PostID] = p.CID
	return nil
}

// GetByCID implements Store.
func (s *MemoryStore) GetByCID(_ context.Context, cid string) (*Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byCID[cid]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByPostID implements Store.
func (s *MemoryStore) GetByPostID(_ context.Context, postID string) (*Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cid, ok := s.byPostID[postID]
	if !ok {
		return nil, ErrNotFound
	}
	p, ok := s.byCID[cid]
	if !ok {
		// byPostID entries are only ever written together with byCID.
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, cid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byCID[cid]
	if !ok {
		return nil
	}
	delete(s.byPostID, p.PostID)
	delete(s.byCID, cid)
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCID), nil
}
