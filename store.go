package spt

import (
	"context"
	"sync"
)

// TokenStore abstracts persistence for issued token records. Implementations
// must be safe for concurrent use and must never expose partial writes: Get
// returns a snapshot that later mutations cannot alter.
type TokenStore interface {
	Put(ctx context.Context, token *IssuedToken) error
	Get(ctx context.Context, id string) (*IssuedToken, bool, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// MemoryTokenStore keeps token records in a mutex-guarded in-process map.
// There is no eviction; expiry is enforced lazily by the issuer on read.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]IssuedToken
}

// NewMemoryTokenStore builds an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]IssuedToken),
	}
}

// Put stores a copy of the record keyed by its identifier.
func (s *MemoryTokenStore) Put(_ context.Context, token *IssuedToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.ID] = *token
	return nil
}

// Get returns a copy of the record, or false when the identifier is unknown.
func (s *MemoryTokenStore) Get(_ context.Context, id string) (*IssuedToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[id]
	if !ok {
		return nil, false, nil
	}
	return &token, true, nil
}

// Delete removes the record. Deleting an unknown identifier is a no-op.
func (s *MemoryTokenStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	return nil
}

// Count reports the number of stored records, expired ones included.
func (s *MemoryTokenStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens), nil
}
