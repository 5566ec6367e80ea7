// Package state stores the anti-forgery state values of OAuth redirects.
package state

import (
	"context"
	"sync"
	"time"

	"gatekeeper/internal/domain/service"
)

// MemoryStore keeps states in process memory. It is only suitable for a single instance.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

// NewMemoryStore creates an empty in-process state store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]time.Time),
		now:    time.Now,
	}
}

var _ service.StateStore = (*MemoryStore)(nil)

// Save stores a state parameter with expiration time
func (s *MemoryStore) Save(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state] = s.now().Add(ttl)
	s.cleanupExpiredLocked()

	return nil
}

// Consume validates and removes the state to prevent replay attacks
func (s *MemoryStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, exists := s.states[state]
	if !exists {
		return false, nil
	}
	delete(s.states, state)

	return s.now().Before(expiry), nil
}

func (s *MemoryStore) cleanupExpiredLocked() {
	now := s.now()
	for state, expiry := range s.states {
		if !now.Before(expiry) {
			delete(s.states, state)
		}
	}
}
