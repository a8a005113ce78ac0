package attempt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"riskgate/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the attempt does not exist or has expired
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// InMemoryStore keeps suspended attempts in memory for tests and
// single-instance deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	attempts map[string]*Attempt
}

// NewInMemory constructs an empty in-memory attempt store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{attempts: make(map[string]*Attempt)}
}

func (s *InMemoryStore) Save(_ context.Context, attempt *Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id string) (*Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempt, ok := s.attempts[id]
	if !ok {
		return nil, fmt.Errorf("attempt %s: %w", id, sentinel.ErrNotFound)
	}
	if attempt.Expired(time.Now()) {
		return nil, fmt.Errorf("attempt %s: %w", id, sentinel.ErrExpired)
	}
	return attempt, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, id)
	return nil
}
