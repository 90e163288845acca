package memory

import (
	"context"
	"sync"

	"github.com/aretw0/botflow/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.ConversationKey]*domain.State
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.ConversationKey]*domain.State),
	}
}

// Save persists a copy of the state.
func (s *Store) Save(ctx context.Context, key domain.ConversationKey, state *domain.State) error {
	copied := state.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves a copy of the state so callers can't mutate the store.
func (s *Store) Load(ctx context.Context, key domain.ConversationKey) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Snapshot(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, key domain.ConversationKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the conversations stored for a flow.
func (s *Store) List(ctx context.Context, flowID string) ([]domain.ConversationKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]domain.ConversationKey, 0)
	for k := range s.data {
		if k.FlowID == flowID {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
