package memory

import (
	"context"
	"sync"

	id "rightsledger/pkg/domain"
	audit "rightsledger/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.TokenID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.TokenID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.TokenID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.TokenID] = append(s.events[event.TokenID], event)
	return nil
}

func (s *InMemoryStore) ListByToken(_ context.Context, tokenID id.TokenID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[tokenID]...), nil
}

// ListAll returns all events across all tokens.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, tokenEvents := range s.events {
		all = append(all, tokenEvents...)
	}
	return all, nil
}
