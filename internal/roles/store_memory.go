package roles

import (
	"context"
	"sort"
	"sync"

	id "rightsledger/pkg/domain"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[Role]map[id.Address]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{grants: make(map[Role]map[id.Address]struct{})}
}

func (s *InMemoryStore) Grant(_ context.Context, address id.Address, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	holders, ok := s.grants[role]
	if !ok {
		holders = make(map[id.Address]struct{})
		s.grants[role] = holders
	}
	holders[address] = struct{}{}
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, address id.Address, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[role], address)
	return nil
}

func (s *InMemoryStore) Has(_ context.Context, address id.Address, role Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[role][address]
	return ok, nil
}

func (s *InMemoryStore) List(_ context.Context, role Role) ([]id.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.Address, 0, len(s.grants[role]))
	for addr := range s.grants[role] {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
