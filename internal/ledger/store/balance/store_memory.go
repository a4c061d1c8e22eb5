// Package balance tracks per-(token, holder) unit counts.
package balance

import (
	"context"
	"sync"

	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/sentinel"
)

// InMemory keeps balances in a nested map guarded by a RWMutex so balance
// queries from the access-control gateway can run concurrently.
type InMemory struct {
	mu       sync.RWMutex
	balances map[id.TokenID]map[id.Address]uint64
}

func NewInMemory() *InMemory {
	return &InMemory{balances: make(map[id.TokenID]map[id.Address]uint64)}
}

// Add credits units to the holder.
func (s *InMemory) Add(_ context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.balances[tokenID] == nil {
		s.balances[tokenID] = make(map[id.Address]uint64)
	}
	s.balances[tokenID][holder] += amount
	return nil
}

// Sub debits units from the holder; ErrInsufficient when the held amount is
// too low. Nothing is mutated on failure.
func (s *InMemory) Sub(_ context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.balances[tokenID][holder]
	if held < amount {
		return sentinel.ErrInsufficient
	}
	s.balances[tokenID][holder] = held - amount
	return nil
}

// Get returns the held amount; unknown pairs hold zero.
func (s *InMemory) Get(_ context.Context, tokenID id.TokenID, holder id.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[tokenID][holder], nil
}
