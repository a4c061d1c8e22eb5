// Package revenueshare holds the live revenue-share configuration per token
// and the full archive of superseded configurations.
package revenueshare

import (
	"context"
	"sync"
	"time"

	"rightsledger/internal/ledger/models"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/sentinel"
)

// InMemory stores configurations and history in process. All reads hand out
// deep copies; the stored configuration is only reachable through Replace.
type InMemory struct {
	mu      sync.RWMutex
	configs map[id.TokenID]models.RevenueShareConfig
	history map[id.TokenID][]models.RevenueShareHistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		configs: make(map[id.TokenID]models.RevenueShareConfig),
		history: make(map[id.TokenID][]models.RevenueShareHistoryEntry),
	}
}

// Init records the initial configuration set at token creation. It archives
// nothing: there is no prior configuration to supersede. ErrInvalidState if
// the token already has one.
func (s *InMemory) Init(_ context.Context, tokenID id.TokenID, cfg models.RevenueShareConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.configs[tokenID]; exists {
		return sentinel.ErrInvalidState
	}
	s.configs[tokenID] = cfg.Clone()
	return nil
}

// Replace archives the current configuration verbatim, then swaps in the new
// one wholesale. The archived entry's sequence is the history length before
// the append, so sequence 0 is always the pre-first-update configuration.
func (s *InMemory) Replace(_ context.Context, tokenID id.TokenID, cfg models.RevenueShareConfig, updatedBy id.Address, now time.Time) (models.RevenueShareHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior, exists := s.configs[tokenID]
	if !exists {
		return models.RevenueShareHistoryEntry{}, sentinel.ErrNotFound
	}

	entry := models.RevenueShareHistoryEntry{
		Recipients: append([]id.Address(nil), prior.Recipients...),
		Shares:     append([]uint32(nil), prior.Shares...),
		UpdatedBy:  updatedBy,
		Sequence:   uint64(len(s.history[tokenID])),
		UpdatedAt:  now,
	}
	s.history[tokenID] = append(s.history[tokenID], entry)
	s.configs[tokenID] = cfg.Clone()
	return entry, nil
}

// Config returns a copy of the live configuration, or ErrNotFound.
func (s *InMemory) Config(_ context.Context, tokenID id.TokenID) (models.RevenueShareConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, exists := s.configs[tokenID]
	if !exists {
		return models.RevenueShareConfig{}, sentinel.ErrNotFound
	}
	return cfg.Clone(), nil
}

// History returns the archived configurations in update order.
func (s *InMemory) History(_ context.Context, tokenID id.TokenID) ([]models.RevenueShareHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[tokenID]
	out := make([]models.RevenueShareHistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = models.RevenueShareHistoryEntry{
			Recipients: append([]id.Address(nil), e.Recipients...),
			Shares:     append([]uint32(nil), e.Shares...),
			UpdatedBy:  e.UpdatedBy,
			Sequence:   e.Sequence,
			UpdatedAt:  e.UpdatedAt,
		}
	}
	return out, nil
}

// HistoryCount returns how many configurations have been superseded.
func (s *InMemory) HistoryCount(_ context.Context, tokenID id.TokenID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history[tokenID]), nil
}
