// Package token holds the token registry: sequential ID allocation and the
// immutable creation records.
package token

import (
	"context"
	"sync"
	"time"

	"rightsledger/internal/ledger/models"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/sentinel"
)

// InMemory is the in-process token registry. The ID counter starts at zero
// and pre-increments, so the first token is 1.
type InMemory struct {
	mu         sync.RWMutex
	counter    uint64
	tokens     map[id.TokenID]*models.Token
	byDocument map[string]id.TokenID
	uniqueDocs bool
}

// NewInMemory builds an empty registry. With uniqueDocs set, a second token
// for the same document reference is rejected with ErrConflict.
func NewInMemory(uniqueDocs bool) *InMemory {
	return &InMemory{
		tokens:     make(map[id.TokenID]*models.Token),
		byDocument: make(map[string]id.TokenID),
		uniqueDocs: uniqueDocs,
	}
}

// Create allocates the next token ID and stores the immutable record.
func (s *InMemory) Create(_ context.Context, documentRef, keyLocator string, creator id.Address, now time.Time) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uniqueDocs {
		if _, exists := s.byDocument[documentRef]; exists {
			return nil, sentinel.ErrConflict
		}
	}

	s.counter++
	t := &models.Token{
		ID:          id.TokenID(s.counter),
		Creator:     creator,
		DocumentRef: documentRef,
		KeyLocator:  keyLocator,
		CreatedAt:   now,
	}
	s.tokens[t.ID] = t
	if _, exists := s.byDocument[documentRef]; !exists {
		s.byDocument[documentRef] = t.ID
	}
	return copyToken(t), nil
}

// Get returns the token record, or ErrNotFound.
func (s *InMemory) Get(_ context.Context, tokenID id.TokenID) (*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[tokenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyToken(t), nil
}

// Count returns how many tokens have been created.
func (s *InMemory) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter, nil
}

func copyToken(t *models.Token) *models.Token {
	c := *t
	return &c
}
