package transfer

import (
	"context"
	"sync"

	"rightsledger/internal/ledger/models"
	id "rightsledger/pkg/domain"
)

type statusKey struct {
	token  id.TokenID
	holder id.Address
}

// InMemory tracks the single-use transfer marker per (token, address) pair.
// An address never seen is reported as not having transferred; there is no
// way to clear a marker once set.
type InMemory struct {
	mu       sync.RWMutex
	statuses map[statusKey]models.TransferStatus
}

func NewInMemory() *InMemory {
	return &InMemory{statuses: make(map[statusKey]models.TransferStatus)}
}

func (s *InMemory) Status(_ context.Context, tokenID id.TokenID, holder id.Address) (models.TransferStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[statusKey{token: tokenID, holder: holder}], nil
}

// MarkReceived records that holder received tokens through an owner-authorized
// transfer, consuming their single future transfer for this token.
func (s *InMemory) MarkReceived(_ context.Context, tokenID id.TokenID, holder id.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[statusKey{token: tokenID, holder: holder}] = models.TransferStatus{
		HasTransferred: true,
		TransferredTo:  holder,
	}
	return nil
}
