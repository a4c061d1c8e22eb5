// Package receipt is the append-only sale ledger with per-token and
// per-customer indices.
package receipt

import (
	"context"
	"sync"
	"time"

	"rightsledger/internal/ledger/models"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/sentinel"
)

// InMemory appends receipts in process. The global receipt counter starts
// at zero and pre-increments, so the first receipt is 1.
type InMemory struct {
	mu         sync.RWMutex
	counter    uint64
	receipts   map[id.ReceiptID]*models.Receipt
	byToken    map[id.TokenID][]id.ReceiptID
	byCustomer map[id.Address][]id.ReceiptID
}

func NewInMemory() *InMemory {
	return &InMemory{
		receipts:   make(map[id.ReceiptID]*models.Receipt),
		byToken:    make(map[id.TokenID][]id.ReceiptID),
		byCustomer: make(map[id.Address][]id.ReceiptID),
	}
}

// Record appends a receipt carrying a deep copy of the distribution
// snapshot, so later changes to the live configuration cannot reach it.
func (s *InMemory) Record(_ context.Context, tokenID id.TokenID, customer id.Address, saleAmount uint64, invoiceID string, snapshot models.RevenueShareConfig, now time.Time) (*models.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frozen := snapshot.Clone()
	s.counter++
	r := &models.Receipt{
		ID:               id.ReceiptID(s.counter),
		TokenID:          tokenID,
		Customer:         customer,
		SaleAmount:       saleAmount,
		PaymentInvoiceID: invoiceID,
		Recipients:       frozen.Recipients,
		Shares:           frozen.Shares,
		CreatedAt:        now,
	}
	s.receipts[r.ID] = r
	s.byToken[tokenID] = append(s.byToken[tokenID], r.ID)
	s.byCustomer[customer] = append(s.byCustomer[customer], r.ID)
	return copyReceipt(r), nil
}

// Get returns the receipt, or ErrNotFound.
func (s *InMemory) Get(_ context.Context, receiptID id.ReceiptID) (*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.receipts[receiptID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyReceipt(r), nil
}

// ListByToken returns the token's receipt IDs in insertion order. Tokens
// with no receipts yield an empty slice, not an error.
func (s *InMemory) ListByToken(_ context.Context, tokenID id.TokenID) ([]id.ReceiptID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.ReceiptID{}, s.byToken[tokenID]...), nil
}

// ListByCustomer returns the customer's receipt IDs in insertion order.
func (s *InMemory) ListByCustomer(_ context.Context, customer id.Address) ([]id.ReceiptID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.ReceiptID{}, s.byCustomer[customer]...), nil
}

func (s *InMemory) CountByToken(_ context.Context, tokenID id.TokenID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken[tokenID]), nil
}

func (s *InMemory) CountByCustomer(_ context.Context, customer id.Address) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCustomer[customer]), nil
}

// Paginate returns the slice [offset, offset+limit) of the token's receipts
// in insertion order. Out-of-range offsets yield an empty slice; the range
// is clamped, never an error.
func (s *InMemory) Paginate(_ context.Context, tokenID id.TokenID, offset, limit int) ([]*models.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byToken[tokenID]
	if offset < 0 || limit < 0 || offset >= len(ids) {
		return []*models.Receipt{}, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	out := make([]*models.Receipt, 0, end-offset)
	for _, rid := range ids[offset:end] {
		out = append(out, copyReceipt(s.receipts[rid]))
	}
	return out, nil
}

func copyReceipt(r *models.Receipt) *models.Receipt {
	c := *r
	c.Recipients = append([]id.Address(nil), r.Recipients...)
	c.Shares = append([]uint32(nil), r.Shares...)
	return &c
}
