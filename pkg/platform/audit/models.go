package audit

import (
	"context"
	"time"

	id "rightsledger/pkg/domain"
)

// EventCategory classifies ledger events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with audit-trail significance:
	// anything that changes token state, balances, or revenue attribution.
	// These require tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for operational visibility
	// that carry no compliance weight on their own.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture ledger state changes. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// Actor is the authenticated caller that performed the operation.
	Actor id.Address
	// TokenID is set for every event; ReceiptID only for mint events.
	TokenID   id.TokenID
	ReceiptID id.ReceiptID
	// From/To are set for transfer events, Customer for mint events.
	From     id.Address
	To       id.Address
	Customer id.Address
	// Amount carries the sale amount (mint), unit count (transfer, burn),
	// or zero when not applicable.
	Amount uint64
	// Recipients and Shares snapshot the revenue-share configuration the
	// event refers to.
	Recipients []id.Address
	Shares     []uint32
	// DocumentRef is set on token creation.
	DocumentRef string
	// RequestID is the correlation ID from the request context.
	RequestID string
}

// LedgerEvent names every externally observable side effect of the ledger.
type LedgerEvent string

const (
	EventTokenCreated             LedgerEvent = "token_created"
	EventTokenMinted              LedgerEvent = "token_minted"
	EventReceiptCreated           LedgerEvent = "receipt_created"
	EventRevenueShareUpdated      LedgerEvent = "revenue_share_updated"
	EventRevenueShareHistorySaved LedgerEvent = "revenue_share_history_saved"
	EventTransferByOwner          LedgerEvent = "transfer_by_owner"
	EventTokenBurned              LedgerEvent = "token_burned"
	EventRoleGranted              LedgerEvent = "role_granted"
	EventRoleRevoked              LedgerEvent = "role_revoked"
)

// eventCategories is the single source of truth for event routing.
var eventCategories = map[LedgerEvent]EventCategory{
	EventTokenCreated:             CategoryCompliance,
	EventTokenMinted:              CategoryCompliance,
	EventReceiptCreated:           CategoryCompliance,
	EventRevenueShareUpdated:      CategoryCompliance,
	EventRevenueShareHistorySaved: CategoryCompliance,
	EventTransferByOwner:          CategoryCompliance,
	EventTokenBurned:              CategoryCompliance,
	EventRoleGranted:              CategoryOperations,
	EventRoleRevoked:              CategoryOperations,
}

// Category returns the routing category for the event, defaulting to
// operations for unknown actions.
func (e LedgerEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// Store receives emitted events. Implementations: in-memory (tests, single
// process), Kafka (deployments).
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can enumerate what they received.
// Write-only sinks such as Kafka do not implement it.
type Reader interface {
	ListByToken(ctx context.Context, tokenID id.TokenID) ([]Event, error)
}
