package models

import (
	"time"

	id "rightsledger/pkg/domain"
)

// Receipt is the immutable audit record of one sale. The distribution
// fields are a frozen copy of the revenue-share configuration that was live
// at mint time; updating the live configuration later never changes them.
type Receipt struct {
	ID         id.ReceiptID `json:"id"`
	TokenID    id.TokenID   `json:"token_id"`
	Customer   id.Address   `json:"customer"`
	SaleAmount uint64       `json:"sale_amount"`
	// PaymentInvoiceID is the payment processor's identifier, opaque to the
	// ledger.
	PaymentInvoiceID string       `json:"payment_invoice_id"`
	Recipients       []id.Address `json:"recipients"`
	Shares           []uint32     `json:"shares"`
	CreatedAt        time.Time    `json:"created_at"`
}

// Distribution returns the frozen share snapshot as a config value.
func (r *Receipt) Distribution() RevenueShareConfig {
	return RevenueShareConfig{Recipients: r.Recipients, Shares: r.Shares}.Clone()
}
