package handler

import (
	"rightsledger/internal/ledger/models"
	"rightsledger/internal/roles"
	id "rightsledger/pkg/domain"
)

type createTokenRequest struct {
	KeyLocator  string   `json:"key_locator"`
	DocumentRef string   `json:"document_ref"`
	Recipients  []string `json:"recipients"`
	Shares      []uint32 `json:"shares"`
	PaidFee     uint64   `json:"paid_fee"`
}

type createTokenResponse struct {
	TokenID id.TokenID `json:"token_id"`
	Refund  uint64     `json:"refund"`
}

type mintRequest struct {
	Customer         string `json:"customer"`
	SaleAmount       uint64 `json:"sale_amount"`
	PaymentInvoiceID string `json:"payment_invoice_id"`
	PaidFee          uint64 `json:"paid_fee"`
}

type mintResponse struct {
	ReceiptID id.ReceiptID `json:"receipt_id"`
	Refund    uint64       `json:"refund"`
}

type updateRevenueShareRequest struct {
	Recipients []string `json:"recipients"`
	Shares     []uint32 `json:"shares"`
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type burnRequest struct {
	Holder string `json:"holder"`
	Amount uint64 `json:"amount"`
}

type roleRequest struct {
	Address string `json:"address"`
	Role    string `json:"role"`
}

type balanceResponse struct {
	TokenID id.TokenID `json:"token_id"`
	Holder  id.Address `json:"holder"`
	Balance uint64     `json:"balance"`
}

type ownerResponse struct {
	TokenID id.TokenID `json:"token_id"`
	Owner   id.Address `json:"owner"`
}

type countResponse struct {
	Count int `json:"count"`
}

type receiptIDsResponse struct {
	ReceiptIDs []id.ReceiptID `json:"receipt_ids"`
}

type collectedFeesResponse struct {
	CollectedFees uint64 `json:"collected_fees"`
}

type hasRoleResponse struct {
	Address id.Address `json:"address"`
	Role    roles.Role `json:"role"`
	HasRole bool       `json:"has_role"`
}

// shareConfig converts the wire recipients/shares pair into the domain
// configuration. Addresses are only normalized here; structural validation
// stays with the model so every entry point shares the same check order,
// and an empty string lands on the zero address the model rejects.
func shareConfig(recipients []string, shares []uint32) models.RevenueShareConfig {
	addrs := make([]id.Address, len(recipients))
	for i, r := range recipients {
		if addr, err := id.ParseAddress(r); err == nil {
			addrs[i] = addr
		}
	}
	return models.RevenueShareConfig{Recipients: addrs, Shares: shares}
}
