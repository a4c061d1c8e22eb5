package models

import (
	id "rightsledger/pkg/domain"
)

// TransferStatus tracks the one-hop restriction per (token, address).
//
// When an address receives a balance through an owner-authorized transfer it
// is marked here, and a marked address can never again be the source of a
// later owner-authorized transfer for the same token. Balances acquired
// through ordinary minting carry no mark and remain eligible sources.
// Statuses are never reset.
type TransferStatus struct {
	HasTransferred bool       `json:"has_transferred"`
	TransferredTo  id.Address `json:"transferred_to"`
}
