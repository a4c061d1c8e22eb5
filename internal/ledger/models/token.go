package models

import (
	"time"

	id "rightsledger/pkg/domain"
)

// Token is the immutable creation record of a rights token.
//
// Invariants:
//   - ID is allocated sequentially by the registry, starting at 1
//   - Creator is the token owner of record; ownership never moves
//   - DocumentRef and KeyLocator are fixed at creation
//
// The creator's access to the underlying document is granted through
// owner-of-record status, not through a held balance: create never mints a
// unit to the creator.
type Token struct {
	ID          id.TokenID `json:"id"`
	Creator     id.Address `json:"creator"`
	DocumentRef string     `json:"document_ref"`
	KeyLocator  string     `json:"key_locator"`
	CreatedAt   time.Time  `json:"created_at"`
}
