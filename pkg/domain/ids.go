// Package domain holds the typed identifiers shared across the ledger.
// Construct values via the Parse functions at trust boundaries so validation
// cannot be bypassed; direct casting is reserved for internal code that
// already holds a validated value.
package domain

import (
	"strconv"
	"strings"

	dErrors "rightsledger/pkg/domain-errors"
)

// TokenID identifies a rights token. IDs are allocated sequentially by the
// token registry starting at 1; zero is never a valid token ID.
type TokenID uint64

// ReceiptID identifies a sale receipt. IDs are global across all tokens,
// allocated sequentially starting at 1; zero is never a valid receipt ID.
type ReceiptID uint64

// Address identifies a participant: token owners, customers, revenue
// recipients, role holders. The ledger treats it as an opaque lowercase
// string; the zero address is reserved and never a valid participant.
type Address string

// ZeroAddress is the reserved null participant. Minting to it or naming it
// as a revenue recipient is rejected.
const ZeroAddress Address = ""

// ParseTokenID parses external input into a TokenID.
func ParseTokenID(s string) (TokenID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid token id")
	}
	return TokenID(n), nil
}

// ParseReceiptID parses external input into a ReceiptID.
func ParseReceiptID(s string) (ReceiptID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid receipt id")
	}
	return ReceiptID(n), nil
}

// ParseAddress normalizes and validates external input into an Address.
// Addresses are case-insensitive; the canonical form is lowercase.
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ZeroAddress, dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	return Address(s), nil
}

// IsNil reports whether the token ID is the unallocated zero value.
func (id TokenID) IsNil() bool { return id == 0 }

func (id TokenID) String() string { return strconv.FormatUint(uint64(id), 10) }

// IsNil reports whether the receipt ID is the unallocated zero value.
func (id ReceiptID) IsNil() bool { return id == 0 }

func (id ReceiptID) String() string { return strconv.FormatUint(uint64(id), 10) }

// IsZero reports whether the address is the reserved null participant.
func (a Address) IsZero() bool { return a == ZeroAddress }

func (a Address) String() string { return string(a) }
