package models

import (
	"time"

	id "rightsledger/pkg/domain"
	dErrors "rightsledger/pkg/domain-errors"
)

// BasisPointsTotal is the required sum of all shares in a configuration:
// 10,000 basis points = 100%.
const BasisPointsTotal = 10000

// RevenueShareConfig is the live recipient/share mapping for a token.
// Updates replace the whole set; there is no partial-patch path.
//
// Invariants:
//   - at least one recipient
//   - len(Recipients) == len(Shares)
//   - no zero-address recipient
//   - shares sum to exactly BasisPointsTotal
type RevenueShareConfig struct {
	Recipients []id.Address `json:"recipients"`
	Shares     []uint32     `json:"shares"`
}

// Validate enforces the configuration invariants. The check order is fixed
// so callers see the most structural problem first.
func (c RevenueShareConfig) Validate() error {
	if len(c.Recipients) != len(c.Shares) {
		return dErrors.New(dErrors.CodeBadRequest, "recipients and shares length mismatch")
	}
	if len(c.Recipients) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "recipients must not be empty")
	}
	var sum uint64
	for i, r := range c.Recipients {
		if r.IsZero() {
			return dErrors.New(dErrors.CodeBadRequest, "zero address recipient")
		}
		sum += uint64(c.Shares[i])
	}
	if sum != BasisPointsTotal {
		return dErrors.New(dErrors.CodeBadRequest, "shares must sum to 10000 basis points")
	}
	return nil
}

// Clone returns an independent deep copy. Receipts and history entries hold
// clones so later updates of the live configuration cannot reach them.
func (c RevenueShareConfig) Clone() RevenueShareConfig {
	return RevenueShareConfig{
		Recipients: append([]id.Address(nil), c.Recipients...),
		Shares:     append([]uint32(nil), c.Shares...),
	}
}

// RevenueShareHistoryEntry is an archived configuration, appended when a new
// configuration supersedes it. Entries are never removed; Sequence 0 is the
// configuration that was active before the first update.
type RevenueShareHistoryEntry struct {
	Recipients []id.Address `json:"recipients"`
	Shares     []uint32     `json:"shares"`
	UpdatedBy  id.Address   `json:"updated_by"`
	Sequence   uint64       `json:"sequence"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
