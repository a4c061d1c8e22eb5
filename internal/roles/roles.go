// Package roles tracks which addresses hold ledger-wide roles.
package roles

import (
	"context"

	id "rightsledger/pkg/domain"
)

// Role is a ledger-wide capability grant. Token ownership is not a role;
// it is derived from the token's creator record.
type Role string

const (
	// RoleAdmin may grant and revoke roles and update any token's
	// revenue-share configuration.
	RoleAdmin Role = "admin"
	// RoleMinter may mint balances and record sales for any token.
	RoleMinter Role = "minter"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMinter
}

// Store persists role grants.
type Store interface {
	Grant(ctx context.Context, address id.Address, role Role) error
	Revoke(ctx context.Context, address id.Address, role Role) error
	Has(ctx context.Context, address id.Address, role Role) (bool, error)
	List(ctx context.Context, role Role) ([]id.Address, error)
}
