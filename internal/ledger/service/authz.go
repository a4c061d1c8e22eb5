package service

import (
	"context"

	"rightsledger/internal/roles"
	id "rightsledger/pkg/domain"
	dErrors "rightsledger/pkg/domain-errors"
)

// Decision is the tagged outcome of an authorization check. It is evaluated
// before any mutation so a denial never leaves partial state.
type Decision int

const (
	Allowed Decision = iota
	DeniedNotOwner
	DeniedNotAdmin
	DeniedNotMinter
)

// Err translates a denial into the coded error handlers surface. Allowed
// yields nil.
func (d Decision) Err() error {
	switch d {
	case Allowed:
		return nil
	case DeniedNotOwner:
		return dErrors.New(dErrors.CodeForbidden, "caller is neither the token owner nor an admin")
	case DeniedNotAdmin:
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	case DeniedNotMinter:
		return dErrors.New(dErrors.CodeForbidden, "minter role required")
	default:
		return dErrors.New(dErrors.CodeForbidden, "operation not permitted")
	}
}

func requireCaller(caller id.Address) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	return nil
}

func (s *Service) decideAdmin(ctx context.Context, caller id.Address) (Decision, error) {
	ok, err := s.stores.Roles.Has(ctx, caller, roles.RoleAdmin)
	if err != nil {
		return DeniedNotAdmin, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin role")
	}
	if !ok {
		return DeniedNotAdmin, nil
	}
	return Allowed, nil
}

func (s *Service) decideMinter(ctx context.Context, caller id.Address) (Decision, error) {
	ok, err := s.stores.Roles.Has(ctx, caller, roles.RoleMinter)
	if err != nil {
		return DeniedNotMinter, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check minter role")
	}
	if !ok {
		return DeniedNotMinter, nil
	}
	return Allowed, nil
}

// decideOwnerOrAdmin allows the token's creator and any admin. The token
// must already be loaded; ownership is derived from the creator record, not
// from a role grant.
func (s *Service) decideOwnerOrAdmin(ctx context.Context, caller, owner id.Address) (Decision, error) {
	if caller == owner {
		return Allowed, nil
	}
	ok, err := s.stores.Roles.Has(ctx, caller, roles.RoleAdmin)
	if err != nil {
		return DeniedNotOwner, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin role")
	}
	if !ok {
		return DeniedNotOwner, nil
	}
	return Allowed, nil
}
