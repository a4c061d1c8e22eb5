package service

import (
	"context"
	"errors"

	"rightsledger/internal/ledger/models"
	"rightsledger/internal/roles"
	id "rightsledger/pkg/domain"
	dErrors "rightsledger/pkg/domain-errors"
	"rightsledger/pkg/platform/sentinel"
)

// Queries are unauthenticated reads with no side effects.

func (s *Service) GetReceipt(ctx context.Context, receiptID id.ReceiptID) (*models.Receipt, error) {
	receipt, err := s.stores.Receipts.Get(ctx, receiptID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "receipt not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load receipt")
	}
	return receipt, nil
}

func (s *Service) ReceiptsByToken(ctx context.Context, tokenID id.TokenID) ([]id.ReceiptID, error) {
	ids, err := s.stores.Receipts.ListByToken(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list receipts")
	}
	return ids, nil
}

func (s *Service) ReceiptsByCustomer(ctx context.Context, customer id.Address) ([]id.ReceiptID, error) {
	ids, err := s.stores.Receipts.ListByCustomer(ctx, customer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list receipts")
	}
	return ids, nil
}

func (s *Service) ReceiptCountByToken(ctx context.Context, tokenID id.TokenID) (int, error) {
	n, err := s.stores.Receipts.CountByToken(ctx, tokenID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count receipts")
	}
	return n, nil
}

func (s *Service) ReceiptCountByCustomer(ctx context.Context, customer id.Address) (int, error) {
	n, err := s.stores.Receipts.CountByCustomer(ctx, customer)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count receipts")
	}
	return n, nil
}

// ReceiptsByTokenPaginated returns full receipt records for one token in
// insertion order. Out-of-range windows yield an empty page, never an error.
func (s *Service) ReceiptsByTokenPaginated(ctx context.Context, tokenID id.TokenID, offset, limit int) ([]*models.Receipt, error) {
	receipts, err := s.stores.Receipts.Paginate(ctx, tokenID, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to paginate receipts")
	}
	return receipts, nil
}

func (s *Service) RevenueShareConfig(ctx context.Context, tokenID id.TokenID) (models.RevenueShareConfig, error) {
	cfg, err := s.stores.Shares.Config(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.RevenueShareConfig{}, dErrors.New(dErrors.CodeNotFound, "token not found")
		}
		return models.RevenueShareConfig{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load revenue share configuration")
	}
	return cfg, nil
}

func (s *Service) RevenueShareHistory(ctx context.Context, tokenID id.TokenID) ([]models.RevenueShareHistoryEntry, error) {
	history, err := s.stores.Shares.History(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load revenue share history")
	}
	return history, nil
}

func (s *Service) RevenueShareHistoryCount(ctx context.Context, tokenID id.TokenID) (int, error) {
	n, err := s.stores.Shares.HistoryCount(ctx, tokenID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count revenue share history")
	}
	return n, nil
}

func (s *Service) BalanceOf(ctx context.Context, tokenID id.TokenID, holder id.Address) (uint64, error) {
	balance, err := s.stores.Balances.Get(ctx, tokenID, holder)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	return balance, nil
}

// OwnerOf returns the token's creator, who is the permanent owner.
func (s *Service) OwnerOf(ctx context.Context, tokenID id.TokenID) (id.Address, error) {
	token, err := s.stores.Tokens.Get(ctx, tokenID)
	if err != nil {
		return "", translateTokenErr(err)
	}
	return token.Creator, nil
}

func (s *Service) TokenInfo(ctx context.Context, tokenID id.TokenID) (*models.Token, error) {
	token, err := s.stores.Tokens.Get(ctx, tokenID)
	if err != nil {
		return nil, translateTokenErr(err)
	}
	return token, nil
}

func (s *Service) TokenCount(ctx context.Context) (uint64, error) {
	n, err := s.stores.Tokens.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count tokens")
	}
	return n, nil
}

// TransferStatusOf reports whether holder has consumed its one-hop transfer
// for the token.
func (s *Service) TransferStatusOf(ctx context.Context, tokenID id.TokenID, holder id.Address) (models.TransferStatus, error) {
	status, err := s.stores.Transfers.Status(ctx, tokenID, holder)
	if err != nil {
		return models.TransferStatus{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer status")
	}
	return status, nil
}

func (s *Service) HasRole(ctx context.Context, address id.Address, role roles.Role) (bool, error) {
	if !role.Valid() {
		return false, dErrors.Newf(dErrors.CodeBadRequest, "unknown role %q", role)
	}
	ok, err := s.stores.Roles.Has(ctx, address, role)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check role")
	}
	return ok, nil
}

// CollectedFees returns the treasury balance of retained fees.
func (s *Service) CollectedFees(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectedFees, nil
}
