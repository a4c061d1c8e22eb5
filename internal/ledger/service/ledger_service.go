package service

import (
	"context"
	"errors"

	"rightsledger/internal/ledger/models"
	"rightsledger/internal/roles"
	id "rightsledger/pkg/domain"
	dErrors "rightsledger/pkg/domain-errors"
	"rightsledger/pkg/platform/audit"
	"rightsledger/pkg/platform/sentinel"
	"rightsledger/pkg/requestcontext"
)

// CreateResult reports the outcome of a Create operation: the allocated
// token ID and the fee surplus owed back to the caller.
type CreateResult struct {
	TokenID id.TokenID
	Refund  uint64
}

// MintResult reports the outcome of a Mint operation.
type MintResult struct {
	ReceiptID id.ReceiptID
	Refund    uint64
}

// Create registers a new rights token: it allocates the next token ID,
// records the immutable document/key references with the caller as owner,
// and installs the initial revenue-share configuration. No balance units are
// minted; distribution happens exclusively through Mint.
func (s *Service) Create(ctx context.Context, caller id.Address, keyLocator, documentRef string, cfg models.RevenueShareConfig, paidFee uint64) (CreateResult, error) {
	if err := requireCaller(caller); err != nil {
		return CreateResult{}, s.reject("create", err)
	}
	refund, err := s.checkFee(paidFee)
	if err != nil {
		return CreateResult{}, s.reject("create", err)
	}
	if err := cfg.Validate(); err != nil {
		return CreateResult{}, s.reject("create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var token *models.Token
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		t, err := s.stores.Tokens.Create(txCtx, documentRef, keyLocator, caller, now)
		if err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "document reference is already registered")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create token")
		}
		if err := s.stores.Shares.Init(txCtx, t.ID, cfg); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to install revenue share configuration")
		}
		token = t
		return nil
	})
	if err != nil {
		return CreateResult{}, s.reject("create", err)
	}

	s.collectFee()
	s.auditEmitter.emit(ctx, audit.EventTokenCreated, audit.Event{
		Actor:       caller,
		TokenID:     token.ID,
		Recipients:  cfg.Recipients,
		Shares:      cfg.Shares,
		DocumentRef: documentRef,
	})
	if s.metrics != nil {
		s.metrics.TokensCreated.Inc()
	}
	return CreateResult{TokenID: token.ID, Refund: refund}, nil
}

// Mint records a sale: one balance unit to the customer and an immutable
// receipt carrying a frozen copy of the revenue-share configuration live at
// this moment. Requires the minter role.
func (s *Service) Mint(ctx context.Context, caller id.Address, tokenID id.TokenID, customer id.Address, saleAmount uint64, invoiceID string, paidFee uint64) (MintResult, error) {
	if err := requireCaller(caller); err != nil {
		return MintResult{}, s.reject("mint", err)
	}
	decision, err := s.decideMinter(ctx, caller)
	if err != nil {
		return MintResult{}, s.reject("mint", err)
	}
	if err := decision.Err(); err != nil {
		return MintResult{}, s.reject("mint", err)
	}
	if customer.IsZero() {
		return MintResult{}, s.reject("mint", dErrors.New(dErrors.CodeBadRequest, "customer address must not be the zero address"))
	}
	refund, err := s.checkFee(paidFee)
	if err != nil {
		return MintResult{}, s.reject("mint", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var receipt *models.Receipt
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.stores.Tokens.Get(txCtx, tokenID); err != nil {
			return translateTokenErr(err)
		}
		snapshot, err := s.stores.Shares.Config(txCtx, tokenID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load revenue share configuration")
		}
		if err := s.stores.Balances.Add(txCtx, tokenID, customer, 1); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit customer balance")
		}
		now := requestcontext.Now(txCtx)
		r, err := s.stores.Receipts.Record(txCtx, tokenID, customer, saleAmount, invoiceID, snapshot, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record receipt")
		}
		receipt = r
		return nil
	})
	if err != nil {
		return MintResult{}, s.reject("mint", err)
	}

	s.collectFee()
	s.auditEmitter.emit(ctx, audit.EventTokenMinted, audit.Event{
		Actor:    caller,
		TokenID:  tokenID,
		Customer: customer,
		Amount:   saleAmount,
	})
	s.auditEmitter.emit(ctx, audit.EventReceiptCreated, audit.Event{
		Actor:      caller,
		TokenID:    tokenID,
		ReceiptID:  receipt.ID,
		Customer:   customer,
		Amount:     saleAmount,
		Recipients: receipt.Recipients,
		Shares:     receipt.Shares,
	})
	if s.metrics != nil {
		s.metrics.UnitsMinted.Inc()
		s.metrics.ReceiptsRecorded.Inc()
	}
	return MintResult{ReceiptID: receipt.ID, Refund: refund}, nil
}

// UpdateRevenueShare replaces the token's live configuration wholesale. The
// superseded configuration is archived to history first, tagged with the
// caller. Receipts already recorded keep their frozen snapshots.
func (s *Service) UpdateRevenueShare(ctx context.Context, caller id.Address, tokenID id.TokenID, cfg models.RevenueShareConfig) error {
	if err := requireCaller(caller); err != nil {
		return s.reject("update_revenue_share", err)
	}

	token, err := s.stores.Tokens.Get(ctx, tokenID)
	if err != nil {
		return s.reject("update_revenue_share", translateTokenErr(err))
	}
	decision, err := s.decideOwnerOrAdmin(ctx, caller, token.Creator)
	if err != nil {
		return s.reject("update_revenue_share", err)
	}
	if err := decision.Err(); err != nil {
		return s.reject("update_revenue_share", err)
	}
	if err := cfg.Validate(); err != nil {
		return s.reject("update_revenue_share", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var archived models.RevenueShareHistoryEntry
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		entry, err := s.stores.Shares.Replace(txCtx, tokenID, cfg, caller, now)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "token not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update revenue share configuration")
		}
		archived = entry
		return nil
	})
	if err != nil {
		return s.reject("update_revenue_share", err)
	}

	s.auditEmitter.emit(ctx, audit.EventRevenueShareHistorySaved, audit.Event{
		Actor:      caller,
		TokenID:    tokenID,
		Recipients: archived.Recipients,
		Shares:     archived.Shares,
	})
	s.auditEmitter.emit(ctx, audit.EventRevenueShareUpdated, audit.Event{
		Actor:      caller,
		TokenID:    tokenID,
		Recipients: cfg.Recipients,
		Shares:     cfg.Shares,
	})
	if s.metrics != nil {
		s.metrics.ShareUpdates.Inc()
	}
	return nil
}

// TransferByOwner moves balance units between holders under the one-hop
// rule: a source that previously received units through this operation is
// refused, and the destination is marked so it can never be a source later.
// Admin only; this is the sole balance-moving path between holders.
func (s *Service) TransferByOwner(ctx context.Context, caller, from, to id.Address, tokenID id.TokenID, amount uint64) error {
	if err := requireCaller(caller); err != nil {
		return s.reject("transfer_by_owner", err)
	}
	decision, err := s.decideAdmin(ctx, caller)
	if err != nil {
		return s.reject("transfer_by_owner", err)
	}
	if err := decision.Err(); err != nil {
		return s.reject("transfer_by_owner", err)
	}
	if from.IsZero() || to.IsZero() {
		return s.reject("transfer_by_owner", dErrors.New(dErrors.CodeBadRequest, "transfer endpoints must not be the zero address"))
	}
	if amount == 0 {
		return s.reject("transfer_by_owner", dErrors.New(dErrors.CodeBadRequest, "transfer amount must be positive"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.stores.Tokens.Get(txCtx, tokenID); err != nil {
			return translateTokenErr(err)
		}
		status, err := s.stores.Transfers.Status(txCtx, tokenID, from)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer status")
		}
		if status.HasTransferred {
			return dErrors.New(dErrors.CodeInvariantViolation, "source address has already used its transfer")
		}
		if err := s.stores.Balances.Sub(txCtx, tokenID, from, amount); err != nil {
			if errors.Is(err, sentinel.ErrInsufficient) {
				return dErrors.New(dErrors.CodeInsufficientFunds, "insufficient balance")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit source balance")
		}
		if err := s.stores.Balances.Add(txCtx, tokenID, to, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit destination balance")
		}
		if err := s.stores.Transfers.MarkReceived(txCtx, tokenID, to); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark destination")
		}
		return nil
	})
	if err != nil {
		return s.reject("transfer_by_owner", err)
	}

	s.auditEmitter.emit(ctx, audit.EventTransferByOwner, audit.Event{
		Actor:   caller,
		TokenID: tokenID,
		From:    from,
		To:      to,
		Amount:  amount,
	})
	if s.metrics != nil {
		s.metrics.OwnerTransfers.Inc()
	}
	return nil
}

// Transfer is the ordinary holder-to-holder transfer endpoint. The ledger
// does not permit it under any input; the operation exists only to report
// the restriction.
func (s *Service) Transfer(ctx context.Context, caller, from, to id.Address, tokenID id.TokenID, amount uint64) error {
	return s.reject("transfer", dErrors.New(dErrors.CodeInvariantViolation, "holder transfers are restricted; only owner-authorized transfers are permitted"))
}

// Burn destroys units from the caller's own balance. It never touches
// transfer status: a holder that burns and later receives again is still
// bound by any earlier marking.
func (s *Service) Burn(ctx context.Context, caller, holder id.Address, tokenID id.TokenID, amount uint64) error {
	if err := requireCaller(caller); err != nil {
		return s.reject("burn", err)
	}
	if caller != holder {
		return s.reject("burn", dErrors.New(dErrors.CodeForbidden, "holders may only burn their own balance"))
	}
	if amount == 0 {
		return s.reject("burn", dErrors.New(dErrors.CodeBadRequest, "burn amount must be positive"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.stores.Balances.Sub(txCtx, tokenID, holder, amount); err != nil {
			if errors.Is(err, sentinel.ErrInsufficient) {
				return dErrors.New(dErrors.CodeInsufficientFunds, "insufficient balance")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to burn balance")
		}
		return nil
	})
	if err != nil {
		return s.reject("burn", err)
	}

	s.auditEmitter.emit(ctx, audit.EventTokenBurned, audit.Event{
		Actor:   caller,
		TokenID: tokenID,
		From:    holder,
		Amount:  amount,
	})
	if s.metrics != nil {
		s.metrics.Burns.Inc()
	}
	return nil
}

// GrantRole gives address a ledger-wide role. Admin only.
func (s *Service) GrantRole(ctx context.Context, caller, address id.Address, role roles.Role) error {
	if err := s.authorizeRoleChange(ctx, caller, address, role); err != nil {
		return s.reject("grant_role", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stores.Roles.Grant(ctx, address, role); err != nil {
		return s.reject("grant_role", dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant role"))
	}
	s.auditEmitter.emit(ctx, audit.EventRoleGranted, audit.Event{Actor: caller, To: address})
	return nil
}

// RevokeRole removes a role from address. Admin only.
func (s *Service) RevokeRole(ctx context.Context, caller, address id.Address, role roles.Role) error {
	if err := s.authorizeRoleChange(ctx, caller, address, role); err != nil {
		return s.reject("revoke_role", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stores.Roles.Revoke(ctx, address, role); err != nil {
		return s.reject("revoke_role", dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke role"))
	}
	s.auditEmitter.emit(ctx, audit.EventRoleRevoked, audit.Event{Actor: caller, To: address})
	return nil
}

func (s *Service) authorizeRoleChange(ctx context.Context, caller, address id.Address, role roles.Role) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	decision, err := s.decideAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if err := decision.Err(); err != nil {
		return err
	}
	if address.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "role subject must not be the zero address")
	}
	if !role.Valid() {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown role %q", role)
	}
	return nil
}

func translateTokenErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "token not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token")
}
