package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rightsledger/internal/ledger/models"
	id "rightsledger/pkg/domain"
	txcontext "rightsledger/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Status(ctx context.Context, tokenID id.TokenID, holder id.Address) (models.TransferStatus, error) {
	var transferredTo string
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT transferred_to FROM transfer_status WHERE token_id = $1 AND holder = $2
	`, uint64(tokenID), holder.String()).Scan(&transferredTo)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TransferStatus{}, nil
	}
	if err != nil {
		return models.TransferStatus{}, fmt.Errorf("transfer status: %w", err)
	}
	return models.TransferStatus{HasTransferred: true, TransferredTo: id.Address(transferredTo)}, nil
}

func (s *PostgresStore) MarkReceived(ctx context.Context, tokenID id.TokenID, holder id.Address) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO transfer_status (token_id, holder, transferred_to)
		VALUES ($1, $2, $2)
		ON CONFLICT (token_id, holder) DO NOTHING
	`, uint64(tokenID), holder.String())
	if err != nil {
		return fmt.Errorf("mark received: %w", err)
	}
	return nil
}
