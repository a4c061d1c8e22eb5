package balance

import (
	"context"
	"database/sql"
	"fmt"

	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/sentinel"
	txcontext "rightsledger/pkg/platform/tx"
)

// PostgresStore persists balances in PostgreSQL, one row per
// (token, holder) pair.
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

func (s *PostgresStore) Add(ctx context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO balances (token_id, holder, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id, holder) DO UPDATE SET amount = balances.amount + EXCLUDED.amount
	`, uint64(tokenID), holder.String(), amount)
	if err != nil {
		return fmt.Errorf("add balance: %w", err)
	}
	return nil
}

// Sub debits atomically; the WHERE clause rejects overdrafts so a concurrent
// debit can never push a balance negative.
func (s *PostgresStore) Sub(ctx context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE balances SET amount = amount - $3
		WHERE token_id = $1 AND holder = $2 AND amount >= $3
	`, uint64(tokenID), holder.String(), amount)
	if err != nil {
		return fmt.Errorf("sub balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sub balance: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInsufficient
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, tokenID id.TokenID, holder id.Address) (uint64, error) {
	var amount uint64
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT amount FROM balances WHERE token_id = $1 AND holder = $2
	`, uint64(tokenID), holder.String()).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return amount, nil
}
