package roles

import (
	"context"
	"database/sql"
	"fmt"

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
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Grant(ctx context.Context, address id.Address, role Role) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO roles (address, role) VALUES ($1, $2)
		ON CONFLICT (address, role) DO NOTHING
	`, address.String(), string(role))
	if err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, address id.Address, role Role) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		DELETE FROM roles WHERE address = $1 AND role = $2
	`, address.String(), string(role))
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, address id.Address, role Role) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM roles WHERE address = $1 AND role = $2)
	`, address.String(), string(role)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) List(ctx context.Context, role Role) ([]id.Address, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT address FROM roles WHERE role = $1 ORDER BY address
	`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list role holders: %w", err)
	}
	defer rows.Close()

	out := make([]id.Address, 0)
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan role holder: %w", err)
		}
		out = append(out, id.Address(addr))
	}
	return out, rows.Err()
}
