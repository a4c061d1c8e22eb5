package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rightsledger/internal/ledger/models"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/sentinel"
	txcontext "rightsledger/pkg/platform/tx"
)

// PostgresStore persists token records in PostgreSQL. ID allocation rides on
// a BIGSERIAL so the counter survives restarts and upgrades.
type PostgresStore struct {
	db         *sql.DB
	uniqueDocs bool
}

// NewPostgres constructs a PostgreSQL-backed token registry.
func NewPostgres(db *sql.DB, uniqueDocs bool) *PostgresStore {
	return &PostgresStore{db: db, uniqueDocs: uniqueDocs}
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

func (s *PostgresStore) Create(ctx context.Context, documentRef, keyLocator string, creator id.Address, now time.Time) (*models.Token, error) {
	q := s.q(ctx)

	if s.uniqueDocs {
		var exists bool
		err := q.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM tokens WHERE document_ref = $1)`,
			documentRef,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check document ref: %w", err)
		}
		if exists {
			return nil, sentinel.ErrConflict
		}
	}

	var tokenID uint64
	err := q.QueryRowContext(ctx, `
		INSERT INTO tokens (creator, document_ref, key_locator, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, creator.String(), documentRef, keyLocator, now).Scan(&tokenID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &models.Token{
		ID:          id.TokenID(tokenID),
		Creator:     creator,
		DocumentRef: documentRef,
		KeyLocator:  keyLocator,
		CreatedAt:   now,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, tokenID id.TokenID) (*models.Token, error) {
	var t models.Token
	var rawID uint64
	var creator string
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, creator, document_ref, key_locator, created_at
		FROM tokens WHERE id = $1
	`, uint64(tokenID)).Scan(&rawID, &creator, &t.DocumentRef, &t.KeyLocator, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	t.ID = id.TokenID(rawID)
	t.Creator = id.Address(creator)
	return &t, nil
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var n uint64
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
