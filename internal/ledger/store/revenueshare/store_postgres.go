package revenueshare

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

// PostgresStore persists configurations and history in PostgreSQL.
// Recipients and shares are stored as parallel arrays; history rows are
// append-only and keyed by (token_id, sequence).
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

func (s *PostgresStore) Init(ctx context.Context, tokenID id.TokenID, cfg models.RevenueShareConfig) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO revenue_share_configs (token_id, recipients, shares)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_id) DO NOTHING
	`, uint64(tokenID), pq.Array(addressStrings(cfg.Recipients)), pq.Array(shareInts(cfg.Shares)))
	if err != nil {
		return fmt.Errorf("init revenue share config: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("init revenue share config: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Replace(ctx context.Context, tokenID id.TokenID, cfg models.RevenueShareConfig, updatedBy id.Address, now time.Time) (models.RevenueShareHistoryEntry, error) {
	q := s.q(ctx)

	prior, err := s.config(ctx, q, tokenID)
	if err != nil {
		return models.RevenueShareHistoryEntry{}, err
	}

	var sequence uint64
	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM revenue_share_history WHERE token_id = $1
	`, uint64(tokenID)).Scan(&sequence)
	if err != nil {
		return models.RevenueShareHistoryEntry{}, fmt.Errorf("history sequence: %w", err)
	}

	entry := models.RevenueShareHistoryEntry{
		Recipients: prior.Recipients,
		Shares:     prior.Shares,
		UpdatedBy:  updatedBy,
		Sequence:   sequence,
		UpdatedAt:  now,
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO revenue_share_history (token_id, sequence, recipients, shares, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uint64(tokenID), sequence, pq.Array(addressStrings(entry.Recipients)), pq.Array(shareInts(entry.Shares)), updatedBy.String(), now)
	if err != nil {
		return models.RevenueShareHistoryEntry{}, fmt.Errorf("append revenue share history: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		UPDATE revenue_share_configs SET recipients = $2, shares = $3 WHERE token_id = $1
	`, uint64(tokenID), pq.Array(addressStrings(cfg.Recipients)), pq.Array(shareInts(cfg.Shares)))
	if err != nil {
		return models.RevenueShareHistoryEntry{}, fmt.Errorf("replace revenue share config: %w", err)
	}

	return entry, nil
}

func (s *PostgresStore) Config(ctx context.Context, tokenID id.TokenID) (models.RevenueShareConfig, error) {
	return s.config(ctx, s.q(ctx), tokenID)
}

func (s *PostgresStore) config(ctx context.Context, q querier, tokenID id.TokenID) (models.RevenueShareConfig, error) {
	var recipients pq.StringArray
	var shares pq.Int64Array
	err := q.QueryRowContext(ctx, `
		SELECT recipients, shares FROM revenue_share_configs WHERE token_id = $1
	`, uint64(tokenID)).Scan(&recipients, &shares)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RevenueShareConfig{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.RevenueShareConfig{}, fmt.Errorf("get revenue share config: %w", err)
	}
	return models.RevenueShareConfig{
		Recipients: toAddresses(recipients),
		Shares:     toShares(shares),
	}, nil
}

func (s *PostgresStore) History(ctx context.Context, tokenID id.TokenID) ([]models.RevenueShareHistoryEntry, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT sequence, recipients, shares, updated_by, updated_at
		FROM revenue_share_history
		WHERE token_id = $1
		ORDER BY sequence
	`, uint64(tokenID))
	if err != nil {
		return nil, fmt.Errorf("list revenue share history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.RevenueShareHistoryEntry, 0)
	for rows.Next() {
		var entry models.RevenueShareHistoryEntry
		var recipients pq.StringArray
		var shares pq.Int64Array
		var updatedBy string
		if err := rows.Scan(&entry.Sequence, &recipients, &shares, &updatedBy, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entry.Recipients = toAddresses(recipients)
		entry.Shares = toShares(shares)
		entry.UpdatedBy = id.Address(updatedBy)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) HistoryCount(ctx context.Context, tokenID id.TokenID) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM revenue_share_history WHERE token_id = $1
	`, uint64(tokenID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count revenue share history: %w", err)
	}
	return n, nil
}

func addressStrings(addrs []id.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

func shareInts(shares []uint32) []int64 {
	out := make([]int64, len(shares))
	for i, s := range shares {
		out[i] = int64(s)
	}
	return out
}

func toAddresses(raw []string) []id.Address {
	out := make([]id.Address, len(raw))
	for i, s := range raw {
		out[i] = id.Address(s)
	}
	return out
}

func toShares(raw []int64) []uint32 {
	out := make([]uint32, len(raw))
	for i, s := range raw {
		out[i] = uint32(s)
	}
	return out
}
