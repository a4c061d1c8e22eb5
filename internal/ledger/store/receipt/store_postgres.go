package receipt

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

// PostgresStore persists receipts in PostgreSQL. The BIGSERIAL primary key
// is the global receipt counter; the indices are plain B-tree indexes on
// token_id and customer, so insertion order falls out of the ID ordering.
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

func (s *PostgresStore) Record(ctx context.Context, tokenID id.TokenID, customer id.Address, saleAmount uint64, invoiceID string, snapshot models.RevenueShareConfig, now time.Time) (*models.Receipt, error) {
	frozen := snapshot.Clone()

	var receiptID uint64
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO receipts (token_id, customer, sale_amount, payment_invoice_id, recipients, shares, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, uint64(tokenID), customer.String(), saleAmount, invoiceID,
		pq.Array(addressStrings(frozen.Recipients)), pq.Array(shareInts(frozen.Shares)), now,
	).Scan(&receiptID)
	if err != nil {
		return nil, fmt.Errorf("record receipt: %w", err)
	}

	return &models.Receipt{
		ID:               id.ReceiptID(receiptID),
		TokenID:          tokenID,
		Customer:         customer,
		SaleAmount:       saleAmount,
		PaymentInvoiceID: invoiceID,
		Recipients:       frozen.Recipients,
		Shares:           frozen.Shares,
		CreatedAt:        now,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, receiptID id.ReceiptID) (*models.Receipt, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, token_id, customer, sale_amount, payment_invoice_id, recipients, shares, created_at
		FROM receipts WHERE id = $1
	`, uint64(receiptID))
	r, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListByToken(ctx context.Context, tokenID id.TokenID) ([]id.ReceiptID, error) {
	return s.listIDs(ctx, `SELECT id FROM receipts WHERE token_id = $1 ORDER BY id`, uint64(tokenID))
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customer id.Address) ([]id.ReceiptID, error) {
	return s.listIDs(ctx, `SELECT id FROM receipts WHERE customer = $1 ORDER BY id`, customer.String())
}

func (s *PostgresStore) listIDs(ctx context.Context, query string, arg any) ([]id.ReceiptID, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list receipt ids: %w", err)
	}
	defer rows.Close()

	ids := make([]id.ReceiptID, 0)
	for rows.Next() {
		var raw uint64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan receipt id: %w", err)
		}
		ids = append(ids, id.ReceiptID(raw))
	}
	return ids, rows.Err()
}

func (s *PostgresStore) CountByToken(ctx context.Context, tokenID id.TokenID) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM receipts WHERE token_id = $1`, uint64(tokenID))
}

func (s *PostgresStore) CountByCustomer(ctx context.Context, customer id.Address) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM receipts WHERE customer = $1`, customer.String())
}

func (s *PostgresStore) count(ctx context.Context, query string, arg any) (int, error) {
	var n int
	if err := s.q(ctx).QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, fmt.Errorf("count receipts: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Paginate(ctx context.Context, tokenID id.TokenID, offset, limit int) ([]*models.Receipt, error) {
	if offset < 0 || limit < 0 {
		return []*models.Receipt{}, nil
	}
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, token_id, customer, sale_amount, payment_invoice_id, recipients, shares, created_at
		FROM receipts WHERE token_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`, uint64(tokenID), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("paginate receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]*models.Receipt, 0)
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReceipt(row scannable) (*models.Receipt, error) {
	var r models.Receipt
	var rawID, rawToken uint64
	var customer string
	var recipients pq.StringArray
	var shares pq.Int64Array
	err := row.Scan(&rawID, &rawToken, &customer, &r.SaleAmount, &r.PaymentInvoiceID, &recipients, &shares, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = id.ReceiptID(rawID)
	r.TokenID = id.TokenID(rawToken)
	r.Customer = id.Address(customer)
	r.Recipients = make([]id.Address, len(recipients))
	for i, a := range recipients {
		r.Recipients[i] = id.Address(a)
	}
	r.Shares = make([]uint32, len(shares))
	for i, v := range shares {
		r.Shares[i] = uint32(v)
	}
	return &r, nil
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
	for i, v := range shares {
		out[i] = int64(v)
	}
	return out
}
