package service

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "rightsledger/pkg/platform/tx"
)

// StoreTx runs a mutation atomically across the stores. The callback
// receives a context the postgres stores recognize as transactional.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// inMemoryStoreTx is the default: memory stores have no transaction to open,
// the service mutex already makes the mutation atomic.
type inMemoryStoreTx struct{}

func (inMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type sqlStoreTx struct {
	db *sql.DB
}

// NewSQLStoreTx wraps mutations in a database transaction carried through
// the context for the postgres stores.
func NewSQLStoreTx(db *sql.DB) StoreTx {
	return &sqlStoreTx{db: db}
}

func (t *sqlStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	dbTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, dbTx)); err != nil {
		_ = dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
