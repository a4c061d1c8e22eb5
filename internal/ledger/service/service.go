// Package service implements the ledger facade: every mutation and query of
// the rights-token ledger goes through Service, which owns authorization,
// fee accounting, and event emission.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	ledgermetrics "rightsledger/internal/ledger/metrics"
	"rightsledger/internal/ledger/models"
	"rightsledger/internal/roles"
	id "rightsledger/pkg/domain"
	dErrors "rightsledger/pkg/domain-errors"
	"rightsledger/pkg/platform/audit"
)

type TokenStore interface {
	Create(ctx context.Context, documentRef, keyLocator string, creator id.Address, now time.Time) (*models.Token, error)
	Get(ctx context.Context, tokenID id.TokenID) (*models.Token, error)
	Count(ctx context.Context) (uint64, error)
}

type BalanceStore interface {
	Add(ctx context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error
	Sub(ctx context.Context, tokenID id.TokenID, holder id.Address, amount uint64) error
	Get(ctx context.Context, tokenID id.TokenID, holder id.Address) (uint64, error)
}

type ShareStore interface {
	Init(ctx context.Context, tokenID id.TokenID, cfg models.RevenueShareConfig) error
	Replace(ctx context.Context, tokenID id.TokenID, cfg models.RevenueShareConfig, updatedBy id.Address, now time.Time) (models.RevenueShareHistoryEntry, error)
	Config(ctx context.Context, tokenID id.TokenID) (models.RevenueShareConfig, error)
	History(ctx context.Context, tokenID id.TokenID) ([]models.RevenueShareHistoryEntry, error)
	HistoryCount(ctx context.Context, tokenID id.TokenID) (int, error)
}

type ReceiptStore interface {
	Record(ctx context.Context, tokenID id.TokenID, customer id.Address, saleAmount uint64, invoiceID string, snapshot models.RevenueShareConfig, now time.Time) (*models.Receipt, error)
	Get(ctx context.Context, receiptID id.ReceiptID) (*models.Receipt, error)
	ListByToken(ctx context.Context, tokenID id.TokenID) ([]id.ReceiptID, error)
	ListByCustomer(ctx context.Context, customer id.Address) ([]id.ReceiptID, error)
	CountByToken(ctx context.Context, tokenID id.TokenID) (int, error)
	CountByCustomer(ctx context.Context, customer id.Address) (int, error)
	Paginate(ctx context.Context, tokenID id.TokenID, offset, limit int) ([]*models.Receipt, error)
}

type TransferStore interface {
	Status(ctx context.Context, tokenID id.TokenID, holder id.Address) (models.TransferStatus, error)
	MarkReceived(ctx context.Context, tokenID id.TokenID, holder id.Address) error
}

type RoleStore interface {
	Grant(ctx context.Context, address id.Address, role roles.Role) error
	Revoke(ctx context.Context, address id.Address, role roles.Role) error
	Has(ctx context.Context, address id.Address, role roles.Role) (bool, error)
	List(ctx context.Context, role roles.Role) ([]id.Address, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Stores bundles the per-aggregate stores the service orchestrates. All six
// must share a backend so the StoreTx can cover them.
type Stores struct {
	Tokens    TokenStore
	Balances  BalanceStore
	Shares    ShareStore
	Receipts  ReceiptStore
	Transfers TransferStore
	Roles     RoleStore
}

// Service is the ledger facade. A single mutex serializes every mutating
// operation, so each operation observes and produces a consistent state
// across all stores; queries read without it.
type Service struct {
	stores       Stores
	tx           StoreTx
	logger       *slog.Logger
	auditEmitter *auditEmitter
	metrics      *ledgermetrics.Metrics

	requiredFee uint64

	mu            sync.Mutex
	collectedFees uint64
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditEmitter.publisher = publisher
	}
}

func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithStoreTx makes mutations run inside a backend transaction. Use with the
// postgres stores; the memory stores need no transaction because the service
// mutex already serializes them.
func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// New constructs the ledger facade. requiredFee is the flat fee charged on
// Create and Mint; the surplus of each payment is returned to the caller.
func New(stores Stores, requiredFee uint64, opts ...Option) *Service {
	s := &Service{
		stores:       stores,
		tx:           inMemoryStoreTx{},
		auditEmitter: &auditEmitter{},
		requiredFee:  requiredFee,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.auditEmitter.logger = s.logger
	return s
}

// checkFee verifies the payment covers the required fee and returns the
// surplus owed back to the caller. Nothing is retained on failure.
func (s *Service) checkFee(paid uint64) (uint64, error) {
	if paid < s.requiredFee {
		return 0, dErrors.Newf(dErrors.CodeInsufficientFunds, "fee %d is below the required %d", paid, s.requiredFee)
	}
	return paid - s.requiredFee, nil
}

// collectFee moves the required fee into the treasury counter. Callers must
// hold s.mu and call it only after the operation's mutations succeeded.
func (s *Service) collectFee() {
	s.collectedFees += s.requiredFee
	if s.metrics != nil {
		s.metrics.FeesCollected.Add(float64(s.requiredFee))
	}
}

// reject records a pre-mutation rejection and passes the error through.
func (s *Service) reject(operation string, err error) error {
	if s.metrics != nil {
		s.metrics.RejectedOperations.WithLabelValues(operation, string(dErrors.CodeOf(err))).Inc()
	}
	return err
}
