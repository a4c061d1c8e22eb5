//go:build integration

package receipt_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rightsledger/internal/ledger/models"
	"rightsledger/internal/ledger/store/receipt"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/sentinel"
	"rightsledger/pkg/testutil/containers"
)

type PostgresReceiptSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *receipt.PostgresStore
}

func TestPostgresReceiptSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresReceiptSuite))
}

func (s *PostgresReceiptSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = receipt.NewPostgres(s.postgres.DB)
}

func (s *PostgresReceiptSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "receipts"))
}

func snapshot() models.RevenueShareConfig {
	return models.RevenueShareConfig{
		Recipients: []id.Address{"0xartist", "0xlabel"},
		Shares:     []uint32{6000, 4000},
	}
}

func (s *PostgresReceiptSuite) TestRecordRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	recorded, err := s.store.Record(ctx, id.TokenID(1), "0xcustomer", 5000, "inv-1", snapshot(), now)
	s.Require().NoError(err)
	s.Equal(id.ReceiptID(1), recorded.ID)

	found, err := s.store.Get(ctx, recorded.ID)
	s.Require().NoError(err)
	s.Equal(id.TokenID(1), found.TokenID)
	s.Equal(id.Address("0xcustomer"), found.Customer)
	s.Equal(uint64(5000), found.SaleAmount)
	s.Equal("inv-1", found.PaymentInvoiceID)
	s.Equal(snapshot().Recipients, found.Recipients)
	s.Equal(snapshot().Shares, found.Shares)
	s.True(found.CreatedAt.Equal(now))
}

func (s *PostgresReceiptSuite) TestGetUnknownReturnsNotFound() {
	_, err := s.store.Get(context.Background(), id.ReceiptID(99))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresReceiptSuite) TestIndicesAndCounts() {
	ctx := context.Background()
	now := time.Now()

	r1, err := s.store.Record(ctx, id.TokenID(1), "0xalice", 100, "i1", snapshot(), now)
	s.Require().NoError(err)
	r2, err := s.store.Record(ctx, id.TokenID(2), "0xalice", 100, "i2", snapshot(), now)
	s.Require().NoError(err)
	r3, err := s.store.Record(ctx, id.TokenID(1), "0xbob", 100, "i3", snapshot(), now)
	s.Require().NoError(err)

	byToken, err := s.store.ListByToken(ctx, id.TokenID(1))
	s.Require().NoError(err)
	s.Equal([]id.ReceiptID{r1.ID, r3.ID}, byToken)

	byCustomer, err := s.store.ListByCustomer(ctx, "0xalice")
	s.Require().NoError(err)
	s.Equal([]id.ReceiptID{r1.ID, r2.ID}, byCustomer)

	n, err := s.store.CountByToken(ctx, id.TokenID(1))
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.store.CountByCustomer(ctx, "0xbob")
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresReceiptSuite) TestPaginate() {
	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 5; i++ {
		_, err := s.store.Record(ctx, id.TokenID(1), "0xcustomer", 100, "inv", snapshot(), now)
		s.Require().NoError(err)
	}

	page, err := s.store.Paginate(ctx, id.TokenID(1), 1, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(id.ReceiptID(2), page[0].ID)
	s.Equal(id.ReceiptID(3), page[1].ID)

	// Past the end and negative windows are empty, not errors.
	page, err = s.store.Paginate(ctx, id.TokenID(1), 10, 5)
	s.Require().NoError(err)
	s.Empty(page)

	page, err = s.store.Paginate(ctx, id.TokenID(1), -1, 2)
	s.Require().NoError(err)
	s.Empty(page)
}
