//go:build integration

package token_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rightsledger/internal/ledger/store/token"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/platform/sentinel"
	"rightsledger/pkg/testutil/containers"
)

type PostgresTokenSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *token.PostgresStore
}

func TestPostgresTokenSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTokenSuite))
}

func (s *PostgresTokenSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = token.NewPostgres(s.postgres.DB, false)
}

func (s *PostgresTokenSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "tokens"))
}

func (s *PostgresTokenSuite) TestCreateAndGet() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	created, err := s.store.Create(ctx, "doc-1", "https://keys.example/1", "0xowner", now)
	s.Require().NoError(err)
	s.Equal(id.TokenID(1), created.ID)

	found, err := s.store.Get(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("doc-1", found.DocumentRef)
	s.Equal(id.Address("0xowner"), found.Creator)
	s.True(found.CreatedAt.Equal(now))
}

func (s *PostgresTokenSuite) TestGetUnknownReturnsNotFound() {
	_, err := s.store.Get(context.Background(), id.TokenID(99))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// IDs come from the database sequence, so concurrent creates never collide.
func (s *PostgresTokenSuite) TestConcurrentCreatesAllocateDistinctIDs() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var failures atomic.Int32
	seen := sync.Map{}

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			t, err := s.store.Create(ctx, "doc", "key", "0xowner", time.Now())
			if err != nil {
				failures.Add(1)
				return
			}
			if _, loaded := seen.LoadOrStore(t.ID, true); loaded {
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(goroutines), count)
}

func (s *PostgresTokenSuite) TestUniqueDocumentPolicy() {
	ctx := context.Background()
	strict := token.NewPostgres(s.postgres.DB, true)

	_, err := strict.Create(ctx, "doc-unique", "k1", "0xa", time.Now())
	s.Require().NoError(err)

	_, err = strict.Create(ctx, "doc-unique", "k2", "0xb", time.Now())
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}
