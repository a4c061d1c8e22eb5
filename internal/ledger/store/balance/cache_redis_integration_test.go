//go:build integration

package balance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"rightsledger/internal/ledger/store/balance"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	inner *balance.InMemory
	cache *balance.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.inner = balance.NewInMemory()
	s.cache = balance.NewRedisCache(s.inner, s.redis.Client)
}

func (s *RedisCacheSuite) TestReadThrough() {
	ctx := context.Background()
	tokenID := id.TokenID(1)

	s.Require().NoError(s.inner.Add(ctx, tokenID, "0xholder", 4))

	// First read populates the cache, second read must agree.
	got, err := s.cache.Get(ctx, tokenID, "0xholder")
	s.Require().NoError(err)
	s.Equal(uint64(4), got)

	got, err = s.cache.Get(ctx, tokenID, "0xholder")
	s.Require().NoError(err)
	s.Equal(uint64(4), got)
}

// Mutations through the cache invalidate the cached value, so a stale entry
// never outlives a balance change.
func (s *RedisCacheSuite) TestMutationsInvalidate() {
	ctx := context.Background()
	tokenID := id.TokenID(1)

	s.Require().NoError(s.cache.Add(ctx, tokenID, "0xholder", 4))
	got, err := s.cache.Get(ctx, tokenID, "0xholder")
	s.Require().NoError(err)
	s.Equal(uint64(4), got)

	s.Require().NoError(s.cache.Sub(ctx, tokenID, "0xholder", 3))
	got, err = s.cache.Get(ctx, tokenID, "0xholder")
	s.Require().NoError(err)
	s.Equal(uint64(1), got)
}
