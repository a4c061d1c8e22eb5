//go:build integration

package roles_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"rightsledger/internal/roles"
	id "rightsledger/pkg/domain"
	"rightsledger/pkg/testutil/containers"
)

type PostgresRolesSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *roles.PostgresStore
}

func TestPostgresRolesSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRolesSuite))
}

func (s *PostgresRolesSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = roles.NewPostgres(s.postgres.DB)
}

func (s *PostgresRolesSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "roles"))
}

func (s *PostgresRolesSuite) TestGrantRevokeRoundTrip() {
	ctx := context.Background()

	has, err := s.store.Has(ctx, "0xminter", roles.RoleMinter)
	s.Require().NoError(err)
	s.False(has)

	s.Require().NoError(s.store.Grant(ctx, "0xminter", roles.RoleMinter))
	// Granting twice is a no-op.
	s.Require().NoError(s.store.Grant(ctx, "0xminter", roles.RoleMinter))

	has, err = s.store.Has(ctx, "0xminter", roles.RoleMinter)
	s.Require().NoError(err)
	s.True(has)

	s.Require().NoError(s.store.Revoke(ctx, "0xminter", roles.RoleMinter))
	has, err = s.store.Has(ctx, "0xminter", roles.RoleMinter)
	s.Require().NoError(err)
	s.False(has)
}

func (s *PostgresRolesSuite) TestListIsSorted() {
	ctx := context.Background()
	s.Require().NoError(s.store.Grant(ctx, "0xcharlie", roles.RoleAdmin))
	s.Require().NoError(s.store.Grant(ctx, "0xalice", roles.RoleAdmin))
	s.Require().NoError(s.store.Grant(ctx, "0xbob", roles.RoleMinter))

	holders, err := s.store.List(ctx, roles.RoleAdmin)
	s.Require().NoError(err)
	s.Equal([]id.Address{"0xalice", "0xcharlie"}, holders)
}
