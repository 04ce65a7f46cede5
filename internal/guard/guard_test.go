package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rosterhq/rosterd/internal/database/testutil"
	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/store"
	apperrors "github.com/rosterhq/rosterd/pkg/errors"
)

func setupGuard(t *testing.T) (*Guard, *store.GormStore, *models.Organization) {
	t.Helper()

	st, err := store.New(testutil.MustOpenTestDB(t))
	require.NoError(t, err)

	ctx := context.Background()
	org := &models.Organization{Name: "Acme", OwnerUserID: "owner", Active: true}
	require.NoError(t, st.CreateOrganization(ctx, org))
	require.NoError(t, st.UpsertMembership(ctx, &models.Membership{
		OrgID: org.ID, UserID: "owner", Role: models.RoleOwner, Active: true,
	}))
	require.NoError(t, st.UpsertMembership(ctx, &models.Membership{
		OrgID: org.ID, UserID: "staff", Role: models.RoleStaff, Active: true,
	}))

	g, err := New(st)
	require.NoError(t, err)
	return g, st, org
}

func TestAuthorizeMatchesRole(t *testing.T) {
	g, _, org := setupGuard(t)
	ctx := context.Background()

	ok, err := g.Authorize(ctx, "owner", org.ID, models.RoleOwner, models.RoleAdmin)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.Authorize(ctx, "staff", org.ID, models.RoleOwner, models.RoleAdmin)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthorizeUnknownActor(t *testing.T) {
	g, _, org := setupGuard(t)

	ok, err := g.Authorize(context.Background(), "stranger", org.ID, models.RoleOwner)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthorizeReflectsCommittedState(t *testing.T) {
	g, st, org := setupGuard(t)
	ctx := context.Background()

	ok, err := g.Authorize(ctx, "staff", org.ID, models.RoleStaff)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, st.SoftDeleteMembership(ctx, org.ID, "staff"))

	ok, err = g.Authorize(ctx, "staff", org.ID, models.RoleStaff)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRequireReturnsMembership(t *testing.T) {
	g, _, org := setupGuard(t)
	ctx := context.Background()

	membership, err := g.Require(ctx, "owner", org.ID, models.RoleOwner)
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, membership.Role)

	_, err = g.Require(ctx, "staff", org.ID, models.RoleOwner, models.RoleAdmin)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = g.Require(ctx, "stranger", org.ID, models.RoleStaff)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAuthorizeValidatesInput(t *testing.T) {
	g, _, org := setupGuard(t)

	_, err := g.Authorize(context.Background(), "", org.ID, models.RoleOwner)
	require.Error(t, err)

	_, err = g.Authorize(context.Background(), "owner", "", models.RoleOwner)
	require.Error(t, err)
}
