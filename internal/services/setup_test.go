package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rosterhq/rosterd/internal/database/testutil"
	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/store"
)

type harness struct {
	db    *gorm.DB
	store *store.GormStore
	audit *AuditService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	st, err := store.New(db)
	require.NoError(t, err)
	audit, err := NewAuditService(db)
	require.NoError(t, err)

	return &harness{db: db, store: st, audit: audit}
}

// seedOrg creates an active organization with an owner membership.
func (h *harness) seedOrg(t *testing.T, ownerID string) *models.Organization {
	t.Helper()

	ctx := context.Background()
	org := &models.Organization{Name: "Acme", OwnerUserID: ownerID, Active: true}
	require.NoError(t, h.store.CreateOrganization(ctx, org))
	h.seedMember(t, org.ID, ownerID, models.RoleOwner, nil)
	return org
}

func (h *harness) seedMember(t *testing.T, orgID, userID string, role models.Role, managerUserID *string) *models.Membership {
	t.Helper()

	m := &models.Membership{
		OrgID:         orgID,
		UserID:        userID,
		Role:          role,
		ManagerUserID: managerUserID,
		Active:        true,
	}
	require.NoError(t, h.store.UpsertMembership(context.Background(), m))
	return m
}

func (h *harness) membership(t *testing.T, orgID, userID string) *models.Membership {
	t.Helper()

	m, err := h.store.LookupMembership(context.Background(), orgID, userID)
	require.NoError(t, err)
	return m
}

func (h *harness) organization(t *testing.T, orgID string) *models.Organization {
	t.Helper()

	org, err := h.store.GetOrganization(context.Background(), orgID)
	require.NoError(t, err)
	return org
}

func ptr(s string) *string { return &s }
