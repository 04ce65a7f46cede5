package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rosterhq/rosterd/internal/models"
)

func newOwnershipService(t *testing.T, h *harness) *OwnershipService {
	t.Helper()

	svc, err := NewOwnershipService(h.store, h.audit)
	require.NoError(t, err)
	return svc
}

func TestTransferOwnershipToManager(t *testing.T) {
	h := newHarness(t)
	svc := newOwnershipService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "m", models.RoleManager, ptr("owner"))
	h.seedMember(t, org.ID, "s1", models.RoleStaff, ptr("m"))

	updated, err := svc.TransferOwnership(ctx, "owner", org.ID, "m")
	require.NoError(t, err)
	require.Equal(t, "m", updated.OwnerUserID)

	newOwner := h.membership(t, org.ID, "m")
	require.Equal(t, models.RoleOwner, newOwner.Role)
	require.Nil(t, newOwner.ManagerUserID)

	// The new owner's former subordinates are orphaned by the cascade.
	require.Nil(t, h.membership(t, org.ID, "s1").ManagerUserID)

	// Slot was free, so the previous owner lands on Admin under the new owner.
	previous := h.membership(t, org.ID, "owner")
	require.Equal(t, models.RoleAdmin, previous.Role)
	require.Equal(t, ptr("m"), previous.ManagerUserID)
	require.Equal(t, ptr("owner"), updated.AdminUserID)
}

func TestTransferOwnershipToAdminVacatesSlotFirst(t *testing.T) {
	h := newHarness(t)
	svc := newOwnershipService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "a", models.RoleAdmin, ptr("owner"))
	require.NoError(t, h.db.Model(&models.Organization{}).
		Where("id = ?", org.ID).Update("admin_user_id", "a").Error)

	updated, err := svc.TransferOwnership(ctx, "owner", org.ID, "a")
	require.NoError(t, err)
	require.Equal(t, "a", updated.OwnerUserID)
	require.Equal(t, models.RoleOwner, h.membership(t, org.ID, "a").Role)

	// The vacated slot goes to the demoted previous owner.
	require.Equal(t, models.RoleAdmin, h.membership(t, org.ID, "owner").Role)
	require.Equal(t, ptr("owner"), updated.AdminUserID)
}

func TestTransferOwnershipDemotesToManagerWhenSlotTaken(t *testing.T) {
	h := newHarness(t)
	svc := newOwnershipService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "a", models.RoleAdmin, ptr("owner"))
	h.seedMember(t, org.ID, "m", models.RoleManager, ptr("owner"))
	require.NoError(t, h.db.Model(&models.Organization{}).
		Where("id = ?", org.ID).Update("admin_user_id", "a").Error)

	updated, err := svc.TransferOwnership(ctx, "owner", org.ID, "m")
	require.NoError(t, err)

	previous := h.membership(t, org.ID, "owner")
	require.Equal(t, models.RoleManager, previous.Role)
	require.Equal(t, ptr("m"), previous.ManagerUserID)
	require.Equal(t, ptr("a"), updated.AdminUserID)
}

func TestTransferOwnershipRequiresCurrentOwner(t *testing.T) {
	h := newHarness(t)
	svc := newOwnershipService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "m", models.RoleManager, ptr("owner"))
	h.seedMember(t, org.ID, "s1", models.RoleStaff, nil)

	_, err := svc.TransferOwnership(ctx, "m", org.ID, "s1")
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestTransferOwnershipRejectsCurrentOwnerAsTarget(t *testing.T) {
	h := newHarness(t)
	svc := newOwnershipService(t, h)
	org := h.seedOrg(t, "owner")

	_, err := svc.TransferOwnership(context.Background(), "owner", org.ID, "owner")
	require.ErrorIs(t, err, ErrTargetAlreadyOwner)
}

func TestTransferOwnershipRequiresActiveTarget(t *testing.T) {
	h := newHarness(t)
	svc := newOwnershipService(t, h)
	org := h.seedOrg(t, "owner")

	_, err := svc.TransferOwnership(context.Background(), "owner", org.ID, "ghost")
	require.ErrorIs(t, err, ErrTargetNotMember)
}
