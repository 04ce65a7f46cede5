package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rosterhq/rosterd/internal/models"
)

func newRoleService(t *testing.T, h *harness) *RoleService {
	t.Helper()

	svc, err := NewRoleService(h.store, h.audit)
	require.NoError(t, err)
	return svc
}

func TestChangeRolePromoteStaffToManager(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "staff", models.RoleStaff, nil)

	updated, err := svc.ChangeRole(ctx, "owner", org.ID, "staff", models.RoleManager)
	require.NoError(t, err)
	require.Equal(t, models.RoleManager, updated.Role)
	require.NotNil(t, updated.ManagerUserID)
	require.Equal(t, "owner", *updated.ManagerUserID)
}

func TestChangeRolePromoteStaffToAdminRequiresFreeSlot(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "x", models.RoleStaff, nil)
	h.seedMember(t, org.ID, "y", models.RoleStaff, nil)

	_, err := svc.ChangeRole(ctx, "owner", org.ID, "x", models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, ptr("x"), h.organization(t, org.ID).AdminUserID)

	_, err = svc.ChangeRole(ctx, "owner", org.ID, "y", models.RoleAdmin)
	require.ErrorIs(t, err, ErrAdminSlotTaken)
	require.Equal(t, models.RoleStaff, h.membership(t, org.ID, "y").Role)
}

func TestChangeRoleDemoteManagerCascades(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "m", models.RoleManager, ptr("owner"))
	h.seedMember(t, org.ID, "s1", models.RoleStaff, ptr("m"))
	h.seedMember(t, org.ID, "s2", models.RoleStaff, ptr("m"))

	updated, err := svc.ChangeRole(ctx, "owner", org.ID, "m", models.RoleStaff)
	require.NoError(t, err)
	require.Equal(t, models.RoleStaff, updated.Role)
	require.Equal(t, ptr("owner"), updated.ManagerUserID)

	require.Nil(t, h.membership(t, org.ID, "s1").ManagerUserID)
	require.Nil(t, h.membership(t, org.ID, "s2").ManagerUserID)
}

func TestChangeRoleManagerToAdminCascadesAndClaimsSlot(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "m", models.RoleManager, ptr("owner"))
	h.seedMember(t, org.ID, "s1", models.RoleStaff, ptr("m"))

	updated, err := svc.ChangeRole(ctx, "owner", org.ID, "m", models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, updated.Role)
	require.Equal(t, ptr("owner"), updated.ManagerUserID)
	require.Equal(t, ptr("m"), h.organization(t, org.ID).AdminUserID)
	require.Nil(t, h.membership(t, org.ID, "s1").ManagerUserID)
}

func TestChangeRoleDemoteAdminVacatesSlot(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "a", models.RoleAdmin, ptr("owner"))
	require.NoError(t, h.db.Model(&models.Organization{}).
		Where("id = ?", org.ID).Update("admin_user_id", "a").Error)

	updated, err := svc.ChangeRole(ctx, "owner", org.ID, "a", models.RoleStaff)
	require.NoError(t, err)
	require.Equal(t, models.RoleStaff, updated.Role)
	require.Nil(t, h.organization(t, org.ID).AdminUserID)
}

func TestChangeRoleAdminToManagerKeepsSubordinates(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "a", models.RoleAdmin, ptr("owner"))
	h.seedMember(t, org.ID, "s1", models.RoleStaff, ptr("a"))
	require.NoError(t, h.db.Model(&models.Organization{}).
		Where("id = ?", org.ID).Update("admin_user_id", "a").Error)

	updated, err := svc.ChangeRole(ctx, "owner", org.ID, "a", models.RoleManager)
	require.NoError(t, err)
	require.Equal(t, models.RoleManager, updated.Role)
	require.Nil(t, h.organization(t, org.ID).AdminUserID)
	// The target stays manage-capable, so no cascade runs.
	require.Equal(t, ptr("a"), h.membership(t, org.ID, "s1").ManagerUserID)
}

func TestChangeRoleSameRoleRejectedWithoutMutation(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "m", models.RoleManager, ptr("owner"))
	h.seedMember(t, org.ID, "s1", models.RoleStaff, ptr("m"))

	_, err := svc.ChangeRole(ctx, "owner", org.ID, "m", models.RoleManager)
	require.ErrorIs(t, err, ErrAlreadyAtRole)

	require.Equal(t, models.RoleManager, h.membership(t, org.ID, "m").Role)
	require.Equal(t, ptr("m"), h.membership(t, org.ID, "s1").ManagerUserID)
}

func TestChangeRoleOwnerNeverReachable(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "staff", models.RoleStaff, nil)

	_, err := svc.ChangeRole(ctx, "owner", org.ID, "staff", models.RoleOwner)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.ChangeRole(ctx, "owner", org.ID, "owner", models.RoleStaff)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestChangeRoleUnknownTarget(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	org := h.seedOrg(t, "owner")

	_, err := svc.ChangeRole(context.Background(), "owner", org.ID, "ghost", models.RoleManager)
	require.ErrorIs(t, err, ErrTargetNotMember)
}

func TestChangeRoleUnknownOrganization(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)

	_, err := svc.ChangeRole(context.Background(), "owner", "missing", "staff", models.RoleManager)
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestAssignManagerPointsStaffAtManager(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "m", models.RoleManager, ptr("owner"))
	h.seedMember(t, org.ID, "s1", models.RoleStaff, nil)

	updated, err := svc.AssignManager(ctx, "owner", org.ID, "s1", "m")
	require.NoError(t, err)
	require.Equal(t, ptr("m"), updated.ManagerUserID)
}

func TestAssignManagerRefusesStaffTargets(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "s1", models.RoleStaff, nil)
	h.seedMember(t, org.ID, "s2", models.RoleStaff, nil)

	_, err := svc.AssignManager(ctx, "owner", org.ID, "s1", "s2")
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.AssignManager(ctx, "owner", org.ID, "s1", "s1")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAssignManagerRefusesNonStaffSubject(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "m1", models.RoleManager, ptr("owner"))
	h.seedMember(t, org.ID, "m2", models.RoleManager, ptr("owner"))

	_, err := svc.AssignManager(ctx, "owner", org.ID, "m1", "m2")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRemoveMemberSoftDeletes(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "staff", models.RoleStaff, nil)

	require.NoError(t, svc.RemoveMember(ctx, "owner", org.ID, "staff"))

	row := h.membership(t, org.ID, "staff")
	require.False(t, row.Active)
}

func TestRemoveMemberRefusesOwner(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	org := h.seedOrg(t, "owner")

	err := svc.RemoveMember(context.Background(), "owner", org.ID, "owner")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRemoveMemberRefusesWhileManaging(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "m", models.RoleManager, ptr("owner"))
	h.seedMember(t, org.ID, "s1", models.RoleStaff, ptr("m"))

	err := svc.RemoveMember(ctx, "owner", org.ID, "m")
	require.ErrorIs(t, err, ErrHasSubordinates)
	require.True(t, h.membership(t, org.ID, "m").Active)
}

func TestRemoveAdminVacatesSlot(t *testing.T) {
	h := newHarness(t)
	svc := newRoleService(t, h)
	ctx := context.Background()
	org := h.seedOrg(t, "owner")
	h.seedMember(t, org.ID, "a", models.RoleAdmin, ptr("owner"))
	require.NoError(t, h.db.Model(&models.Organization{}).
		Where("id = ?", org.ID).Update("admin_user_id", "a").Error)

	require.NoError(t, svc.RemoveMember(ctx, "owner", org.ID, "a"))
	require.Nil(t, h.organization(t, org.ID).AdminUserID)
	require.False(t, h.membership(t, org.ID, "a").Active)
}
