package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/store"
	apperrors "github.com/rosterhq/rosterd/pkg/errors"
	"github.com/rosterhq/rosterd/pkg/logger"
	"github.com/rosterhq/rosterd/pkg/metrics"
)

// RoleService applies membership role transitions, manager assignments and
// member removals. Every mutation runs inside a single per-organization
// atomic scope so cascades and pointer updates commit together.
type RoleService struct {
	store store.AtomicStore
	audit *AuditService
}

// NewRoleService constructs a RoleService.
func NewRoleService(st store.AtomicStore, audit *AuditService) (*RoleService, error) {
	if st == nil {
		return nil, errors.New("role service: store is required")
	}
	return &RoleService{store: st, audit: audit}, nil
}

// ChangeRole moves the target membership to newRole, applying the transition
// table: promotions into Admin require the slot to be free, demotions out of
// a manage-capable role cascade-clear every subordinate pointer, and the
// Owner role is never reachable from here (ownership transfer handles that).
func (s *RoleService) ChangeRole(ctx context.Context, actorUserID, orgID, targetUserID string, newRole models.Role) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	actorUserID = strings.TrimSpace(actorUserID)
	orgID = strings.TrimSpace(orgID)
	targetUserID = strings.TrimSpace(targetUserID)
	if actorUserID == "" || orgID == "" || targetUserID == "" {
		return nil, apperrors.NewBadRequest("actor, organization and target identifiers are required")
	}
	if !newRole.Valid() || newRole == models.RoleOwner {
		return nil, ErrInvalidTransition
	}

	var (
		target   *models.Membership
		fromRole models.Role
		cascaded int
	)

	err := s.store.InOrg(ctx, orgID, func(tx store.Store) error {
		org, err := tx.GetOrganization(ctx, orgID)
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return ErrOrganizationNotFound
		}
		if err != nil {
			return err
		}
		if err := checkOwnerPointer(ctx, tx, org); err != nil {
			return err
		}

		target, err = tx.GetMembership(ctx, orgID, targetUserID)
		if errors.Is(err, store.ErrMembershipNotFound) {
			return ErrTargetNotMember
		}
		if err != nil {
			return err
		}
		fromRole = target.Role

		if target.Role == models.RoleOwner {
			return ErrInvalidTransition
		}
		if target.Role == newRole {
			return ErrAlreadyAtRole
		}

		switch {
		case target.Role == models.RoleStaff && newRole == models.RoleManager:
			target.ManagerUserID = &org.OwnerUserID

		case target.Role == models.RoleStaff && newRole == models.RoleAdmin:
			if org.AdminUserID != nil {
				return ErrAdminSlotTaken
			}
			target.ManagerUserID = &org.OwnerUserID
			org.AdminUserID = &target.UserID

		case target.Role == models.RoleManager && newRole == models.RoleStaff:
			cascaded, err = clearSubordinates(ctx, tx, orgID, targetUserID)
			if err != nil {
				return err
			}
			target.ManagerUserID = &org.OwnerUserID

		case target.Role == models.RoleManager && newRole == models.RoleAdmin:
			if org.AdminUserID != nil {
				return ErrAdminSlotTaken
			}
			cascaded, err = clearSubordinates(ctx, tx, orgID, targetUserID)
			if err != nil {
				return err
			}
			target.ManagerUserID = &org.OwnerUserID
			org.AdminUserID = &target.UserID

		case target.Role == models.RoleAdmin && newRole == models.RoleManager:
			org.AdminUserID = nil

		case target.Role == models.RoleAdmin && newRole == models.RoleStaff:
			// An Admin can appear as a manager pointer; demoting to Staff
			// orphans those subordinates the same way a Manager demotion does.
			cascaded, err = clearSubordinates(ctx, tx, orgID, targetUserID)
			if err != nil {
				return err
			}
			org.AdminUserID = nil
			target.ManagerUserID = &org.OwnerUserID

		default:
			return ErrInvalidTransition
		}

		target.Role = newRole
		if err := tx.UpsertMembership(ctx, target); err != nil {
			return err
		}
		return tx.UpdateOrganization(ctx, org)
	})

	s.recordTransition(ctx, actorUserID, orgID, targetUserID, fromRole, newRole, cascaded, err)
	if err != nil {
		return nil, err
	}
	return target, nil
}

// AssignManager points an active Staff membership at a manage-capable member.
// This is the only path that assigns a Manager as somebody's manager, which
// keeps the reporting relation a tree of depth at most two.
func (s *RoleService) AssignManager(ctx context.Context, actorUserID, orgID, staffUserID, managerUserID string) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	actorUserID = strings.TrimSpace(actorUserID)
	orgID = strings.TrimSpace(orgID)
	staffUserID = strings.TrimSpace(staffUserID)
	managerUserID = strings.TrimSpace(managerUserID)
	if actorUserID == "" || orgID == "" || staffUserID == "" || managerUserID == "" {
		return nil, apperrors.NewBadRequest("actor, organization, staff and manager identifiers are required")
	}
	if staffUserID == managerUserID {
		return nil, ErrInvalidTransition
	}

	var staff *models.Membership

	err := s.store.InOrg(ctx, orgID, func(tx store.Store) error {
		if _, err := tx.GetOrganization(ctx, orgID); errors.Is(err, store.ErrOrganizationNotFound) {
			return ErrOrganizationNotFound
		} else if err != nil {
			return err
		}

		var err error
		staff, err = tx.GetMembership(ctx, orgID, staffUserID)
		if errors.Is(err, store.ErrMembershipNotFound) {
			return ErrTargetNotMember
		}
		if err != nil {
			return err
		}
		if staff.Role != models.RoleStaff {
			return ErrInvalidTransition
		}

		manager, err := tx.GetMembership(ctx, orgID, managerUserID)
		if errors.Is(err, store.ErrMembershipNotFound) {
			return ErrTargetNotMember
		}
		if err != nil {
			return err
		}
		if !manager.Role.CanManage() {
			return ErrInvalidTransition
		}

		staff.ManagerUserID = &manager.UserID
		return tx.UpsertMembership(ctx, staff)
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, AuditEntry{
		OrgID:        orgID,
		ActorUserID:  &actorUserID,
		TargetUserID: staffUserID,
		Action:       "membership.assign_manager",
		Result:       "success",
		Metadata:     map[string]any{"manager_user_id": managerUserID},
	})
	return staff, nil
}

// RemoveMember soft-deletes a membership. Owners cannot be removed, and
// neither can anyone who still has subordinates pointing at them. Removing
// the Admin vacates the slot in the same commit.
func (s *RoleService) RemoveMember(ctx context.Context, actorUserID, orgID, targetUserID string) error {
	ctx = ensureContext(ctx)

	actorUserID = strings.TrimSpace(actorUserID)
	orgID = strings.TrimSpace(orgID)
	targetUserID = strings.TrimSpace(targetUserID)
	if actorUserID == "" || orgID == "" || targetUserID == "" {
		return apperrors.NewBadRequest("actor, organization and target identifiers are required")
	}

	err := s.store.InOrg(ctx, orgID, func(tx store.Store) error {
		org, err := tx.GetOrganization(ctx, orgID)
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return ErrOrganizationNotFound
		}
		if err != nil {
			return err
		}

		target, err := tx.GetMembership(ctx, orgID, targetUserID)
		if errors.Is(err, store.ErrMembershipNotFound) {
			return ErrTargetNotMember
		}
		if err != nil {
			return err
		}
		if target.Role == models.RoleOwner {
			return ErrInvalidTransition
		}

		subordinates, err := tx.ListMembershipsByManager(ctx, orgID, targetUserID)
		if err != nil {
			return err
		}
		if len(subordinates) > 0 {
			return ErrHasSubordinates
		}

		if target.Role == models.RoleAdmin {
			org.AdminUserID = nil
			if err := tx.UpdateOrganization(ctx, org); err != nil {
				return err
			}
		}
		return tx.SoftDeleteMembership(ctx, orgID, targetUserID)
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, s.audit, AuditEntry{
		OrgID:        orgID,
		ActorUserID:  &actorUserID,
		TargetUserID: targetUserID,
		Action:       "membership.remove",
		Result:       "success",
	})
	return nil
}

// clearSubordinates nulls the manager pointer on every active membership
// currently reporting to the given user and returns how many it touched.
func clearSubordinates(ctx context.Context, tx store.Store, orgID, managerUserID string) (int, error) {
	subordinates, err := tx.ListMembershipsByManager(ctx, orgID, managerUserID)
	if err != nil {
		return 0, err
	}
	for i := range subordinates {
		subordinates[i].ManagerUserID = nil
		if err := tx.UpsertMembership(ctx, &subordinates[i]); err != nil {
			return 0, err
		}
	}
	return len(subordinates), nil
}

// checkOwnerPointer verifies the organization's owner pointer resolves to an
// active Owner membership. A mismatch means corrupted state; refuse to mutate.
func checkOwnerPointer(ctx context.Context, tx store.Store, org *models.Organization) error {
	if strings.TrimSpace(org.OwnerUserID) == "" {
		logger.Error("organization has no owner pointer", zap.String("org_id", org.ID))
		return apperrors.ErrInternalServer
	}
	owner, err := tx.GetMembership(ctx, org.ID, org.OwnerUserID)
	if errors.Is(err, store.ErrMembershipNotFound) {
		logger.Error("organization owner pointer is dangling",
			zap.String("org_id", org.ID),
			zap.String("owner_user_id", org.OwnerUserID))
		return apperrors.ErrInternalServer
	}
	if err != nil {
		return err
	}
	if owner.Role != models.RoleOwner {
		logger.Error("organization owner pointer resolves to a non-owner membership",
			zap.String("org_id", org.ID),
			zap.String("owner_user_id", org.OwnerUserID),
			zap.String("role", string(owner.Role)))
		return apperrors.ErrInternalServer
	}
	return nil
}

func (s *RoleService) recordTransition(ctx context.Context, actorUserID, orgID, targetUserID string, from, to models.Role, cascaded int, opErr error) {
	result := "success"
	if opErr != nil {
		var appErr *apperrors.AppError
		if errors.As(opErr, &appErr) {
			result = "rejected"
		} else {
			result = "error"
		}
	}
	metrics.RoleTransitions.WithLabelValues(string(from), string(to), result).Inc()
	if opErr == nil {
		metrics.CascadeSize.Observe(float64(cascaded))
	}

	recordAudit(ctx, s.audit, AuditEntry{
		OrgID:        orgID,
		ActorUserID:  &actorUserID,
		TargetUserID: targetUserID,
		Action:       "membership.change_role",
		Result:       result,
		Metadata: map[string]any{
			"from":      string(from),
			"to":        string(to),
			"cascaded":  cascaded,
			"succeeded": opErr == nil,
		},
	})
}
