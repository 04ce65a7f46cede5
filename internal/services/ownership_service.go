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

// OwnershipService performs organization ownership transfers. This is the
// only path through which a membership gains or loses the Owner role.
type OwnershipService struct {
	store store.AtomicStore
	audit *AuditService
}

// NewOwnershipService constructs an OwnershipService.
func NewOwnershipService(st store.AtomicStore, audit *AuditService) (*OwnershipService, error) {
	if st == nil {
		return nil, errors.New("ownership service: store is required")
	}
	return &OwnershipService{store: st, audit: audit}, nil
}

// TransferOwnership hands the organization from the current owner to another
// active member. The new owner's prior role is unwound first (Admin slot
// vacated, Manager subordinates cascade-cleared), then the previous owner is
// demoted to Admin if the slot is free, otherwise Manager, reporting to the
// new owner. Everything commits as one unit.
func (s *OwnershipService) TransferOwnership(ctx context.Context, actorUserID, orgID, newOwnerUserID string) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	actorUserID = strings.TrimSpace(actorUserID)
	orgID = strings.TrimSpace(orgID)
	newOwnerUserID = strings.TrimSpace(newOwnerUserID)
	if actorUserID == "" || orgID == "" || newOwnerUserID == "" {
		return nil, apperrors.NewBadRequest("actor, organization and new owner identifiers are required")
	}

	var org *models.Organization

	err := s.store.InOrg(ctx, orgID, func(tx store.Store) error {
		var err error
		org, err = tx.GetOrganization(ctx, orgID)
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return ErrOrganizationNotFound
		}
		if err != nil {
			return err
		}
		if org.OwnerUserID != actorUserID {
			return ErrNotOwner
		}
		if newOwnerUserID == org.OwnerUserID {
			return ErrTargetAlreadyOwner
		}

		newOwner, err := tx.GetMembership(ctx, orgID, newOwnerUserID)
		if errors.Is(err, store.ErrMembershipNotFound) {
			return ErrTargetNotMember
		}
		if err != nil {
			return err
		}
		if newOwner.Role == models.RoleOwner {
			// The org pointer says someone else owns it, yet this membership
			// also holds Owner. Two owners means corrupted state.
			logger.Error("organization has two owner memberships",
				zap.String("org_id", orgID),
				zap.String("pointer_owner", org.OwnerUserID),
				zap.String("membership_owner", newOwnerUserID))
			return apperrors.ErrInternalServer
		}

		previousOwner, err := tx.GetMembership(ctx, orgID, org.OwnerUserID)
		if errors.Is(err, store.ErrMembershipNotFound) {
			logger.Error("organization owner pointer is dangling",
				zap.String("org_id", orgID),
				zap.String("owner_user_id", org.OwnerUserID))
			return apperrors.ErrInternalServer
		}
		if err != nil {
			return err
		}

		switch newOwner.Role {
		case models.RoleAdmin:
			org.AdminUserID = nil
		case models.RoleManager:
			if _, err := clearSubordinates(ctx, tx, orgID, newOwnerUserID); err != nil {
				return err
			}
		}

		newOwner.Role = models.RoleOwner
		newOwner.ManagerUserID = nil
		if err := tx.UpsertMembership(ctx, newOwner); err != nil {
			return err
		}

		if org.AdminUserID == nil {
			previousOwner.Role = models.RoleAdmin
			org.AdminUserID = &previousOwner.UserID
		} else {
			previousOwner.Role = models.RoleManager
		}
		previousOwner.ManagerUserID = &newOwner.UserID
		if err := tx.UpsertMembership(ctx, previousOwner); err != nil {
			return err
		}

		org.OwnerUserID = newOwnerUserID
		return tx.UpdateOrganization(ctx, org)
	})

	result := "success"
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			result = "rejected"
		} else {
			result = "error"
		}
	}
	metrics.OwnershipTransfers.WithLabelValues(result).Inc()

	recordAudit(ctx, s.audit, AuditEntry{
		OrgID:        orgID,
		ActorUserID:  &actorUserID,
		TargetUserID: newOwnerUserID,
		Action:       "org.transfer_ownership",
		Result:       result,
	})

	if err != nil {
		return nil, err
	}
	return org, nil
}
