package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/store"
	apperrors "github.com/rosterhq/rosterd/pkg/errors"
)

// CreateOrganizationInput carries the fields needed to provision a tenant.
type CreateOrganizationInput struct {
	Name        string
	Description string
}

// OrgService manages organization lifecycle and member listings.
type OrgService struct {
	store store.AtomicStore
	audit *AuditService
}

// NewOrgService constructs an OrgService.
func NewOrgService(st store.AtomicStore, audit *AuditService) (*OrgService, error) {
	if st == nil {
		return nil, errors.New("org service: store is required")
	}
	return &OrgService{store: st, audit: audit}, nil
}

// Create provisions a new organization with the creator installed as Owner.
// The organization row and the owner membership commit together.
func (s *OrgService) Create(ctx context.Context, creatorUserID string, input CreateOrganizationInput) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	creatorUserID = strings.TrimSpace(creatorUserID)
	if creatorUserID == "" {
		return nil, apperrors.NewBadRequest("creator user id is required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewBadRequest("organization name is required")
	}

	org := &models.Organization{
		BaseModel:   models.BaseModel{ID: uuid.NewString()},
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		OwnerUserID: creatorUserID,
		Active:      true,
	}

	err := s.store.InOrg(ctx, org.ID, func(tx store.Store) error {
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return err
		}
		return tx.UpsertMembership(ctx, &models.Membership{
			OrgID:  org.ID,
			UserID: creatorUserID,
			Role:   models.RoleOwner,
			Active: true,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	recordAudit(ctx, s.audit, AuditEntry{
		OrgID:        org.ID,
		ActorUserID:  &creatorUserID,
		TargetUserID: creatorUserID,
		Action:       "org.create",
		Result:       "success",
		Metadata:     map[string]any{"name": org.Name},
	})

	return org, nil
}

// GetByID loads a single active organization.
func (s *OrgService) GetByID(ctx context.Context, orgID string) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	org, err := s.store.GetOrganization(ctx, orgID)
	if errors.Is(err, store.ErrOrganizationNotFound) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// ListForUser returns the active organizations the user belongs to.
func (s *OrgService) ListForUser(ctx context.Context, userID string) ([]models.Organization, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}
	return s.store.ListOrganizationsForUser(ctx, userID)
}

// ListMembers returns all active memberships of an organization.
func (s *OrgService) ListMembers(ctx context.Context, orgID string) ([]models.Membership, error) {
	ctx = ensureContext(ctx)

	if _, err := s.GetByID(ctx, orgID); err != nil {
		return nil, err
	}
	return s.store.ListMemberships(ctx, orgID)
}

// Deactivate retires an organization. Only the current owner may do this; all
// memberships are soft-deleted along with the organization itself.
func (s *OrgService) Deactivate(ctx context.Context, actorUserID, orgID string) error {
	ctx = ensureContext(ctx)

	actorUserID = strings.TrimSpace(actorUserID)
	if actorUserID == "" {
		return apperrors.NewBadRequest("actor user id is required")
	}

	err := s.store.InOrg(ctx, orgID, func(tx store.Store) error {
		org, err := tx.GetOrganization(ctx, orgID)
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return ErrOrganizationNotFound
		}
		if err != nil {
			return err
		}
		if org.OwnerUserID != actorUserID {
			return ErrNotOwner
		}

		members, err := tx.ListMemberships(ctx, orgID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if err := tx.SoftDeleteMembership(ctx, orgID, m.UserID); err != nil {
				return err
			}
		}

		org.Active = false
		return tx.UpdateOrganization(ctx, org)
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, s.audit, AuditEntry{
		OrgID:       orgID,
		ActorUserID: &actorUserID,
		Action:      "org.deactivate",
		Result:      "success",
	})
	return nil
}
