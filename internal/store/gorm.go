package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rosterhq/rosterd/internal/models"
)

// GormStore implements AtomicStore on top of a gorm database handle.
type GormStore struct {
	db    *gorm.DB
	locks *orgLocks
}

// New constructs a GormStore.
func New(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("store: db is required")
	}
	return &GormStore{db: db, locks: newOrgLocks()}, nil
}

// InOrg runs fn inside one transaction, serialized per organization.
func (s *GormStore) InOrg(ctx context.Context, orgID string, fn func(Store) error) error {
	ctx = ensureContext(ctx)

	if s.locks == nil {
		// Already inside an InOrg scope; nesting would deadlock on the org mutex.
		return errors.New("store: nested InOrg call")
	}

	lock := s.locks.get(orgID)
	lock.Lock()
	defer lock.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// GetOrganization loads an active organization by identifier.
func (s *GormStore) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	ctx = ensureContext(ctx)

	var org models.Organization
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		First(&org, "id = ?", orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get organization: %w", err)
	}
	return &org, nil
}

// CreateOrganization persists a new organization row.
func (s *GormStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	ctx = ensureContext(ctx)

	if err := s.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("store: create organization: %w", err)
	}
	return nil
}

// UpdateOrganization persists all fields of an organization row.
func (s *GormStore) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	ctx = ensureContext(ctx)

	if err := s.db.WithContext(ctx).Save(org).Error; err != nil {
		return fmt.Errorf("store: update organization: %w", err)
	}
	return nil
}

// ListOrganizationsForUser returns active organizations where the user holds an
// active membership, ordered by creation date.
func (s *GormStore) ListOrganizationsForUser(ctx context.Context, userID string) ([]models.Organization, error) {
	ctx = ensureContext(ctx)

	var orgs []models.Organization
	err := s.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.org_id = organizations.id").
		Where("memberships.user_id = ? AND memberships.active = ? AND organizations.active = ?", userID, true, true).
		Order("organizations.created_at ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("store: list organizations for user: %w", err)
	}
	return orgs, nil
}

// GetMembership loads an active membership by (org, user).
func (s *GormStore) GetMembership(ctx context.Context, orgID, userID string) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	var m models.Membership
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND user_id = ? AND active = ?", orgID, userID, true).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get membership: %w", err)
	}
	return &m, nil
}

// LookupMembership loads a membership by (org, user) regardless of the active flag.
func (s *GormStore) LookupMembership(ctx context.Context, orgID, userID string) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	var m models.Membership
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: lookup membership: %w", err)
	}
	return &m, nil
}

// ListMemberships returns the active memberships of an organization ordered by
// creation date.
func (s *GormStore) ListMemberships(ctx context.Context, orgID string) ([]models.Membership, error) {
	ctx = ensureContext(ctx)

	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND active = ?", orgID, true).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("store: list memberships: %w", err)
	}
	return memberships, nil
}

// ListMembershipsByManager returns the active memberships reporting to the
// given manager.
func (s *GormStore) ListMembershipsByManager(ctx context.Context, orgID, managerUserID string) ([]models.Membership, error) {
	ctx = ensureContext(ctx)

	var memberships []models.Membership
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND manager_user_id = ? AND active = ?", orgID, managerUserID, true).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("store: list memberships by manager: %w", err)
	}
	return memberships, nil
}

// UpsertMembership creates the membership row when it has no identifier yet and
// saves it in full otherwise.
func (s *GormStore) UpsertMembership(ctx context.Context, m *models.Membership) error {
	ctx = ensureContext(ctx)

	if m.ID == "" {
		if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
			return fmt.Errorf("store: create membership: %w", err)
		}
		return nil
	}

	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("store: save membership: %w", err)
	}
	return nil
}

// SoftDeleteMembership clears the active flag on a membership.
func (s *GormStore) SoftDeleteMembership(ctx context.Context, orgID, userID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("org_id = ? AND user_id = ? AND active = ?", orgID, userID, true).
		Updates(map[string]any{"active": false, "manager_user_id": nil})
	if result.Error != nil {
		return fmt.Errorf("store: soft delete membership: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
