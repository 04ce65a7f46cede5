package store

import (
	"context"
	"errors"

	"github.com/rosterhq/rosterd/internal/models"
)

var (
	// ErrOrganizationNotFound indicates no active organization matches the identifier.
	ErrOrganizationNotFound = errors.New("store: organization not found")
	// ErrMembershipNotFound indicates no active membership matches the compound key.
	ErrMembershipNotFound = errors.New("store: membership not found")
)

// Store is the persistence surface the engine mutates. Reads apply the active
// predicate unless stated otherwise; nothing in this interface performs hard
// deletes.
type Store interface {
	GetOrganization(ctx context.Context, orgID string) (*models.Organization, error)
	CreateOrganization(ctx context.Context, org *models.Organization) error
	UpdateOrganization(ctx context.Context, org *models.Organization) error
	ListOrganizationsForUser(ctx context.Context, userID string) ([]models.Organization, error)

	GetMembership(ctx context.Context, orgID, userID string) (*models.Membership, error)
	// LookupMembership ignores the active predicate. Used when a removed member
	// rejoins through an invite.
	LookupMembership(ctx context.Context, orgID, userID string) (*models.Membership, error)
	ListMemberships(ctx context.Context, orgID string) ([]models.Membership, error)
	ListMembershipsByManager(ctx context.Context, orgID, managerUserID string) ([]models.Membership, error)
	UpsertMembership(ctx context.Context, m *models.Membership) error
	SoftDeleteMembership(ctx context.Context, orgID, userID string) error
}

// AtomicStore extends Store with a per-organization atomic scope. Everything an
// engine operation writes must happen inside one InOrg call.
type AtomicStore interface {
	Store

	// InOrg serializes the callback against all other InOrg calls for the same
	// organization and runs it inside a single database transaction. If the
	// callback returns an error the transaction is rolled back and the error is
	// returned unchanged.
	InOrg(ctx context.Context, orgID string, fn func(Store) error) error
}
