package guard

import (
	"context"
	"errors"
	"strings"

	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/store"
	apperrors "github.com/rosterhq/rosterd/pkg/errors"
)

// Guard answers "may this actor invoke that operation in this organization".
// It is a pure predicate over the most recently committed membership state;
// results are never cached so authorization always reflects the latest commit.
type Guard struct {
	store store.Store
}

// New constructs a Guard backed by the provided store.
func New(st store.Store) (*Guard, error) {
	if st == nil {
		return nil, errors.New("guard: store is required")
	}
	return &Guard{store: st}, nil
}

// Authorize reports whether the actor holds one of the required roles in the
// organization. A missing or inactive membership simply yields false.
func (g *Guard) Authorize(ctx context.Context, actorUserID, orgID string, requiredRoles ...models.Role) (bool, error) {
	actorUserID = strings.TrimSpace(actorUserID)
	if actorUserID == "" {
		return false, errors.New("guard: actor user id is required")
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return false, errors.New("guard: org id is required")
	}

	membership, err := g.store.GetMembership(ctx, orgID, actorUserID)
	if errors.Is(err, store.ErrMembershipNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, role := range requiredRoles {
		if membership.Role == role {
			return true, nil
		}
	}
	return false, nil
}

// Require is Authorize for callers that also need the membership. It returns
// apperrors.ErrForbidden when the actor lacks every required role.
func (g *Guard) Require(ctx context.Context, actorUserID, orgID string, requiredRoles ...models.Role) (*models.Membership, error) {
	actorUserID = strings.TrimSpace(actorUserID)
	if actorUserID == "" {
		return nil, errors.New("guard: actor user id is required")
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, errors.New("guard: org id is required")
	}

	membership, err := g.store.GetMembership(ctx, orgID, actorUserID)
	if errors.Is(err, store.ErrMembershipNotFound) {
		return nil, apperrors.ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	for _, role := range requiredRoles {
		if membership.Role == role {
			return membership, nil
		}
	}
	return nil, apperrors.ErrForbidden
}
