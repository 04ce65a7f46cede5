package services

import (
	"net/http"

	apperrors "github.com/rosterhq/rosterd/pkg/errors"
)

// Engine error taxonomy. All of these are expected, recoverable business
// errors; infra failures are wrapped and surfaced separately.
var (
	// ErrOrganizationNotFound indicates the organization does not exist or is inactive.
	ErrOrganizationNotFound = apperrors.New("ORG_NOT_FOUND", "Organization not found", http.StatusNotFound)
	// ErrTargetNotMember indicates the target user has no active membership in the organization.
	ErrTargetNotMember = apperrors.New("TARGET_NOT_MEMBER", "User has no active membership in this organization", http.StatusNotFound)
	// ErrInvalidTransition indicates the requested role change is not reachable from the current role.
	ErrInvalidTransition = apperrors.New("INVALID_TRANSITION", "Requested role change is not allowed", http.StatusUnprocessableEntity)
	// ErrAlreadyAtRole indicates the requested role equals the current role.
	ErrAlreadyAtRole = apperrors.New("ALREADY_AT_ROLE", "Membership already holds the requested role", http.StatusConflict)
	// ErrAdminSlotTaken indicates a transition into Admin while the slot is occupied.
	ErrAdminSlotTaken = apperrors.New("ADMIN_SLOT_TAKEN", "Organization already has an admin", http.StatusConflict)
	// ErrNotAuthorized indicates the actor lacks the role required for the operation.
	ErrNotAuthorized = apperrors.New("NOT_AUTHORIZED", "Actor lacks the required role for this operation", http.StatusForbidden)
	// ErrHasSubordinates refuses a removal while other memberships report to the target.
	ErrHasSubordinates = apperrors.New("HAS_SUBORDINATES", "Membership still manages other members", http.StatusConflict)

	// ErrNotOwner indicates the actor is not the current organization owner.
	ErrNotOwner = apperrors.New("NOT_OWNER", "Only the current owner may transfer ownership", http.StatusForbidden)
	// ErrTargetAlreadyOwner refuses a transfer to the membership that already owns the organization.
	ErrTargetAlreadyOwner = apperrors.New("TARGET_ALREADY_OWNER", "Target already owns this organization", http.StatusConflict)

	// ErrAlreadyInvited refuses re-inviting an email with a pending invite.
	ErrAlreadyInvited = apperrors.New("ALREADY_INVITED", "A pending invite already exists for this email", http.StatusConflict)
	// ErrAlreadyMember refuses inviting or joining a user who already holds an active membership.
	ErrAlreadyMember = apperrors.New("ALREADY_MEMBER", "User already has an active membership", http.StatusConflict)
	// ErrInviteExpired indicates the token is unknown or past its TTL.
	ErrInviteExpired = apperrors.New("INVITE_EXPIRED", "Invite token is expired or unknown", http.StatusGone)
	// ErrInviteConsumed indicates the token was already accepted.
	ErrInviteConsumed = apperrors.New("INVITE_CONSUMED", "Invite token has already been used", http.StatusGone)
)
