package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rosterhq/rosterd/internal/cache"
	"github.com/rosterhq/rosterd/internal/identity"
	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/store"
	"github.com/rosterhq/rosterd/pkg/crypto"
	apperrors "github.com/rosterhq/rosterd/pkg/errors"
	"github.com/rosterhq/rosterd/pkg/logger"
	"github.com/rosterhq/rosterd/pkg/mail"
	"github.com/rosterhq/rosterd/pkg/metrics"
	"github.com/rosterhq/rosterd/pkg/validator"
)

const (
	defaultInviteTTL     = 72 * time.Hour
	inviteTokenBytes     = 32
	inviteTokenKeyPrefix = "invite:token:"
	invitePendingPrefix  = "invite:pending:"
)

// inviteRecord is the cache-resident state of one outstanding invite.
type inviteRecord struct {
	OrgID       string    `json:"org_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	InvitedByID string    `json:"invited_by"`
	Consumed    bool      `json:"consumed"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// InviteService runs the invite-and-join workflow on top of the shared
// key-value cache. Tokens are opaque and single-use; only their SHA-256 hash
// is ever stored.
type InviteService struct {
	store  store.AtomicStore
	cache  cache.Store
	audit  *AuditService
	mailer mail.Mailer

	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

// InviteOption customizes an InviteService.
type InviteOption func(*InviteService)

// WithInviteTTL overrides the invite expiry window.
func WithInviteTTL(ttl time.Duration) InviteOption {
	return func(s *InviteService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithInviteBaseURL sets the public URL prefix used in invite emails.
func WithInviteBaseURL(u string) InviteOption {
	return func(s *InviteService) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(u), "/")
	}
}

// WithInviteMailer attaches an outbound mailer for invite notifications.
func WithInviteMailer(m mail.Mailer) InviteOption {
	return func(s *InviteService) {
		s.mailer = m
	}
}

// WithInviteClock overrides the time source. Intended for tests.
func WithInviteClock(now func() time.Time) InviteOption {
	return func(s *InviteService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInviteService constructs an InviteService.
func NewInviteService(st store.AtomicStore, cacheStore cache.Store, audit *AuditService, opts ...InviteOption) (*InviteService, error) {
	if st == nil {
		return nil, errors.New("invite service: store is required")
	}
	if cacheStore == nil {
		return nil, errors.New("invite service: cache is required")
	}
	s := &InviteService{
		store: st,
		cache: cacheStore,
		audit: audit,
		ttl:   defaultInviteTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateInvite issues a single-use invite token for an email address. The
// actor must hold Owner or Admin in the organization; the Admin slot is
// checked optimistically here and re-checked at acceptance.
func (s *InviteService) CreateInvite(ctx context.Context, actorUserID, orgID, email string, role models.Role) (string, error) {
	ctx = ensureContext(ctx)

	actorUserID = strings.TrimSpace(actorUserID)
	orgID = strings.TrimSpace(orgID)
	email = strings.ToLower(strings.TrimSpace(email))
	if actorUserID == "" || orgID == "" {
		return "", apperrors.NewBadRequest("actor and organization identifiers are required")
	}
	if !validator.ValidateEmail(email) {
		return "", apperrors.NewBadRequest("a valid invitee email is required")
	}
	if !role.Valid() || role == models.RoleOwner {
		return "", apperrors.NewBadRequest("invited role must be admin, manager or staff")
	}

	org, err := s.store.GetOrganization(ctx, orgID)
	if errors.Is(err, store.ErrOrganizationNotFound) {
		return "", ErrOrganizationNotFound
	}
	if err != nil {
		return "", err
	}

	actor, err := s.store.GetMembership(ctx, orgID, actorUserID)
	if errors.Is(err, store.ErrMembershipNotFound) {
		return "", ErrNotAuthorized
	}
	if err != nil {
		return "", err
	}
	if actor.Role != models.RoleOwner && actor.Role != models.RoleAdmin {
		return "", ErrNotAuthorized
	}

	if role == models.RoleAdmin && org.AdminUserID != nil {
		return "", ErrAdminSlotTaken
	}

	pendingKey := pendingInviteKey(orgID, email)
	pending, err := s.cache.Exists(ctx, pendingKey)
	if err != nil {
		return "", fmt.Errorf("invite service: check pending invite: %w", err)
	}
	if pending {
		return "", ErrAlreadyInvited
	}

	token, err := crypto.GenerateToken(inviteTokenBytes)
	if err != nil {
		return "", fmt.Errorf("invite service: generate token: %w", err)
	}
	tokenKey := inviteTokenKey(token)

	record := inviteRecord{
		OrgID:       orgID,
		Email:       email,
		Role:        string(role),
		InvitedByID: actorUserID,
		ExpiresAt:   s.now().Add(s.ttl),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("invite service: marshal invite: %w", err)
	}

	if err := s.cache.Set(ctx, tokenKey, payload, s.ttl); err != nil {
		return "", fmt.Errorf("invite service: store invite: %w", err)
	}
	if err := s.cache.Set(ctx, pendingKey, []byte(tokenKey), s.ttl); err != nil {
		return "", fmt.Errorf("invite service: store pending marker: %w", err)
	}

	s.sendInviteEmail(ctx, org, email, token)
	metrics.InviteEvents.WithLabelValues("created").Inc()
	recordAudit(ctx, s.audit, AuditEntry{
		OrgID:       orgID,
		ActorUserID: &actorUserID,
		Action:      "invite.create",
		Result:      "success",
		Metadata:    map[string]any{"email": email, "role": string(role)},
	})

	return token, nil
}

// AcceptInvite redeems a token for the accepting user, creating (or
// reactivating) their membership with the invited role. The caller's context
// must carry a verified identity whose email matches the invite.
func (s *InviteService) AcceptInvite(ctx context.Context, userID, token string) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return nil, apperrors.NewBadRequest("user id and token are required")
	}

	tokenKey := inviteTokenKey(token)
	payload, found, err := s.cache.Get(ctx, tokenKey)
	if err != nil {
		return nil, fmt.Errorf("invite service: load invite: %w", err)
	}
	if !found {
		metrics.InviteEvents.WithLabelValues("rejected").Inc()
		return nil, ErrInviteExpired
	}

	var record inviteRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("invite service: decode invite: %w", err)
	}
	if record.Consumed {
		metrics.InviteEvents.WithLabelValues("rejected").Inc()
		return nil, ErrInviteConsumed
	}

	id, ok := identity.FromContext(ctx)
	if !ok || !id.EmailVerified || !strings.EqualFold(id.Email, record.Email) {
		metrics.InviteEvents.WithLabelValues("rejected").Inc()
		return nil, ErrNotAuthorized
	}

	role, ok := models.ParseRole(record.Role)
	if !ok || role == models.RoleOwner {
		logger.Error("invite record carries an invalid role",
			zap.String("org_id", record.OrgID),
			zap.String("role", record.Role))
		return nil, apperrors.ErrInternalServer
	}

	var membership *models.Membership

	err = s.store.InOrg(ctx, record.OrgID, func(tx store.Store) error {
		org, err := tx.GetOrganization(ctx, record.OrgID)
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return ErrOrganizationNotFound
		}
		if err != nil {
			return err
		}

		// Admin exclusivity may have changed since the invite was issued.
		if role == models.RoleAdmin && org.AdminUserID != nil {
			return ErrAdminSlotTaken
		}

		existing, err := tx.LookupMembership(ctx, record.OrgID, userID)
		if err != nil && !errors.Is(err, store.ErrMembershipNotFound) {
			return err
		}
		if existing != nil && existing.Active {
			return ErrAlreadyMember
		}

		membership = existing
		if membership == nil {
			membership = &models.Membership{OrgID: record.OrgID, UserID: userID}
		}
		membership.Role = role
		membership.ManagerUserID = &org.OwnerUserID
		membership.Active = true
		if err := tx.UpsertMembership(ctx, membership); err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadyMember
			}
			return err
		}

		if role == models.RoleAdmin {
			org.AdminUserID = &membership.UserID
			return tx.UpdateOrganization(ctx, org)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markConsumed(ctx, tokenKey, record)
	if err := s.cache.Delete(ctx, pendingInviteKey(record.OrgID, record.Email)); err != nil {
		logger.Warn("failed to delete pending invite marker",
			zap.String("org_id", record.OrgID), zap.Error(err))
	}

	metrics.InviteEvents.WithLabelValues("accepted").Inc()
	recordAudit(ctx, s.audit, AuditEntry{
		OrgID:        record.OrgID,
		ActorUserID:  &userID,
		TargetUserID: userID,
		Action:       "invite.accept",
		Result:       "success",
		Metadata:     map[string]any{"role": record.Role},
	})

	return membership, nil
}

// RevokeInvite withdraws a pending invite for an email address. The actor
// must hold Owner or Admin in the organization.
func (s *InviteService) RevokeInvite(ctx context.Context, actorUserID, orgID, email string) error {
	ctx = ensureContext(ctx)

	actorUserID = strings.TrimSpace(actorUserID)
	orgID = strings.TrimSpace(orgID)
	email = strings.ToLower(strings.TrimSpace(email))
	if actorUserID == "" || orgID == "" || email == "" {
		return apperrors.NewBadRequest("actor, organization and email are required")
	}

	actor, err := s.store.GetMembership(ctx, orgID, actorUserID)
	if errors.Is(err, store.ErrMembershipNotFound) {
		return ErrNotAuthorized
	}
	if err != nil {
		return err
	}
	if actor.Role != models.RoleOwner && actor.Role != models.RoleAdmin {
		return ErrNotAuthorized
	}

	pendingKey := pendingInviteKey(orgID, email)
	tokenKey, found, err := s.cache.Get(ctx, pendingKey)
	if err != nil {
		return fmt.Errorf("invite service: load pending invite: %w", err)
	}
	if !found {
		return ErrInviteExpired
	}

	if err := s.cache.Delete(ctx, string(tokenKey), pendingKey); err != nil {
		return fmt.Errorf("invite service: delete invite: %w", err)
	}

	metrics.InviteEvents.WithLabelValues("revoked").Inc()
	recordAudit(ctx, s.audit, AuditEntry{
		OrgID:       orgID,
		ActorUserID: &actorUserID,
		Action:      "invite.revoke",
		Result:      "success",
		Metadata:    map[string]any{"email": email},
	})
	return nil
}

// markConsumed rewrites the token record with the consumed flag for whatever
// TTL remains, so a second acceptance attempt can be told apart from expiry.
func (s *InviteService) markConsumed(ctx context.Context, tokenKey string, record inviteRecord) {
	record.Consumed = true
	remaining := record.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, tokenKey, payload, remaining); err != nil {
		logger.Warn("failed to mark invite consumed", zap.Error(err))
	}
}

func (s *InviteService) sendInviteEmail(ctx context.Context, org *models.Organization, email, token string) {
	if s.mailer == nil {
		return
	}
	link := token
	if s.baseURL != "" {
		link = s.baseURL + "/invites/accept?token=" + token
	}
	msg := mail.Message{
		To:      []string{email},
		Subject: fmt.Sprintf("You have been invited to join %s", org.Name),
		Body: fmt.Sprintf("You have been invited to join %s.\r\n\r\n"+
			"Accept the invite: %s\r\n", org.Name, link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		logger.Warn("failed to send invite email",
			zap.String("org_id", org.ID), zap.Error(err))
	}
}

func inviteTokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return inviteTokenKeyPrefix + hex.EncodeToString(sum[:])
}

func pendingInviteKey(orgID, email string) string {
	return invitePendingPrefix + orgID + ":" + email
}
