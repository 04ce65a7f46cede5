package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/services"
	appErrors "github.com/rosterhq/rosterd/pkg/errors"
	"github.com/rosterhq/rosterd/pkg/response"
)

type InviteHandler struct {
	svc *services.InviteService
}

func NewInviteHandler(svc *services.InviteService) (*InviteHandler, error) {
	if svc == nil {
		return nil, errors.New("invite handler: service is required")
	}
	return &InviteHandler{svc: svc}, nil
}

type createInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin manager staff"`
}

type acceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

type revokeInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/orgs/:orgID/invites
func (h *InviteHandler) Create(c *gin.Context) {
	var body createInviteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	role, ok := models.ParseRole(body.Role)
	if !ok {
		response.Error(c, appErrors.NewBadRequest("unknown role"))
		return
	}

	token, err := h.svc.CreateInvite(requestContext(c), currentUserID(c), c.Param("orgID"), body.Email, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"token": token})
}

// POST /api/invites/accept
func (h *InviteHandler) Accept(c *gin.Context) {
	var body acceptInviteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	membership, err := h.svc.AcceptInvite(requestContext(c), currentUserID(c), strings.TrimSpace(body.Token))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, membership)
}

// POST /api/orgs/:orgID/invites/revoke
func (h *InviteHandler) Revoke(c *gin.Context) {
	var body revokeInviteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	err := h.svc.RevokeInvite(requestContext(c), currentUserID(c), c.Param("orgID"), body.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
