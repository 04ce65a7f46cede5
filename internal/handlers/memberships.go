package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/services"
	appErrors "github.com/rosterhq/rosterd/pkg/errors"
	"github.com/rosterhq/rosterd/pkg/response"
)

type MembershipHandler struct {
	roles     *services.RoleService
	ownership *services.OwnershipService
}

func NewMembershipHandler(roles *services.RoleService, ownership *services.OwnershipService) (*MembershipHandler, error) {
	if roles == nil {
		return nil, errors.New("membership handler: role service is required")
	}
	if ownership == nil {
		return nil, errors.New("membership handler: ownership service is required")
	}
	return &MembershipHandler{roles: roles, ownership: ownership}, nil
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager staff"`
}

type assignManagerRequest struct {
	ManagerUserID string `json:"manager_user_id" validate:"required"`
}

type transferOwnershipRequest struct {
	NewOwnerUserID string `json:"new_owner_user_id" validate:"required"`
}

// PUT /api/orgs/:orgID/members/:userID/role
func (h *MembershipHandler) ChangeRole(c *gin.Context) {
	var body changeRoleRequest
	if !bindAndValidate(c, &body) {
		return
	}

	role, ok := models.ParseRole(body.Role)
	if !ok {
		response.Error(c, appErrors.NewBadRequest("unknown role"))
		return
	}

	membership, err := h.roles.ChangeRole(requestContext(c), currentUserID(c), c.Param("orgID"), c.Param("userID"), role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, membership)
}

// PUT /api/orgs/:orgID/members/:userID/manager
func (h *MembershipHandler) AssignManager(c *gin.Context) {
	var body assignManagerRequest
	if !bindAndValidate(c, &body) {
		return
	}

	membership, err := h.roles.AssignManager(requestContext(c), currentUserID(c), c.Param("orgID"), c.Param("userID"), body.ManagerUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, membership)
}

// DELETE /api/orgs/:orgID/members/:userID
func (h *MembershipHandler) Remove(c *gin.Context) {
	err := h.roles.RemoveMember(requestContext(c), currentUserID(c), c.Param("orgID"), c.Param("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// POST /api/orgs/:orgID/transfer-ownership
func (h *MembershipHandler) TransferOwnership(c *gin.Context) {
	var body transferOwnershipRequest
	if !bindAndValidate(c, &body) {
		return
	}

	org, err := h.ownership.TransferOwnership(requestContext(c), currentUserID(c), c.Param("orgID"), body.NewOwnerUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, org)
}
