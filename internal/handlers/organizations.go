package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rosterhq/rosterd/internal/services"
	appErrors "github.com/rosterhq/rosterd/pkg/errors"
	"github.com/rosterhq/rosterd/pkg/response"
)

type OrganizationHandler struct {
	svc *services.OrgService
}

func NewOrganizationHandler(svc *services.OrgService) (*OrganizationHandler, error) {
	if svc == nil {
		return nil, errors.New("organization handler: service is required")
	}
	return &OrganizationHandler{svc: svc}, nil
}

type createOrganizationRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=128"`
	Description string `json:"description" validate:"omitempty,max=512"`
}

// GET /api/orgs
func (h *OrganizationHandler) List(c *gin.Context) {
	orgs, err := h.svc.ListForUser(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, orgs)
}

// GET /api/orgs/:orgID
func (h *OrganizationHandler) Get(c *gin.Context) {
	org, err := h.svc.GetByID(requestContext(c), c.Param("orgID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, org)
}

// POST /api/orgs
func (h *OrganizationHandler) Create(c *gin.Context) {
	var body createOrganizationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		response.Error(c, appErrors.NewBadRequest("name is required"))
		return
	}

	org, err := h.svc.Create(requestContext(c), currentUserID(c), services.CreateOrganizationInput{
		Name:        name,
		Description: strings.TrimSpace(body.Description),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, org)
}

// GET /api/orgs/:orgID/members
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	members, err := h.svc.ListMembers(requestContext(c), c.Param("orgID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

// DELETE /api/orgs/:orgID
func (h *OrganizationHandler) Deactivate(c *gin.Context) {
	err := h.svc.Deactivate(requestContext(c), currentUserID(c), c.Param("orgID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}
