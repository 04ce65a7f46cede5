package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/rosterhq/rosterd/internal/app"
	"github.com/rosterhq/rosterd/internal/cache"
	"github.com/rosterhq/rosterd/internal/guard"
	"github.com/rosterhq/rosterd/internal/handlers"
	"github.com/rosterhq/rosterd/internal/middleware"
	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/services"
	"github.com/rosterhq/rosterd/internal/store"
	"github.com/rosterhq/rosterd/pkg/mail"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, cacheStore cache.Store, cfg *app.Config, mailer mail.Mailer, rateStore middleware.RateStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cacheStore == nil {
		return nil, fmt.Errorf("cache store must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	atomicStore, err := store.New(db)
	if err != nil {
		return nil, err
	}
	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	orgSvc, err := services.NewOrgService(atomicStore, auditSvc)
	if err != nil {
		return nil, err
	}
	roleSvc, err := services.NewRoleService(atomicStore, auditSvc)
	if err != nil {
		return nil, err
	}
	ownershipSvc, err := services.NewOwnershipService(atomicStore, auditSvc)
	if err != nil {
		return nil, err
	}
	inviteOpts := []services.InviteOption{
		services.WithInviteTTL(cfg.Invite.TTL),
		services.WithInviteBaseURL(cfg.Invite.BaseURL),
	}
	if mailer != nil {
		inviteOpts = append(inviteOpts, services.WithInviteMailer(mailer))
	}
	inviteSvc, err := services.NewInviteService(atomicStore, cacheStore, auditSvc, inviteOpts...)
	if err != nil {
		return nil, err
	}
	authz, err := guard.New(atomicStore)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(rateStore, 100, time.Minute))

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	orgHandler, err := handlers.NewOrganizationHandler(orgSvc)
	if err != nil {
		return nil, err
	}
	membershipHandler, err := handlers.NewMembershipHandler(roleSvc, ownershipSvc)
	if err != nil {
		return nil, err
	}
	inviteHandler, err := handlers.NewInviteHandler(inviteSvc)
	if err != nil {
		return nil, err
	}
	auditHandler, err := handlers.NewAuditHandler(auditSvc)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.Use(middleware.Identity())

	api.POST("/orgs", orgHandler.Create)
	api.GET("/orgs", orgHandler.List)
	api.POST("/invites/accept", inviteHandler.Accept)

	manageRoles := middleware.RequireRole(authz, models.RoleOwner, models.RoleAdmin)
	anyMember := middleware.RequireRole(authz, models.RoleOwner, models.RoleAdmin, models.RoleManager, models.RoleStaff)

	orgs := api.Group("/orgs/:orgID")
	{
		orgs.GET("", anyMember, orgHandler.Get)
		orgs.DELETE("", middleware.RequireRole(authz, models.RoleOwner), orgHandler.Deactivate)
		orgs.GET("/members", anyMember, orgHandler.ListMembers)

		orgs.PUT("/members/:userID/role", manageRoles, membershipHandler.ChangeRole)
		orgs.PUT("/members/:userID/manager", manageRoles, membershipHandler.AssignManager)
		orgs.DELETE("/members/:userID", manageRoles, membershipHandler.Remove)
		orgs.POST("/transfer-ownership", middleware.RequireRole(authz, models.RoleOwner), membershipHandler.TransferOwnership)

		orgs.POST("/invites", manageRoles, inviteHandler.Create)
		orgs.POST("/invites/revoke", manageRoles, inviteHandler.Revoke)

		orgs.GET("/audit", manageRoles, auditHandler.List)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
