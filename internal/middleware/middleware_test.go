package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/rosterhq/rosterd/internal/database/testutil"
	"github.com/rosterhq/rosterd/internal/guard"
	"github.com/rosterhq/rosterd/internal/identity"
	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIdentityRejectsAnonymousRequests(t *testing.T) {
	r := gin.New()
	r.Use(Identity())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityPropagatesHeaders(t *testing.T) {
	var got identity.Identity

	r := gin.New()
	r.Use(Identity())
	r.GET("/ping", func(c *gin.Context) {
		got, _ = identity.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderUserID, "user-1")
	req.Header.Set(HeaderEmail, "User@Example.com")
	req.Header.Set(HeaderEmailVerified, "true")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, "user@example.com", got.Email)
	require.True(t, got.EmailVerified)
}

func TestRateLimitBlocksAfterThreshold(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewMemoryRateStore(), 2, time.Minute))
	r.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRequireRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	st, err := store.New(db)
	require.NoError(t, err)

	org := &models.Organization{Name: "Acme", OwnerUserID: "owner", Active: true}
	require.NoError(t, st.CreateOrganization(nil, org))
	require.NoError(t, st.UpsertMembership(nil, &models.Membership{
		OrgID: org.ID, UserID: "owner", Role: models.RoleOwner, Active: true,
	}))
	require.NoError(t, st.UpsertMembership(nil, &models.Membership{
		OrgID: org.ID, UserID: "staff", Role: models.RoleStaff, Active: true,
	}))

	g, err := guard.New(st)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Identity())
	r.GET("/orgs/:orgID/secret",
		RequireRole(g, models.RoleOwner, models.RoleAdmin),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(userID string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/orgs/"+org.ID+"/secret", nil)
		req.Header.Set(HeaderUserID, userID)
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, request("owner").Code)
	require.Equal(t, http.StatusForbidden, request("staff").Code)
	require.Equal(t, http.StatusForbidden, request("stranger").Code)
}

func TestRecoveryConvertsPanics(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
