package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rosterhq/rosterd/internal/identity"
	"github.com/rosterhq/rosterd/pkg/errors"
	"github.com/rosterhq/rosterd/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	// CtxRoleKey holds the actor's role in the org named by the route, set by
	// RequireRole after a successful check.
	CtxRoleKey = "orgRole"

	// Headers set by the authenticating reverse proxy in front of rosterd.
	HeaderUserID        = "X-Rosterd-User-Id"
	HeaderEmail         = "X-Rosterd-Email"
	HeaderEmailVerified = "X-Rosterd-Email-Verified"
)

// Identity reads the trusted upstream identity headers and propagates them
// into the request context. Requests without a user id are rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		id := identity.Identity{
			UserID:        userID,
			Email:         strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderEmail))),
			EmailVerified: strings.EqualFold(strings.TrimSpace(c.GetHeader(HeaderEmailVerified)), "true"),
		}

		c.Set(CtxUserIDKey, userID)
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}
