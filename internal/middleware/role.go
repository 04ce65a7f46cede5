package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/rosterhq/rosterd/internal/guard"
	"github.com/rosterhq/rosterd/internal/models"
	"github.com/rosterhq/rosterd/pkg/errors"
	"github.com/rosterhq/rosterd/pkg/response"
)

// RequireRole checks that the authenticated user holds one of the given roles
// in the organization named by the :orgID route parameter. The check always
// reads the latest committed membership state.
func RequireRole(g *guard.Guard, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUserIDKey)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		userID, _ := v.(string)

		orgID := c.Param("orgID")
		if orgID == "" {
			response.Error(c, errors.NewBadRequest("organization id is required"))
			c.Abort()
			return
		}

		membership, err := g.Require(c.Request.Context(), userID, orgID, roles...)
		if err != nil {
			if err != errors.ErrForbidden {
				err = errors.ErrInternalServer
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxRoleKey, string(membership.Role))
		c.Next()
	}
}
