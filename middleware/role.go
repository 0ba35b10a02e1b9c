package middleware

import (
	"net/http"

	"mindwell/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole admits only identities whose role is one of roles. It must run after the
// auth middleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthenticated, "Authentication required")
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		utils.JSONError(c, http.StatusForbidden, utils.CodeForbidden, "This account cannot access this resource")
	}
}
