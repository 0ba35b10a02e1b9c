package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"mindwell/config"
	"mindwell/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminAuthMiddleware guards operator endpoints with the static ADMIN_TOKEN. An empty
// ADMIN_TOKEN disables them.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthenticated, "Missing or invalid Authorization header")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		expected := config.AppConfig.AdminToken
		if expected == "" || subtle.ConstantTimeCompare([]byte(tokenString), []byte(expected)) != 1 {
			loggerFrom(c).Warn("Unauthorized admin access", zap.String("ip", getClientIP(c)))
			utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthenticated, "Unauthorized admin access")
			return
		}

		c.Set("isAdmin", true)
		c.Next()
	}
}
