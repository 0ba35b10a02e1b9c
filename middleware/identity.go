package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"mindwell/models"
	"mindwell/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const identityKey = "identity"

// cachedIdentity is what the auth cache stores per token hash.
type cachedIdentity struct {
	Identity  models.Identity `json:"identity"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// TokenVerifier turns a bearer token into an identity and its expiry.
type TokenVerifier func(token string) (models.Identity, time.Time, error)

// JWTAuthMiddleware authenticates the bearer token and stores the resulting identity in the
// context. Verified tokens are cached by hash in authCache, which may be nil.
func JWTAuthMiddleware(authCache *redis.Client) gin.HandlerFunc {
	return IdentityMiddleware(utils.VerifyToken, authCache)
}

func IdentityMiddleware(verify TokenVerifier, authCache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := loggerFrom(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthenticated, "Missing or invalid Authorization header")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthenticated, "Missing or invalid Authorization header")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()
		cacheKey := utils.AuthCachePrefix + utils.HashToken(tokenString)

		if authCache != nil {
			if id, ok := lookupIdentity(ctx, authCache, cacheKey, logger); ok {
				c.Set(identityKey, id)
				c.Next()
				return
			}
		}

		id, expiresAt, err := verify(tokenString)
		if err != nil {
			logger.Debug("Token rejected", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, utils.CodeUnauthenticated, "Invalid or expired token")
			return
		}

		if authCache != nil {
			ttl := utils.AuthCacheTTL
			if remaining := time.Until(expiresAt); remaining < ttl {
				ttl = remaining
			}
			if ttl > 0 {
				data, _ := json.Marshal(cachedIdentity{Identity: id, ExpiresAt: expiresAt})
				if err := authCache.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
					logger.Warn("Failed to cache identity", zap.Error(err))
				}
			}
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

func lookupIdentity(ctx context.Context, cache *redis.Client, key string, logger *zap.Logger) (models.Identity, bool) {
	raw, err := cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Treat as a miss and fall back to verification.
			logger.Warn("Auth cache unavailable", zap.Error(err))
		}
		return models.Identity{}, false
	}
	var entry cachedIdentity
	if err := json.Unmarshal(raw, &entry); err != nil || !time.Now().Before(entry.ExpiresAt) {
		return models.Identity{}, false
	}
	return entry.Identity, true
}

// SetIdentity stores id for downstream handlers.
func SetIdentity(c *gin.Context, id models.Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the identity stored by the auth middleware.
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
