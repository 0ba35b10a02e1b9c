package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mindwell/config"
	"mindwell/models"
	"mindwell/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/protected", func(c *gin.Context) {
		id, _ := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "role": id.Role})
	})
	return router
}

func get(router http.Handler, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	prev := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = "test-secret-123"
	t.Cleanup(func() { config.AppConfig.JWTSecret = prev })

	valid, err := utils.GenerateToken(models.Identity{UserID: "u-42", Gender: models.GenderFemale, Role: models.RoleUser}, time.Hour)
	require.NoError(t, err)
	router := protectedRouter(JWTAuthMiddleware(nil))

	w := get(router, "Bearer "+valid)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u-42")

	for name, header := range map[string]string{
		"no header":     "",
		"not bearer":    "Basic abc",
		"empty bearer":  "Bearer ",
		"invalid token": "Bearer invalid-jwt-here",
	} {
		t.Run(name, func(t *testing.T) {
			w := get(router, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), utils.CodeUnauthenticated)
		})
	}
}

func TestIdentityMiddleware_VerifierError(t *testing.T) {
	verify := func(string) (models.Identity, time.Time, error) {
		return models.Identity{}, time.Time{}, errors.New("bad signature")
	}
	w := get(protectedRouter(IdentityMiddleware(verify, nil)), "Bearer abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	counselor := func(string) (models.Identity, time.Time, error) {
		return models.Identity{UserID: "c-1", Role: models.RoleCounselor}, time.Now().Add(time.Hour), nil
	}
	user := func(string) (models.Identity, time.Time, error) {
		return models.Identity{UserID: "u-1", Role: models.RoleUser}, time.Now().Add(time.Hour), nil
	}

	w := get(protectedRouter(IdentityMiddleware(counselor, nil), RequireRole(models.RoleCounselor)), "Bearer x")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(protectedRouter(IdentityMiddleware(user, nil), RequireRole(models.RoleCounselor)), "Bearer x")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), utils.CodeForbidden)

	w = get(protectedRouter(RequireRole(models.RoleUser)), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthMiddleware(t *testing.T) {
	prev := config.AppConfig.AdminToken
	t.Cleanup(func() { config.AppConfig.AdminToken = prev })
	router := protectedRouter(AdminAuthMiddleware())

	config.AppConfig.AdminToken = "ops-token"
	assert.Equal(t, http.StatusOK, get(router, "Bearer ops-token").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "").Code)

	config.AppConfig.AdminToken = ""
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer ").Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	router := protectedRouter(RateLimitMiddleware(2))
	req := func(ip string) int {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/protected", nil)
		r.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		router.ServeHTTP(w, r)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, req("1.1.1.1"))
	assert.Equal(t, http.StatusOK, req("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, req("1.1.1.1"))
	assert.Equal(t, http.StatusOK, req("2.2.2.2"))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(zap.NewNop()))
	router.GET("/ping", func(c *gin.Context) {
		assert.NotNil(t, loggerFrom(c))
		c.String(http.StatusOK, c.GetString("requestID"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, w.Header().Get(requestIDHeader), w.Body.String())

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.Header.Set(requestIDHeader, "abc-123")
	router.ServeHTTP(w, r)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "first forwarded address", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.2:5000", want: "203.0.113.7"},
		{name: "garbage forwarded falls through", headers: map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.4"}, remote: "10.0.0.2:5000", want: "198.51.100.4"},
		{name: "remote without port", remote: "192.0.2.9", want: "192.0.2.9"},
		{name: "remote with port", remote: "192.0.2.9:443", want: "192.0.2.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(c))
		})
	}
}
