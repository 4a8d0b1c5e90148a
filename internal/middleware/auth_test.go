package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounthub/internal/models"
	"accounthub/internal/services"
)

func newProtectedRouter(tokens services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	protected := r.Group("/api")
	protected.Use(AuthMiddleware(tokens))
	protected.GET("/me", func(c *gin.Context) {
		id, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	admin := r.Group("/admin")
	admin.Use(AuthMiddleware(tokens), AdminMiddleware())
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r
}

func get(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := services.NewTokenService("test-secret")
	r := newProtectedRouter(tokens)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/me", "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/me", "Basic abcdef").Code)

	signed, err := tokens.Mint(&models.User{ID: "u-1", Email: "ann@x.com"}, time.Hour)
	require.NoError(t, err)

	w := get(r, "/api/me", "Bearer "+signed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u-1")
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	tokens := services.NewTokenService("test-secret")
	r := newProtectedRouter(tokens)

	signed, err := tokens.Mint(&models.User{ID: "u-1"}, -time.Minute)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/me", "Bearer "+signed).Code)
}

func TestAdminMiddleware(t *testing.T) {
	tokens := services.NewTokenService("test-secret")
	r := newProtectedRouter(tokens)

	plain, err := tokens.Mint(&models.User{ID: "u-1"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin/ping", "Bearer "+plain).Code)

	admin, err := tokens.Mint(&models.User{ID: "u-2", IsAdmin: true}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, "/admin/ping", "Bearer "+admin).Code)
}
