package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursework-sync/internal/models"
	"github.com/noah-isme/coursework-sync/internal/service"
)

func newAuth() *service.AuthService {
	return service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: "test-secret"})
}

func protectedRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", mw, func(c *gin.Context) {
		value, ok := c.Get(ContextUserKey)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, value.(*models.JWTClaims).UserID)
	})
	return r
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	r := protectedRouter(JWT(newAuth()))

	for _, header := range []string{"", "Token abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestJWTAcceptsValidToken(t *testing.T) {
	auth := newAuth()
	token, err := auth.IssueToken("user-1", "a@b.test", time.Minute)
	require.NoError(t, err)

	r := protectedRouter(JWT(auth))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestOptionalJWTFallsThrough(t *testing.T) {
	r := protectedRouter(OptionalJWT(newAuth()))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}
