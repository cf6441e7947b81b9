package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/http/middleware"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := middleware.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, middleware.CheckPassword(hash, "correct horse battery"))
	assert.False(t, middleware.CheckPassword(hash, "wrong"))
	assert.False(t, middleware.CheckPassword("not-a-hash", "correct horse battery"))
}

func jwtRouter(t *testing.T) (*gin.Engine, db.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := db.NewFileStore(t.TempDir())
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.JWTMiddleware("secret", store))
	r.GET("/whoami", func(c *gin.Context) {
		user, ok := middleware.GetCurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, user.Email)
	})
	return r, store
}

func TestJWTMiddleware(t *testing.T) {
	r, store := jwtRouter(t)
	user, err := store.CreateUser("admin@example.com", "hash", nil)
	require.NoError(t, err)

	token, err := middleware.GenerateJWT(user.ID, "secret")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", token, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "admin@example.com", w.Body.String())
			}
		})
	}
}

func TestJWTWrongSecretRejected(t *testing.T) {
	r, store := jwtRouter(t)
	user, err := store.CreateUser("admin@example.com", "hash", nil)
	require.NoError(t, err)

	token, err := middleware.GenerateJWT(user.ID, "other-secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTUnknownUserRejected(t *testing.T) {
	r, _ := jwtRouter(t)

	token, err := middleware.GenerateJWT("deleted-user", "secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
