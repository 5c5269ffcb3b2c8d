package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/config"
)

func signToken(t *testing.T, key, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject}).
		SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func runMiddleware(cfg *config.AuthConfig, authorization string) (*httptest.ResponseRecorder, string) {
	var gotUserID string
	handler := Middleware(cfg, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, gotUserID
}

func TestMiddleware(t *testing.T) {
	const key = "test-signing-key"
	verified := &config.AuthConfig{EnableVerification: true, SigningKey: key}
	unverified := &config.AuthConfig{EnableVerification: false}

	t.Run("accepts a valid signed token", func(t *testing.T) {
		token := signToken(t, key, "user-42")
		rec, userID := runMiddleware(verified, "Bearer "+token)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-42", userID)
	})

	t.Run("rejects a token signed with the wrong key", func(t *testing.T) {
		token := signToken(t, "other-key", "user-42")
		rec, _ := runMiddleware(verified, "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a missing authorization header", func(t *testing.T) {
		rec, _ := runMiddleware(verified, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a non-bearer scheme", func(t *testing.T) {
		rec, _ := runMiddleware(verified, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token without a subject", func(t *testing.T) {
		token := signToken(t, key, "")
		rec, _ := runMiddleware(verified, "Bearer "+token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("trusts the subject when verification is disabled", func(t *testing.T) {
		token := signToken(t, "any-key-at-all", "local-dev-user")
		rec, userID := runMiddleware(unverified, "Bearer "+token)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "local-dev-user", userID)
	})

	t.Run("rejects garbage even without verification", func(t *testing.T) {
		rec, _ := runMiddleware(unverified, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", UserIDFromContext(req.Context()))
	assert.Equal(t, "u1", UserIDFromContext(WithUserID(req.Context(), "u1")))
}
