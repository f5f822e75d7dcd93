package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("ops", "test-secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.True(t, claims.Admin)
}

func TestGenerateToken_EmptySecret(t *testing.T) {
	_, err := GenerateToken("ops", "", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestValidateToken_Rejects(t *testing.T) {
	valid, err := GenerateToken("ops", "correct-secret", time.Hour)
	require.NoError(t, err)

	expired, err := GenerateToken("ops", "correct-secret", -time.Minute)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Admin: true,
	}).SignedString([]byte("correct-secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"garbage", "not-a-valid-token", "correct-secret"},
		{"wrong secret", valid, "wrong-secret"},
		{"expired", expired, "correct-secret"},
		{"wrong issuer", foreign, "correct-secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAdminAuth(t *testing.T) {
	const secret = "test-secret"

	admin, err := GenerateToken("ops", secret, time.Hour)
	require.NoError(t, err)

	user, err := GenerateUserToken("ana", secret, time.Hour)
	require.NoError(t, err)

	reader, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "viewer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"admin token", secret, "Bearer " + admin, http.StatusNoContent},
		{"missing header", secret, "", http.StatusUnauthorized},
		{"wrong scheme", secret, "Basic " + admin, http.StatusUnauthorized},
		{"invalid token", secret, "Bearer nope", http.StatusUnauthorized},
		{"not admin", secret, "Bearer " + reader, http.StatusForbidden},
		{"disabled", "", "Bearer " + admin, http.StatusServiceUnavailable},
		{"user token", secret, "Bearer " + user, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AdminAuth(tt.secret)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, "ops", seen.Subject)
			}
		})
	}
}

func TestGenerateUserToken(t *testing.T) {
	token, err := GenerateUserToken("ana", "test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Subject)
	assert.False(t, claims.Admin)

	_, err = GenerateUserToken("ana", "", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestUserAuth(t *testing.T) {
	const secret = "test-secret"

	user, err := GenerateUserToken("ana", secret, time.Hour)
	require.NoError(t, err)

	admin, err := GenerateToken("ops", secret, time.Hour)
	require.NoError(t, err)

	anonymous, err := GenerateUserToken("", secret, time.Hour)
	require.NoError(t, err)

	expired, err := GenerateUserToken("ana", secret, -time.Minute)
	require.NoError(t, err)

	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name    string
		secret  string
		header  string
		want    int
		subject string
	}{
		{"user token", secret, "Bearer " + user, http.StatusNoContent, "ana"},
		{"admin token", secret, "Bearer " + admin, http.StatusNoContent, "ops"},
		{"no subject", secret, "Bearer " + anonymous, http.StatusUnauthorized, ""},
		{"expired", secret, "Bearer " + expired, http.StatusUnauthorized, ""},
		{"missing header", secret, "", http.StatusUnauthorized, ""},
		{"disabled", "", "Bearer " + user, http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/bets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			UserAuth(tt.secret)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, tt.subject, seen.Subject)
			}
		})
	}
}
