package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "lotofacil-sync"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

// Claims are carried by admin and user tokens.
type Claims struct {
	jwt.RegisteredClaims
	Admin bool `json:"admin"`
}

type contextKey string

const claimsKey contextKey = "claims"

// GenerateToken mints an admin token for subject.
func GenerateToken(subject, secret string, ttl time.Duration) (string, error) {
	return generateToken(subject, secret, ttl, true)
}

// GenerateUserToken mints a token that only reaches the subject's own
// resources, such as saved bets.
func GenerateUserToken(subject, secret string, ttl time.Duration) (string, error) {
	return generateToken(subject, secret, ttl, false)
}

func generateToken(subject, secret string, ttl time.Duration, admin bool) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Admin: admin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates a token string, returning the claims if valid.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AdminAuth only lets through requests with a valid Bearer token whose
// claims carry admin. An empty secret disables the protected routes.
func AdminAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := authenticate(w, r, secret)
			if !ok {
				return
			}
			if !claims.Admin {
				writeJSON(w, http.StatusForbidden, errorResponse("admin privileges required"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserAuth accepts any valid token with a subject, admin or not.
func UserAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := authenticate(w, r, secret)
			if !ok {
				return
			}
			if claims.Subject == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse("token has no subject"))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate writes the error response itself and reports false when
// the request carries no usable token.
func authenticate(w http.ResponseWriter, r *http.Request, secret string) (*Claims, bool) {
	if secret == "" {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("token auth disabled"))
		return nil, false
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse("missing authorization header"))
		return nil, false
	}

	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse("invalid authorization format"))
		return nil, false
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
		return nil, false
	}
	return claims, true
}

// ClaimsFromContext returns the claims AdminAuth or UserAuth stored on
// the request.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
