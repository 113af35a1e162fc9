package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/youcash/permission-hub/pkg/config"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	Username string
	IsAdmin  bool
}

// Claims is the JWT payload issued by the login endpoint.
type Claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenAuthenticator issues and validates the HS256 bearer tokens
// guarding the API.
type TokenAuthenticator struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenAuthenticator creates a TokenAuthenticator from the configured
// signing secret and token lifetime.
func NewTokenAuthenticator(cfg *config.Config) *TokenAuthenticator {
	return &TokenAuthenticator{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL(),
	}
}

// IssueToken signs a token for the user.
func (t *TokenAuthenticator) IssueToken(username string, isAdmin bool) (string, error) {
	now := time.Now()
	claims := Claims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// ParseToken validates the token signature and expiry.
func (t *TokenAuthenticator) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Middleware returns an HTTP middleware that requires a valid bearer
// token and attaches the caller identity to the request context.
func (t *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if len(authHeader) == 0 {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Authorization missing"))
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Malformed authorization header"))
			return
		}

		claims, err := t.ParseToken(tokenStr)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Invalid or expired token"))
			return
		}

		identity := Identity{Username: claims.Subject, IsAdmin: claims.IsAdmin}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity attaches the identity to the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity set by Middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
