package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vasapolrittideah/portfolio-api/shared/auth"
)

type contextKey struct{}

var userClaimsKey = contextKey{}

var (
	ErrMissingToken = errors.New("missing authorization token")
	ErrRevokedToken = errors.New("token has been revoked")
)

// TokenSource pulls a raw token from a request.
type TokenSource func(r *http.Request) (string, bool)

// JWTConfig configures the JWT middleware.
type JWTConfig struct {
	Authenticator auth.JWTAuthenticator
	Secret        string
	Blacklist     auth.TokenBlacklist
	// Fallback is consulted when no bearer token is present, e.g. an httpOnly cookie.
	Fallback TokenSource
	// Optional lets requests without a usable token through without claims.
	Optional bool
	OnError  func(w http.ResponseWriter, r *http.Request, err error)
}

// NewJWTMiddleware authenticates requests with an access token taken from the
// Authorization header, or from cfg.Fallback when the header is absent.
func NewJWTMiddleware(cfg JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidateJWT(r, cfg)
			if err != nil {
				if cfg.Optional {
					next.ServeHTTP(w, r)
					return
				}
				cfg.OnError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims stores access token claims on ctx.
func WithClaims(ctx context.Context, claims *auth.AccessClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// ClaimsFromContext returns the claims stored by the JWT middleware.
func ClaimsFromContext(ctx context.Context) (*auth.AccessClaims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*auth.AccessClaims)
	return claims, ok && claims != nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}

	return strings.TrimSpace(parts[1]), true
}

func extractAndValidateJWT(r *http.Request, cfg JWTConfig) (*auth.AccessClaims, error) {
	tokenString, ok := BearerToken(r)
	if !ok && cfg.Fallback != nil {
		tokenString, ok = cfg.Fallback(r)
	}
	if !ok {
		return nil, ErrMissingToken
	}

	claims := &auth.AccessClaims{}
	if _, err := cfg.Authenticator.ValidateTokenWithClaims(tokenString, cfg.Secret, claims); err != nil {
		return nil, err
	}

	if cfg.Blacklist != nil {
		revoked, err := cfg.Blacklist.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	return claims, nil
}
