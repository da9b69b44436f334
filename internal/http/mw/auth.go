// Package mw contains HTTP middleware for the NexLevel Speech API.
package mw

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/auth"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/logging"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserClaimsKey is the context key for user claims.
	UserClaimsKey ContextKey = "user_claims"
)

// UserClaims identifies the caller of an authenticated request.
type UserClaims struct {
	UserID string // identity provider subject
	Email  string
	Name   string
}

// WithUserClaims stores claims in ctx, along with the user ID for logging.
func WithUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	ctx = context.WithValue(ctx, UserClaimsKey, claims)
	return logging.WithUserID(ctx, claims.UserID)
}

// GetUserClaims retrieves user claims from context.
func GetUserClaims(ctx context.Context) *UserClaims {
	claims, ok := ctx.Value(UserClaimsKey).(*UserClaims)
	if !ok {
		return nil
	}
	return claims
}

// bearerToken returns the token from an Authorization header, with or
// without the Bearer prefix.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func validateToken(verifier *auth.Verifier, token string) (*UserClaims, error) {
	if verifier == nil || token == "" {
		return nil, auth.ErrInvalidToken
	}
	claims, err := verifier.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	return &UserClaims{
		UserID: claims.UserID(),
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// Auth returns chi middleware that requires a valid bearer token.
func Auth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			claims, err := validateToken(verifier, bearerToken(header))
			if err != nil {
				slog.Debug("auth validation failed", "error", err)
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches claims when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			if claims, err := validateToken(verifier, bearerToken(header)); err == nil {
				r = r.WithContext(WithUserClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
