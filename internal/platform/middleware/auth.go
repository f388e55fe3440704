package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"rosterd/pkg/requestcontext"
)

// TokenValidator validates bearer tokens and returns the caller's claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims are the token claims the middleware cares about.
type Claims struct {
	ActorID string
	Roles   []string
}

type claimsKey struct{}

// CallerRoles retrieves the authenticated caller's roles from the context.
func CallerRoles(ctx context.Context) []string {
	if c, ok := ctx.Value(claimsKey{}).(*Claims); ok {
		return c.Roles
	}
	return nil
}

// RequireAuth rejects requests without a valid bearer token and stashes the
// caller's identity for downstream audit attribution.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx = requestcontext.WithActorID(ctx, claims.ActorID)
			ctx = context.WithValue(ctx, claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on a caller role. The read and repair surfaces
// of the sanity checker are gated separately, so a reporting account can
// list issues without being able to mutate anything.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !slices.Contains(CallerRoles(ctx), role) {
				logger.WarnContext(ctx, "forbidden - missing role",
					"role", role,
					"actor_id", requestcontext.ActorID(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeAuthError(w, http.StatusForbidden, "insufficient privileges")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + http.StatusText(status) + `","error_description":"` + description + `"}`))
}
