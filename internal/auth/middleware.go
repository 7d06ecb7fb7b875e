package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const userKey contextKey = "auth_user"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID string
	Email  string
}

// Middleware rejects requests without a valid Bearer token and stashes
// the caller's identity in the request context.
func Middleware(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				unauthorized(w, "missing token")
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				slog.WarnContext(r.Context(), "Rejected bearer token",
					"path", r.URL.Path, "error", err)
				unauthorized(w, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, Identity{
				UserID: claims.Subject,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the authenticated identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(userKey).(Identity)
	return id, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
