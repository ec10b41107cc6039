package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserKey      contextKey = "user_id"
	RequestIDKey contextKey = "request_id"
)

// public endpoints, no auth / rate limit
var publicPaths = map[string]bool{
	"/health":  true,
	"/readyz":  true,
	"/livez":   true,
	"/metrics": true,
}

// APIKeyAuth validates API key from Authorization header. keys maps user id -> key;
// the matching user id is stored in the request context.
func APIKeyAuth(keys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing Authorization header")
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid Authorization header format")
				return
			}

			// constant-time, jangan break di match pertama
			var user string
			for id, key := range keys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					user = id
				}
			}
			if user == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user id.
func UserIDFromContext(ctx context.Context) string {
	if user, ok := ctx.Value(UserKey).(string); ok {
		return user
	}
	return ""
}

// WithUserID is used by tests and internal callers that bypass auth.
func WithUserID(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}
