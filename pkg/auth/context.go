// Package auth extracts an opaque authenticated-user identifier from bearer
// tokens issued by the external auth service. Token issuance, sessions and
// account management live in that service; this engine only needs to know
// who is calling.
package auth

import "context"

type contextKey string

const userIDKey contextKey = "auth.user_id"

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, or "" when the
// request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
