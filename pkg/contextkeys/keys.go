// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here so key usage
// stays discoverable and collision-free.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions.
type Key string

const (
	// ActorKey contains the rbac.ActorContext resolved by the
	// authentication middleware. Stored as a value, never a pointer.
	ActorKey Key = "actor_context"

	// RequestIDKey contains the request ID string (UUID).
	RequestIDKey Key = "request_id"

	// LoggerKey contains the request-scoped *slog.Logger.
	LoggerKey Key = "logger"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID, or "" when absent.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
