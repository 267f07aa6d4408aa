package common

import (
	"context"
)

// ContextKey represents a context key type.
type ContextKey string

// ContextKeyActorID carries the authenticated user's opaque identity.
// Its absence degrades write operations to local-only mode.
const ContextKeyActorID ContextKey = "actor_id"

// WithActorID adds the actor identity to the context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actorID)
}

// GetActorID extracts the actor identity from the context. An empty string
// means the caller is unauthenticated.
func GetActorID(ctx context.Context) string {
	actorID, _ := ctx.Value(ContextKeyActorID).(string)
	return actorID
}
