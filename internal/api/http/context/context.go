package context

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

// userIDKey is the context key under which the authenticated user id is
// stored for the lifetime of a request.
const userIDKey contextKey = iota

// Manager stores and retrieves the authenticated user id on a request
// context. It implements model.ContextManager.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetUserIDToContext returns a child context carrying the user id.
func (m *Manager) SetUserIDToContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext retrieves the user id set by the authentication
// middleware. The boolean reports whether a valid id was present.
func (m *Manager) GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
