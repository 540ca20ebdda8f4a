package context

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/sessionkeeper/internal/model"
)

type claimsKey struct{}

// Manager stores the verified access token claims on a request context.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetClaimsToContext returns a copy of ctx carrying claims.
func (m *Manager) SetClaimsToContext(ctx context.Context, claims model.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaimsFromContext returns the claims set by the authentication middleware.
func (m *Manager) GetClaimsFromContext(ctx context.Context) (model.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(model.AccessClaims)
	if !ok || claims.UserID == uuid.Nil {
		return model.AccessClaims{}, false
	}
	return claims, true
}

// GetUserIDFromContext returns the authenticated user id.
func (m *Manager) GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := m.GetClaimsFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}
