package context

import (
	stdctx "context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/sessionkeeper/internal/model"
)

func TestManager_Claims(t *testing.T) {
	m := NewManager()
	claims := model.AccessClaims{UserID: uuid.New(), SessionID: uuid.New(), Email: "jane@example.com"}

	ctx := m.SetClaimsToContext(stdctx.Background(), claims)

	got, ok := m.GetClaimsFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, got)

	userID, ok := m.GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims.UserID, userID)
}

func TestManager_Missing(t *testing.T) {
	m := NewManager()

	_, ok := m.GetClaimsFromContext(stdctx.Background())
	assert.False(t, ok)

	userID, ok := m.GetUserIDFromContext(stdctx.Background())
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, userID)

	ctx := stdctx.WithValue(stdctx.Background(), claimsKey{}, "not claims")
	_, ok = m.GetClaimsFromContext(ctx)
	assert.False(t, ok)
}
