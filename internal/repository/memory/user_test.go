package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/sessionkeeper/internal/model"
)

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	id := uuid.New()
	s.Put(model.User{ID: id, Email: " Jane@Example.com", AccountType: "customer"})

	byEmail, err := s.GetByEmail(ctx, "JANE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, "jane@example.com", byEmail.Email)

	byID, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "customer", byID.AccountType)

	_, err = s.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}
