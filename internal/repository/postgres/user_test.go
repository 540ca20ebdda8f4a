package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepositories(t *testing.T) {
	db := &Connection{}

	users := NewUserRepository(db)
	require.NotNil(t, users)
	assert.Equal(t, db, users.db)

	sessions := NewSessionRepository(db)
	require.NotNil(t, sessions)
	assert.Equal(t, db, sessions.db)
}

func TestPoolOptions(t *testing.T) {
	conf, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/db")
	require.NoError(t, err)
	defaultMax := conf.MaxConns

	WithMaxConns(0)(conf)
	assert.Equal(t, defaultMax, conf.MaxConns)
	WithMaxConns(25)(conf)
	assert.Equal(t, int32(25), conf.MaxConns)

	WithMaxConnIdleTime(time.Minute)(conf)
	assert.Equal(t, time.Minute, conf.MaxConnIdleTime)
}

func TestConnection_NilPool(t *testing.T) {
	db := &Connection{}
	assert.Error(t, db.Ping(context.Background()))
	assert.NoError(t, db.Close())
}

func TestNewConnection_BadDSN(t *testing.T) {
	_, err := NewConnection(context.Background(), "postgres://localhost:notaport/db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse postgres dsn")
}
