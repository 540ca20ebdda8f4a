//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/sessionkeeper/internal/model"
	repo "github.com/dtroode/sessionkeeper/internal/repository/postgres"
	"github.com/dtroode/sessionkeeper/internal/token"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "sessionkeeper_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/sessionkeeper_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func connect(t *testing.T) *repo.Connection {
	t.Helper()
	conn, err := repo.NewConnection(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func createUser(t *testing.T, conn *repo.Connection) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := conn.Exec(context.Background(),
		`INSERT INTO users (id, email, full_name, password_hash) VALUES ($1, $2, $3, $4)`,
		id, id.String()+"@example.com", "Test User", []byte("hash"))
	require.NoError(t, err)
	return id
}

func newParams(userID uuid.UUID, dev model.DeviceInfo, expiresAt time.Time) model.CreateSessionParams {
	plain, err := token.NewOpaque(32)
	if err != nil {
		panic(err)
	}
	return model.CreateSessionParams{
		UserID:           userID,
		RefreshTokenHash: token.Hash(plain),
		Device:           dev,
		ExpiresAt:        expiresAt,
	}
}

var laptop = model.DeviceInfo{Device: "Mac", IPAddress: "203.0.113.7", UserAgent: "Mozilla/5.0 (Macintosh)"}

func TestUserRepository_Get(t *testing.T) {
	ctx := context.Background()
	conn := connect(t)
	users := repo.NewUserRepository(conn)
	id := createUser(t, conn)

	byID, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "customer", byID.AccountType)

	byEmail, err := users.GetByEmail(ctx, "  "+byID.Email+" ")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	_, err = users.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	conn := connect(t)
	sessions := repo.NewSessionRepository(conn)
	userID := createUser(t, conn)

	params := newParams(userID, laptop, time.Now().Add(time.Hour))
	s, err := sessions.Create(ctx, params)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.False(t, s.Revoked)

	byID, err := sessions.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, params.RefreshTokenHash, byID.RefreshTokenHash)

	byToken, err := sessions.FindByRefreshToken(ctx, params.RefreshTokenHash)
	require.NoError(t, err)
	assert.Equal(t, s.ID, byToken.ID)

	byDevice, err := sessions.FindByUserAndDevice(ctx, userID, laptop)
	require.NoError(t, err)
	assert.Equal(t, s.ID, byDevice.ID)

	_, err = sessions.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionRepository_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	conn := connect(t)
	sessions := repo.NewSessionRepository(conn)
	userID := createUser(t, conn)

	first := newParams(userID, laptop, time.Now().Add(time.Hour))
	_, err := sessions.Create(ctx, first)
	require.NoError(t, err)

	_, err = sessions.Create(ctx, newParams(userID, laptop, time.Now().Add(time.Hour)))
	require.ErrorIs(t, err, model.ErrDuplicateDevice)

	phone := model.DeviceInfo{Device: "iPhone", IPAddress: "203.0.113.8", UserAgent: "iPhone"}
	sameToken := newParams(userID, phone, time.Now().Add(time.Hour))
	sameToken.RefreshTokenHash = first.RefreshTokenHash
	_, err = sessions.Create(ctx, sameToken)
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestSessionRepository_ExpiredIsNotActive(t *testing.T) {
	ctx := context.Background()
	conn := connect(t)
	sessions := repo.NewSessionRepository(conn)
	userID := createUser(t, conn)

	expired := newParams(userID, laptop, time.Now().Add(-time.Minute))
	_, err := sessions.Create(ctx, expired)
	require.NoError(t, err)

	_, err = sessions.FindByRefreshToken(ctx, expired.RefreshTokenHash)
	require.ErrorIs(t, err, model.ErrSessionExpired)

	active, err := sessions.FindActiveByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSessionRepository_RevokeIsIdempotentAndScoped(t *testing.T) {
	ctx := context.Background()
	conn := connect(t)
	sessions := repo.NewSessionRepository(conn)
	alice := createUser(t, conn)
	bob := createUser(t, conn)

	a, err := sessions.Create(ctx, newParams(alice, laptop, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	b, err := sessions.Create(ctx, newParams(bob, laptop, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, sessions.Revoke(ctx, a.ID))
	require.NoError(t, sessions.Revoke(ctx, a.ID))
	require.NoError(t, sessions.Revoke(ctx, uuid.New()))

	_, err = sessions.FindByRefreshToken(ctx, a.RefreshTokenHash)
	require.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, sessions.RevokeAllForUser(ctx, alice))
	bobs, err := sessions.FindActiveByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, b.ID, bobs[0].ID)

	// A revoked tuple no longer blocks a fresh login from the same device.
	_, err = sessions.Create(ctx, newParams(alice, laptop, time.Now().Add(time.Hour)))
	require.NoError(t, err)
}

func TestSessionRepository_ConcurrentRotationHasOneWinner(t *testing.T) {
	ctx := context.Background()
	conn := connect(t)
	sessions := repo.NewSessionRepository(conn)
	userID := createUser(t, conn)

	params := newParams(userID, laptop, time.Now().Add(time.Hour))
	s, err := sessions.Create(ctx, params)
	require.NoError(t, err)

	const contenders = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		stale   int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := newParams(userID, laptop, time.Now().Add(2*time.Hour))
			err := sessions.UpdateRefreshToken(ctx, s.ID, params.RefreshTokenHash, next.RefreshTokenHash, next.ExpiresAt)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, model.ErrStaleRefreshToken):
				stale++
			default:
				t.Errorf("unexpected rotation error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, contenders-1, stale)

	_, err = sessions.FindByRefreshToken(ctx, params.RefreshTokenHash)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionRepository_SweepAndDeletes(t *testing.T) {
	ctx := context.Background()
	conn := connect(t)
	sessions := repo.NewSessionRepository(conn)
	userID := createUser(t, conn)
	now := time.Now()

	const expired, live = 3, 2
	for i := 0; i < expired; i++ {
		dev := model.DeviceInfo{Device: "Desktop", IPAddress: fmt.Sprintf("10.0.0.%d", i), UserAgent: "curl"}
		_, err := sessions.Create(ctx, newParams(userID, dev, now.Add(-time.Duration(i+1)*time.Hour)))
		require.NoError(t, err)
	}
	for i := 0; i < live; i++ {
		dev := model.DeviceInfo{Device: "Desktop", IPAddress: fmt.Sprintf("10.0.1.%d", i), UserAgent: "curl"}
		_, err := sessions.Create(ctx, newParams(userID, dev, now.Add(time.Hour)))
		require.NoError(t, err)
	}

	listed, err := sessions.ListExpired(ctx, now, 10)
	require.NoError(t, err)
	assert.Len(t, listed, expired)

	deleted, err := sessions.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(expired), deleted)

	active, err := sessions.FindActiveByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, active, live)
	assert.True(t, !active[0].CreatedAt.Before(active[1].CreatedAt))

	require.NoError(t, sessions.DeleteByUserAndDevice(ctx, userID, active[0].Fingerprint()))
	require.NoError(t, sessions.Delete(ctx, active[1].ID))
	require.NoError(t, sessions.Delete(ctx, active[1].ID))

	active, err = sessions.FindActiveByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSessionRepository_DeleteExpiredByIDsKeepsLiveRows(t *testing.T) {
	ctx := context.Background()
	conn := connect(t)
	sessions := repo.NewSessionRepository(conn)
	userID := createUser(t, conn)
	now := time.Now()

	stale, err := sessions.Create(ctx, newParams(userID, model.DeviceInfo{Device: "Mac", IPAddress: "10.0.2.1", UserAgent: "curl"}, now.Add(-time.Hour)))
	require.NoError(t, err)
	revived, err := sessions.Create(ctx, newParams(userID, model.DeviceInfo{Device: "Mac", IPAddress: "10.0.2.2", UserAgent: "curl"}, now.Add(-time.Hour)))
	require.NoError(t, err)

	require.NoError(t, sessions.UpdateRefreshToken(ctx, revived.ID, revived.RefreshTokenHash, token.Hash("rotated"), now.Add(time.Hour)))

	deleted, err := sessions.DeleteExpiredByIDs(ctx, []uuid.UUID{stale.ID, revived.ID, uuid.New()}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = sessions.FindByID(ctx, revived.ID)
	require.NoError(t, err)
	_, err = sessions.FindByID(ctx, stale.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	deleted, err = sessions.DeleteExpiredByIDs(ctx, nil, now)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
