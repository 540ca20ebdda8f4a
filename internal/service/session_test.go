package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/sessionkeeper/internal/clock"
	"github.com/dtroode/sessionkeeper/internal/mocks"
	"github.com/dtroode/sessionkeeper/internal/model"
	"github.com/dtroode/sessionkeeper/internal/testutil"
)

var errDB = errors.New("connection refused")

func newMockedService(t *testing.T, opts ...SessionOption) (*SessionService, *mocks.SessionStore, *mocks.UserStore, *mocks.TokenIssuer) {
	store := mocks.NewSessionStore(t)
	users := mocks.NewUserStore(t)
	issuer := mocks.NewTokenIssuer(t)
	opts = append([]SessionOption{WithClock(clock.NewFake(epoch))}, opts...)
	return NewSessionService(store, users, issuer, testutil.MakeNoopLogger(), opts...), store, users, issuer
}

func TestSessionService_Login_StoreFailures(t *testing.T) {
	ctx := context.Background()
	user := model.UserSummary{ID: uuid.New(), Email: "jane@example.com"}

	t.Run("lookup fails", func(t *testing.T) {
		svc, store, _, _ := newMockedService(t)
		store.On("FindByUserAndDevice", mock.Anything, user.ID, laptop).Return(model.Session{}, errDB)

		_, err := svc.Login(ctx, user, laptop)
		require.ErrorIs(t, err, model.ErrServiceUnavailable)
		assert.NotContains(t, err.Error(), errDB.Error())
	})

	t.Run("create fails", func(t *testing.T) {
		svc, store, _, issuer := newMockedService(t)
		store.On("FindByUserAndDevice", mock.Anything, user.ID, laptop).Return(model.Session{}, model.ErrNotFound)
		issuer.On("IssueRefreshToken", epoch).Return("plain", "hash", epoch.Add(time.Hour), nil)
		store.On("Create", mock.Anything, mock.Anything).Return(model.Session{}, errDB)

		_, err := svc.Login(ctx, user, laptop)
		require.ErrorIs(t, err, model.ErrServiceUnavailable)
	})

	t.Run("conflicts exhaust retries", func(t *testing.T) {
		svc, store, _, issuer := newMockedService(t)
		store.On("FindByUserAndDevice", mock.Anything, user.ID, laptop).Return(model.Session{}, model.ErrNotFound).Times(maxAttempts)
		issuer.On("IssueRefreshToken", epoch).Return("plain", "hash", epoch.Add(time.Hour), nil).Times(maxAttempts)
		store.On("Create", mock.Anything, mock.Anything).Return(model.Session{}, model.ErrConflict).Times(maxAttempts)

		_, err := svc.Login(ctx, user, laptop)
		require.ErrorIs(t, err, model.ErrServiceUnavailable)
	})
}

func TestSessionService_Login_RetriesAfterConflict(t *testing.T) {
	ctx := context.Background()
	user := model.UserSummary{ID: uuid.New(), Email: "jane@example.com"}
	sessionID := uuid.New()

	svc, store, _, issuer := newMockedService(t)
	store.On("FindByUserAndDevice", mock.Anything, user.ID, laptop).Return(model.Session{}, model.ErrNotFound).Twice()
	issuer.On("IssueRefreshToken", epoch).Return("first", "h1", epoch.Add(time.Hour), nil).Once()
	issuer.On("IssueRefreshToken", epoch).Return("second", "h2", epoch.Add(time.Hour), nil).Once()
	store.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateSessionParams) bool { return p.RefreshTokenHash == "h1" })).
		Return(model.Session{}, model.ErrConflict).Once()
	store.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateSessionParams) bool { return p.RefreshTokenHash == "h2" })).
		Return(model.Session{ID: sessionID, UserID: user.ID}, nil).Once()
	issuer.On("IssueAccessToken", model.AccessClaims{UserID: user.ID, SessionID: sessionID, Email: user.Email}, epoch).
		Return("access", epoch.Add(time.Minute), nil).Once()

	result, err := svc.Login(ctx, user, laptop)
	require.NoError(t, err)
	assert.Equal(t, "second", result.Tokens.RefreshToken)
	assert.Equal(t, sessionID, result.Tokens.SessionID)
}

func TestSessionService_Refresh_ErrorMapping(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{name: "unknown token", storeErr: model.ErrNotFound, want: model.ErrRefreshTokenInvalid},
		{name: "expired session", storeErr: model.ErrSessionExpired, want: model.ErrRefreshTokenExpired},
		{name: "store down", storeErr: errDB, want: model.ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _, issuer := newMockedService(t)
			issuer.On("HashRefreshToken", "plain").Return("hash")
			store.On("FindByRefreshToken", mock.Anything, "hash").Return(model.Session{}, tt.storeErr)

			_, err := svc.Refresh(ctx, "plain")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSessionService_Refresh_LostRace(t *testing.T) {
	ctx := context.Background()
	session := model.Session{ID: uuid.New(), UserID: uuid.New(), RefreshTokenHash: "hash"}

	svc, store, users, issuer := newMockedService(t)
	issuer.On("HashRefreshToken", "plain").Return("hash")
	store.On("FindByRefreshToken", mock.Anything, "hash").Return(session, nil)
	users.On("GetByID", mock.Anything, session.UserID).Return(model.User{ID: session.UserID}, nil)
	issuer.On("IssueRefreshToken", epoch).Return("next", "next-hash", epoch.Add(time.Hour), nil)
	store.On("UpdateRefreshToken", mock.Anything, session.ID, "hash", "next-hash", epoch.Add(time.Hour)).
		Return(model.ErrStaleRefreshToken)

	_, err := svc.Refresh(ctx, "plain")
	require.ErrorIs(t, err, model.ErrRefreshTokenInvalid)
}

func TestSessionService_Refresh_DeletedOwner(t *testing.T) {
	ctx := context.Background()
	session := model.Session{ID: uuid.New(), UserID: uuid.New(), RefreshTokenHash: "hash"}

	svc, store, users, issuer := newMockedService(t)
	issuer.On("HashRefreshToken", "plain").Return("hash")
	store.On("FindByRefreshToken", mock.Anything, "hash").Return(session, nil)
	users.On("GetByID", mock.Anything, session.UserID).Return(model.User{}, model.ErrNotFound)

	_, err := svc.Refresh(ctx, "plain")
	require.ErrorIs(t, err, model.ErrRefreshTokenInvalid)
}

func TestSessionService_MutationsHideStoreErrors(t *testing.T) {
	ctx := context.Background()
	userID, sessionID := uuid.New(), uuid.New()

	svc, store, _, _ := newMockedService(t)
	store.On("Revoke", mock.Anything, sessionID).Return(errDB)
	store.On("RevokeAllForUser", mock.Anything, userID).Return(errDB)
	store.On("DeleteByUserAndDevice", mock.Anything, userID, laptop).Return(errDB)
	store.On("FindActiveByUser", mock.Anything, userID).Return(nil, errDB)
	store.On("FindByID", mock.Anything, sessionID).Return(model.Session{}, errDB)
	store.On("Delete", mock.Anything, sessionID).Return(errDB)

	require.ErrorIs(t, svc.Logout(ctx, sessionID), model.ErrServiceUnavailable)
	require.ErrorIs(t, svc.LogoutAll(ctx, userID), model.ErrServiceUnavailable)
	require.ErrorIs(t, svc.LogoutDevice(ctx, userID, laptop), model.ErrServiceUnavailable)
	require.ErrorIs(t, svc.RevokeSession(ctx, userID, sessionID), model.ErrServiceUnavailable)
	require.ErrorIs(t, svc.DeleteSession(ctx, sessionID), model.ErrServiceUnavailable)
	_, err := svc.ListSessions(ctx, userID, sessionID)
	require.ErrorIs(t, err, model.ErrServiceUnavailable)
}

func TestSessionService_SweepWithArchive(t *testing.T) {
	ctx := context.Background()
	archive := mocks.NewArchive(t)
	svc, store, _, _ := newMockedService(t, WithArchive(archive))

	expired := []model.Session{
		{ID: uuid.New(), UserID: uuid.New(), RefreshTokenHash: "secret-hash", Device: "Mac", ExpiresAt: epoch.Add(-time.Hour)},
		{ID: uuid.New(), UserID: uuid.New(), RefreshTokenHash: "secret-hash-2", Device: "iPhone", Revoked: true, ExpiresAt: epoch.Add(-time.Minute)},
	}
	store.On("ListExpired", mock.Anything, epoch, archiveBatchSize).Return(expired, nil).Once()

	var uploaded string
	archive.On("Upload", mock.Anything, ArchiveKey(epoch, 0), mock.Anything).
		Run(func(args mock.Arguments) {
			body, err := io.ReadAll(args.Get(2).(io.Reader))
			require.NoError(t, err)
			uploaded = string(body)
		}).
		Return(nil).Once()
	store.On("DeleteExpiredByIDs", mock.Anything, []uuid.UUID{expired[0].ID, expired[1].ID}, epoch).Return(int64(1), nil).Once()

	deleted, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "only rows the store actually removed are counted")

	lines := strings.Split(strings.TrimSpace(uploaded), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], expired[0].ID.String())
	assert.Contains(t, lines[1], `"revoked":true`)
	assert.NotContains(t, uploaded, "secret-hash")
	assert.True(t, strings.HasPrefix(ArchiveKey(epoch, 0), "expired-sessions/2024/03/01/"))
}

func TestSessionService_SweepArchiveFailureKeepsRows(t *testing.T) {
	ctx := context.Background()
	archive := mocks.NewArchive(t)
	svc, store, _, _ := newMockedService(t, WithArchive(archive))

	store.On("ListExpired", mock.Anything, epoch, archiveBatchSize).
		Return([]model.Session{{ID: uuid.New(), ExpiresAt: epoch.Add(-time.Hour)}}, nil).Once()
	archive.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket unavailable")).Once()

	deleted, err := svc.Sweep(ctx)
	require.Error(t, err)
	assert.Zero(t, deleted)
	store.AssertNotCalled(t, "DeleteExpiredByIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_SweepStoreFailure(t *testing.T) {
	svc, store, _, _ := newMockedService(t)
	store.On("DeleteExpired", mock.Anything, epoch).Return(int64(0), errDB)

	_, err := svc.Sweep(context.Background())
	require.ErrorIs(t, err, errDB)
}

func TestSessionService_SweepDeleteFailure(t *testing.T) {
	archive := mocks.NewArchive(t)
	svc, store, _, _ := newMockedService(t, WithArchive(archive))

	store.On("ListExpired", mock.Anything, epoch, archiveBatchSize).
		Return([]model.Session{{ID: uuid.New(), ExpiresAt: epoch.Add(-time.Hour)}}, nil).Once()
	archive.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	store.On("DeleteExpiredByIDs", mock.Anything, mock.Anything, epoch).Return(int64(0), errDB).Once()

	_, err := svc.Sweep(context.Background())
	require.ErrorIs(t, err, errDB)
}
