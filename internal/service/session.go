package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/sessionkeeper/internal/clock"
	"github.com/dtroode/sessionkeeper/internal/logger"
	"github.com/dtroode/sessionkeeper/internal/metrics"
	"github.com/dtroode/sessionkeeper/internal/model"
)

const (
	// maxAttempts bounds retries after a refresh-token collision or a lost race on the device tuple.
	maxAttempts = 3
	// archiveBatchSize is the number of expired sessions written per archive object.
	archiveBatchSize = 500
)

// SessionService manages the lifecycle of device sessions and their token pairs.
type SessionService struct {
	store   model.SessionStore
	users   model.UserStore
	issuer  model.TokenIssuer
	clock   clock.Clock
	archive model.Archive
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// SessionOption configures optional collaborators of SessionService.
type SessionOption func(*SessionService)

// WithArchive exports expired sessions to archive before they are swept.
func WithArchive(archive model.Archive) SessionOption {
	return func(s *SessionService) {
		s.archive = archive
	}
}

// WithMetrics records lifecycle counters.
func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *SessionService) {
		s.metrics = m
	}
}

// WithClock overrides the wall clock.
func WithClock(c clock.Clock) SessionOption {
	return func(s *SessionService) {
		s.clock = c
	}
}

func NewSessionService(
	store model.SessionStore,
	users model.UserStore,
	issuer model.TokenIssuer,
	logger *logger.Logger,
	opts ...SessionOption,
) *SessionService {
	s := &SessionService{
		store:  store,
		users:  users,
		issuer: issuer,
		clock:  clock.System{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login starts or resumes the session of an authenticated user on a device.
// A live session for the same device tuple is rotated in place instead of duplicated.
func (s *SessionService) Login(ctx context.Context, user model.UserSummary, device model.DeviceInfo) (model.LoginResult, error) {
	s.logger.Debug("Session service: login",
		"user_id", user.ID,
		"device", device.Device)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		now := s.clock.Now()

		existing, err := s.store.FindByUserAndDevice(ctx, user.ID, device)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return model.LoginResult{}, s.unavailable("failed to find session by device", err, "user_id", user.ID)
		}
		reused := err == nil

		refreshToken, refreshHash, refreshExpiresAt, err := s.issuer.IssueRefreshToken(now)
		if err != nil {
			return model.LoginResult{}, fmt.Errorf("failed to issue refresh token: %w", err)
		}

		sessionID := existing.ID
		if reused {
			err = s.store.UpdateRefreshToken(ctx, existing.ID, existing.RefreshTokenHash, refreshHash, refreshExpiresAt)
		} else {
			var created model.Session
			created, err = s.store.Create(ctx, model.CreateSessionParams{
				UserID:           user.ID,
				RefreshTokenHash: refreshHash,
				Device:           device,
				ExpiresAt:        refreshExpiresAt,
			})
			sessionID = created.ID
		}
		if isRetryable(err) {
			s.logger.Warn("Session service: login raced, retrying",
				"user_id", user.ID,
				"attempt", attempt,
				"error", err.Error())
			continue
		}
		if err != nil {
			return model.LoginResult{}, s.unavailable("failed to store session", err, "user_id", user.ID)
		}

		accessToken, accessExpiresAt, err := s.issuer.IssueAccessToken(model.AccessClaims{
			UserID:      user.ID,
			SessionID:   sessionID,
			Email:       user.Email,
			AccountType: user.AccountType,
		}, now)
		if err != nil {
			return model.LoginResult{}, fmt.Errorf("failed to issue access token: %w", err)
		}

		outcome := metrics.LoginNew
		if reused {
			outcome = metrics.LoginReused
		}
		s.metrics.Login(outcome)

		s.logger.Info("Session service: login completed",
			"user_id", user.ID,
			"session_id", sessionID,
			"reused", reused)

		return model.LoginResult{
			User: user,
			Tokens: model.TokenPair{
				SessionID:             sessionID,
				AccessToken:           accessToken,
				AccessTokenExpiresAt:  accessExpiresAt,
				RefreshToken:          refreshToken,
				RefreshTokenExpiresAt: refreshExpiresAt,
			},
		}, nil
	}

	s.logger.Error("Session service: login retries exhausted", "user_id", user.ID)
	return model.LoginResult{}, model.ErrServiceUnavailable
}

// Refresh exchanges a refresh token for a new token pair. The presented token
// stops matching any session as soon as the rotation commits.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if refreshToken == "" {
		s.metrics.Refresh(metrics.RefreshInvalid)
		return model.TokenPair{}, model.ErrRefreshTokenInvalid
	}
	currentHash := s.issuer.HashRefreshToken(refreshToken)

	session, err := s.store.FindByRefreshToken(ctx, currentHash)
	switch {
	case errors.Is(err, model.ErrNotFound):
		s.metrics.Refresh(metrics.RefreshInvalid)
		return model.TokenPair{}, model.ErrRefreshTokenInvalid
	case errors.Is(err, model.ErrSessionExpired):
		s.metrics.Refresh(metrics.RefreshExpired)
		return model.TokenPair{}, model.ErrRefreshTokenExpired
	case err != nil:
		s.metrics.Refresh(metrics.RefreshError)
		return model.TokenPair{}, s.unavailable("failed to find session by refresh token", err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, model.ErrNotFound) {
		s.metrics.Refresh(metrics.RefreshInvalid)
		return model.TokenPair{}, model.ErrRefreshTokenInvalid
	}
	if err != nil {
		s.metrics.Refresh(metrics.RefreshError)
		return model.TokenPair{}, s.unavailable("failed to get session owner", err, "session_id", session.ID)
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		now := s.clock.Now()

		newRefreshToken, newHash, refreshExpiresAt, err := s.issuer.IssueRefreshToken(now)
		if err != nil {
			s.metrics.Refresh(metrics.RefreshError)
			return model.TokenPair{}, fmt.Errorf("failed to issue refresh token: %w", err)
		}

		err = s.store.UpdateRefreshToken(ctx, session.ID, currentHash, newHash, refreshExpiresAt)
		if errors.Is(err, model.ErrConflict) {
			continue
		}
		if errors.Is(err, model.ErrStaleRefreshToken) {
			s.logger.Info("Session service: refresh token already rotated",
				"session_id", session.ID)
			s.metrics.Refresh(metrics.RefreshInvalid)
			return model.TokenPair{}, model.ErrRefreshTokenInvalid
		}
		if err != nil {
			s.metrics.Refresh(metrics.RefreshError)
			return model.TokenPair{}, s.unavailable("failed to rotate refresh token", err, "session_id", session.ID)
		}

		accessToken, accessExpiresAt, err := s.issuer.IssueAccessToken(model.AccessClaims{
			UserID:      user.ID,
			SessionID:   session.ID,
			Email:       user.Email,
			AccountType: user.AccountType,
		}, now)
		if err != nil {
			s.metrics.Refresh(metrics.RefreshError)
			return model.TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
		}

		s.metrics.Refresh(metrics.RefreshOK)
		s.logger.Debug("Session service: refresh token rotated",
			"user_id", user.ID,
			"session_id", session.ID)

		return model.TokenPair{
			SessionID:             session.ID,
			AccessToken:           accessToken,
			AccessTokenExpiresAt:  accessExpiresAt,
			RefreshToken:          newRefreshToken,
			RefreshTokenExpiresAt: refreshExpiresAt,
		}, nil
	}

	s.metrics.Refresh(metrics.RefreshError)
	s.logger.Error("Session service: refresh retries exhausted", "session_id", session.ID)
	return model.TokenPair{}, model.ErrServiceUnavailable
}

// Logout revokes a session. Unknown and already revoked sessions are not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.Revoke(ctx, sessionID); err != nil {
		return s.unavailable("failed to revoke session", err, "session_id", sessionID)
	}
	s.metrics.Logout(metrics.LogoutSession)
	s.logger.Info("Session service: session revoked", "session_id", sessionID)
	return nil
}

// LogoutDevice hard-deletes every session of the user on the given device.
func (s *SessionService) LogoutDevice(ctx context.Context, userID uuid.UUID, device model.DeviceInfo) error {
	if err := s.store.DeleteByUserAndDevice(ctx, userID, device); err != nil {
		return s.unavailable("failed to delete session by device", err, "user_id", userID)
	}
	s.metrics.Logout(metrics.LogoutDevice)
	s.logger.Info("Session service: device logged out",
		"user_id", userID,
		"device", device.Device)
	return nil
}

// LogoutAll revokes every session of the user.
func (s *SessionService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.RevokeAllForUser(ctx, userID); err != nil {
		return s.unavailable("failed to revoke all sessions", err, "user_id", userID)
	}
	s.metrics.Logout(metrics.LogoutAll)
	s.logger.Info("Session service: all sessions revoked", "user_id", userID)
	return nil
}

// ListSessions returns the user's active sessions newest first, flagging currentSessionID.
func (s *SessionService) ListSessions(ctx context.Context, userID, currentSessionID uuid.UUID) ([]model.SessionView, error) {
	sessions, err := s.store.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, s.unavailable("failed to list sessions", err, "user_id", userID)
	}

	views := make([]model.SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, model.SessionView{
			ID:        session.ID,
			Device:    session.Device,
			IPAddress: session.IPAddress,
			UserAgent: session.UserAgent,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
			Current:   session.ID == currentSessionID,
		})
	}
	return views, nil
}

// RevokeSession revokes one of the user's sessions. Sessions owned by someone
// else are treated like missing ones so ids cannot be probed.
func (s *SessionService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.store.FindByID(ctx, sessionID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return s.unavailable("failed to find session", err, "session_id", sessionID)
	}
	if session.UserID != userID {
		s.logger.Warn("Session service: revoke of foreign session ignored",
			"user_id", userID,
			"session_id", sessionID)
		return nil
	}

	if err := s.store.Revoke(ctx, sessionID); err != nil {
		return s.unavailable("failed to revoke session", err, "session_id", sessionID)
	}
	s.metrics.Logout(metrics.LogoutRevoke)
	return nil
}

// DeleteSession removes a session row regardless of its state.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return s.unavailable("failed to delete session", err, "session_id", sessionID)
	}
	s.metrics.Logout(metrics.LogoutDelete)
	return nil
}

// VerifyAccessToken checks an access token without touching the store.
func (s *SessionService) VerifyAccessToken(token string) (model.AccessClaims, error) {
	return s.issuer.VerifyAccessToken(token, s.clock.Now())
}

// Sweep deletes expired sessions and returns how many were removed. With an
// archive configured, rows are exported first and kept if the export fails;
// a row revived by a re-login while its batch uploads survives the sweep.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	now := s.clock.Now()

	if s.archive == nil {
		deleted, err := s.store.DeleteExpired(ctx, now)
		if err != nil {
			return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
		}
		return deleted, nil
	}

	var total int64
	for batch := 0; ; batch++ {
		expired, err := s.store.ListExpired(ctx, now, archiveBatchSize)
		if err != nil {
			return total, fmt.Errorf("failed to list expired sessions: %w", err)
		}
		if len(expired) == 0 {
			return total, nil
		}

		if err := s.archiveBatch(ctx, now, batch, expired); err != nil {
			return total, err
		}

		ids := make([]uuid.UUID, 0, len(expired))
		for _, session := range expired {
			ids = append(ids, session.ID)
		}
		deleted, err := s.store.DeleteExpiredByIDs(ctx, ids, now)
		if err != nil {
			return total, fmt.Errorf("failed to delete expired sessions: %w", err)
		}
		total += deleted

		if len(expired) < archiveBatchSize {
			return total, nil
		}
	}
}

type archivedSession struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Device    string    `json:"device"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ArchiveKey names the archive object for one sweep batch.
func ArchiveKey(now time.Time, batch int) string {
	return fmt.Sprintf("expired-sessions/%s/%d-%d.jsonl", now.UTC().Format("2006/01/02"), now.UnixNano(), batch)
}

func (s *SessionService) archiveBatch(ctx context.Context, now time.Time, batch int, sessions []model.Session) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, session := range sessions {
		if err := enc.Encode(archivedSession{
			ID:        session.ID,
			UserID:    session.UserID,
			Device:    session.Device,
			IPAddress: session.IPAddress,
			UserAgent: session.UserAgent,
			Revoked:   session.Revoked,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		}); err != nil {
			return fmt.Errorf("failed to encode expired session: %w", err)
		}
	}

	key := ArchiveKey(now, batch)
	if err := s.archive.Upload(ctx, key, &buf); err != nil {
		return fmt.Errorf("failed to archive expired sessions: %w", err)
	}

	s.logger.Info("Session service: expired sessions archived",
		"key", key,
		"count", len(sessions))
	return nil
}

// unavailable logs a store failure and hides it behind model.ErrServiceUnavailable.
func (s *SessionService) unavailable(msg string, err error, args ...any) error {
	s.logger.Error("Session service: "+msg, append(args, "error", err.Error())...)
	return fmt.Errorf("%s: %w", msg, model.ErrServiceUnavailable)
}

func isRetryable(err error) bool {
	return errors.Is(err, model.ErrConflict) ||
		errors.Is(err, model.ErrDuplicateDevice) ||
		errors.Is(err, model.ErrStaleRefreshToken)
}
