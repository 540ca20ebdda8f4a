package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore defines persistence operations for device sessions.
//
// Lookups by refresh token and by user only consider active sessions, that is
// non-revoked rows whose expiry is still in the future according to the store clock.
type SessionStore interface {
	Create(ctx context.Context, params CreateSessionParams) (Session, error)
	FindByID(ctx context.Context, id uuid.UUID) (Session, error)
	FindByRefreshToken(ctx context.Context, refreshTokenHash string) (Session, error)
	FindByUserAndDevice(ctx context.Context, userID uuid.UUID, device DeviceInfo) (Session, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, currentHash, newHash string, newExpiresAt time.Time) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredByIDs(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUserAndDevice(ctx context.Context, userID uuid.UUID, device DeviceInfo) error
	Ping(ctx context.Context) error
}

// Session binds a user, a device fingerprint and the currently valid refresh token.
type Session struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	RefreshTokenHash string
	Device           string
	IPAddress        string
	UserAgent        string
	Revoked          bool
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// Active reports whether the session can still be used at the given instant.
func (s Session) Active(now time.Time) bool {
	return !s.Revoked && s.ExpiresAt.After(now)
}

// Fingerprint returns the device tuple the session was created for.
func (s Session) Fingerprint() DeviceInfo {
	return DeviceInfo{Device: s.Device, IPAddress: s.IPAddress, UserAgent: s.UserAgent}
}

// CreateSessionParams contains parameters to create a session.
type CreateSessionParams struct {
	UserID           uuid.UUID
	RefreshTokenHash string
	Device           DeviceInfo
	ExpiresAt        time.Time
}

// DeviceInfo is the advisory fingerprint of the client that owns a session.
type DeviceInfo struct {
	Device    string
	IPAddress string
	UserAgent string
}

// SessionView is a session as shown to its owner.
type SessionView struct {
	ID        uuid.UUID `json:"id"`
	Device    string    `json:"device"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Current   bool      `json:"current"`
}

// TokenPair is the result of a login or a refresh.
type TokenPair struct {
	SessionID             uuid.UUID
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User   UserSummary
	Tokens TokenPair
}
