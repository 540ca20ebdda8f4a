package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenIssuer mints access and refresh tokens and verifies access tokens.
type TokenIssuer interface {
	IssueAccessToken(claims AccessClaims, now time.Time) (token string, expiresAt time.Time, err error)
	IssueRefreshToken(now time.Time) (token string, hash string, expiresAt time.Time, err error)
	VerifyAccessToken(token string, now time.Time) (AccessClaims, error)
	HashRefreshToken(token string) string
}

// AccessClaims is the identity carried by an access token.
type AccessClaims struct {
	UserID      uuid.UUID
	SessionID   uuid.UUID
	Email       string
	AccountType string
	ExpiresAt   time.Time
}
