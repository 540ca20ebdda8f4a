package model

import "errors"

var (
	// ErrNotFound is returned by stores when no matching row exists.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a freshly generated refresh token collides with a live one.
	ErrConflict = errors.New("refresh token conflict")
	// ErrDuplicateDevice is returned when a second live session is created for the same device tuple.
	ErrDuplicateDevice = errors.New("live session already exists for device")
	// ErrStaleRefreshToken is returned by a guarded rotation when the stored token no longer matches.
	ErrStaleRefreshToken = errors.New("refresh token already rotated")
	// ErrSessionExpired is returned by refresh-token lookups that only match an expired session.
	ErrSessionExpired = errors.New("session expired")

	ErrTokenInvalid        = errors.New("TOKEN_INVALID")
	ErrTokenExpired        = errors.New("TOKEN_EXPIRED")
	ErrRefreshTokenInvalid = errors.New("REFRESH_TOKEN_INVALID")
	ErrRefreshTokenExpired = errors.New("REFRESH_TOKEN_EXPIRED")

	// ErrInvalidCredentials is returned for unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when an authenticated caller lacks the required account type.
	ErrForbidden = errors.New("forbidden")
	// ErrServiceUnavailable hides store I/O failures from transports.
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
