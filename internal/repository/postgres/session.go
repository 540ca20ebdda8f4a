package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/sessionkeeper/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

const sessionColumns = `id, user_id, refresh_token_hash, device, ip_address, user_agent, revoked, created_at, expires_at`

type SessionRepository struct {
	db *Connection
}

func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row, extra ...any) (model.Session, error) {
	var s model.Session
	dest := []any{
		&s.ID, &s.UserID, &s.RefreshTokenHash, &s.Device, &s.IPAddress, &s.UserAgent,
		&s.Revoked, &s.CreatedAt, &s.ExpiresAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return s, err
}

func (r *SessionRepository) Create(ctx context.Context, params model.CreateSessionParams) (model.Session, error) {
	const query = `
        INSERT INTO sessions (id, user_id, refresh_token_hash, device, ip_address, user_agent, revoked, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), $7)
        RETURNING ` + sessionColumns

	s, err := scanSession(r.db.QueryRow(ctx, query,
		uuid.New(), params.UserID, params.RefreshTokenHash,
		params.Device.Device, params.Device.IPAddress, params.Device.UserAgent,
		params.ExpiresAt,
	))
	if err != nil {
		if mapped := classifyUniqueViolation(err); mapped != nil {
			return model.Session{}, mapped
		}
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by id: %w", err)
	}
	return s, nil
}

// FindByRefreshToken returns the live session owning the refresh token hash.
// A non-revoked match past its expiry yields model.ErrSessionExpired.
func (r *SessionRepository) FindByRefreshToken(ctx context.Context, refreshTokenHash string) (model.Session, error) {
	const query = `
        SELECT ` + sessionColumns + `, expires_at > NOW()
        FROM sessions
        WHERE refresh_token_hash = $1 AND NOT revoked
    `

	var live bool
	s, err := scanSession(r.db.QueryRow(ctx, query, refreshTokenHash), &live)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by refresh token: %w", err)
	}
	if !live {
		return model.Session{}, model.ErrSessionExpired
	}
	return s, nil
}

func (r *SessionRepository) FindByUserAndDevice(ctx context.Context, userID uuid.UUID, device model.DeviceInfo) (model.Session, error) {
	const query = `
        SELECT ` + sessionColumns + `
        FROM sessions
        WHERE user_id = $1 AND device = $2 AND ip_address = $3 AND user_agent = $4 AND NOT revoked
    `

	s, err := scanSession(r.db.QueryRow(ctx, query, userID, device.Device, device.IPAddress, device.UserAgent))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by device: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	const query = `
        SELECT ` + sessionColumns + `
        FROM sessions
        WHERE user_id = $1 AND NOT revoked AND expires_at > NOW()
        ORDER BY created_at DESC
    `

	return r.list(ctx, "active sessions", query, userID)
}

func (r *SessionRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Session, error) {
	const query = `
        SELECT ` + sessionColumns + `
        FROM sessions
        WHERE expires_at < $1
        ORDER BY expires_at
        LIMIT $2
    `

	return r.list(ctx, "expired sessions", query, now, limit)
}

func (r *SessionRepository) list(ctx context.Context, what, query string, args ...any) ([]model.Session, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return sessions, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE sessions SET revoked = TRUE WHERE id = $1 AND NOT revoked`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	const query = `UPDATE sessions SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions by user: %w", err)
	}
	return nil
}

// UpdateRefreshToken rotates the refresh token only while the stored hash still
// equals currentHash, so of two concurrent rotations exactly one succeeds.
func (r *SessionRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, currentHash, newHash string, newExpiresAt time.Time) error {
	const query = `
        UPDATE sessions
        SET refresh_token_hash = $3, expires_at = $4
        WHERE id = $1 AND refresh_token_hash = $2 AND NOT revoked
    `

	tag, err := r.db.Exec(ctx, query, id, currentHash, newHash, newExpiresAt)
	if err != nil {
		if mapped := classifyUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrStaleRefreshToken
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at < $1`

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteExpiredByIDs removes the listed sessions that are still expired at now.
// Rows revived by a re-login in the meantime are kept.
func (r *SessionRepository) DeleteExpiredByIDs(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	const query = `DELETE FROM sessions WHERE id = ANY($1) AND expires_at < $2`

	tag, err := r.db.Exec(ctx, query, ids, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM sessions WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByUserAndDevice(ctx context.Context, userID uuid.UUID, device model.DeviceInfo) error {
	const query = `
        DELETE FROM sessions
        WHERE user_id = $1 AND device = $2 AND ip_address = $3 AND user_agent = $4
    `
	if _, err := r.db.Exec(ctx, query, userID, device.Device, device.IPAddress, device.UserAgent); err != nil {
		return fmt.Errorf("failed to delete session by device: %w", err)
	}
	return nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
