// Package memory provides process-local stores used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/sessionkeeper/internal/clock"
	"github.com/dtroode/sessionkeeper/internal/model"
)

var _ model.SessionStore = (*SessionStore)(nil)

// SessionStore keeps sessions in a map guarded by a single mutex. It enforces the
// same uniqueness rules as the Postgres schema.
type SessionStore struct {
	mu       sync.RWMutex
	clock    clock.Clock
	sessions map[uuid.UUID]model.Session
}

func NewSessionStore(c clock.Clock) *SessionStore {
	return &SessionStore{
		clock:    c,
		sessions: make(map[uuid.UUID]model.Session),
	}
}

func (s *SessionStore) Create(ctx context.Context, params model.CreateSessionParams) (model.Session, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sessions {
		if existing.Revoked {
			continue
		}
		if existing.RefreshTokenHash == params.RefreshTokenHash {
			return model.Session{}, model.ErrConflict
		}
		if existing.UserID == params.UserID && existing.Fingerprint() == params.Device {
			return model.Session{}, model.ErrDuplicateDevice
		}
	}

	session := model.Session{
		ID:               uuid.New(),
		UserID:           params.UserID,
		RefreshTokenHash: params.RefreshTokenHash,
		Device:           params.Device.Device,
		IPAddress:        params.Device.IPAddress,
		UserAgent:        params.Device.UserAgent,
		CreatedAt:        s.clock.Now(),
		ExpiresAt:        params.ExpiresAt,
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *SessionStore) FindByID(ctx context.Context, id uuid.UUID) (model.Session, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return session, nil
}

func (s *SessionStore) FindByRefreshToken(ctx context.Context, refreshTokenHash string) (model.Session, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	for _, session := range s.sessions {
		if session.Revoked || session.RefreshTokenHash != refreshTokenHash {
			continue
		}
		if !session.Active(now) {
			return model.Session{}, model.ErrSessionExpired
		}
		return session, nil
	}
	return model.Session{}, model.ErrNotFound
}

func (s *SessionStore) FindByUserAndDevice(ctx context.Context, userID uuid.UUID, device model.DeviceInfo) (model.Session, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if !session.Revoked && session.UserID == userID && session.Fingerprint() == device {
			return session, nil
		}
	}
	return model.Session{}, model.ErrNotFound
}

func (s *SessionStore) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	var active []model.Session
	for _, session := range s.sessions {
		if session.UserID == userID && session.Active(now) {
			active = append(active, session)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active, nil
}

func (s *SessionStore) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		session.Revoked = true
		s.sessions[id] = session
	}
	return nil
}

func (s *SessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if session.UserID == userID {
			session.Revoked = true
			s.sessions[id] = session
		}
	}
	return nil
}

func (s *SessionStore) UpdateRefreshToken(ctx context.Context, id uuid.UUID, currentHash, newHash string, newExpiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.Revoked || session.RefreshTokenHash != currentHash {
		return model.ErrStaleRefreshToken
	}
	for otherID, other := range s.sessions {
		if otherID != id && !other.Revoked && other.RefreshTokenHash == newHash {
			return model.ErrConflict
		}
	}

	session.RefreshTokenHash = newHash
	session.ExpiresAt = newExpiresAt
	s.sessions[id] = session
	return nil
}

func (s *SessionStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []model.Session
	for _, session := range s.sessions {
		if session.ExpiresAt.Before(now) {
			expired = append(expired, session)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, session := range s.sessions {
		if session.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *SessionStore) DeleteExpiredByIDs(ctx context.Context, ids []uuid.UUID, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		session, ok := s.sessions[id]
		if ok && session.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) DeleteByUserAndDevice(ctx context.Context, userID uuid.UUID, device model.DeviceInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if session.UserID == userID && session.Fingerprint() == device {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
