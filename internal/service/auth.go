package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/sessionkeeper/internal/logger"
	"github.com/dtroode/sessionkeeper/internal/model"
)

// SessionStarter opens a session for an already verified user.
type SessionStarter interface {
	Login(ctx context.Context, user model.UserSummary, device model.DeviceInfo) (model.LoginResult, error)
}

// Auth verifies passwords against the user store and hands verified users to the session manager.
type Auth struct {
	users     model.UserStore
	sessions  SessionStarter
	logger    *logger.Logger
	dummyHash []byte
}

func NewAuth(users model.UserStore, sessions SessionStarter, logger *logger.Logger) *Auth {
	// Compared against for unknown emails so both failure paths cost one bcrypt run.
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("sessionkeeper-dummy-password"), bcrypt.DefaultCost)

	return &Auth{
		users:     users,
		sessions:  sessions,
		logger:    logger,
		dummyHash: dummyHash,
	}
}

// Login checks email and password and opens a session on the given device.
// Unknown emails and wrong passwords both return model.ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, email, password string, device model.DeviceInfo) (model.LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	a.logger.Debug("Auth service: starting user login",
		"email", email)

	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		a.logger.Info("Auth service: login for unknown email",
			"email", email)
		return model.LoginResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.LoginResult{}, model.ErrServiceUnavailable
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		a.logger.Info("Auth service: password mismatch",
			"user_id", user.ID)
		return model.LoginResult{}, model.ErrInvalidCredentials
	}

	return a.sessions.Login(ctx, user.Summary(), device)
}
