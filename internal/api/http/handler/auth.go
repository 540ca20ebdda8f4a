package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/sessionkeeper/internal/device"
	"github.com/dtroode/sessionkeeper/internal/logger"
	"github.com/dtroode/sessionkeeper/internal/model"
)

// AuthService checks credentials and opens a session.
type AuthService interface {
	Login(ctx context.Context, email, password string, device model.DeviceInfo) (model.LoginResult, error)
}

// SessionService defines the session operations exposed over HTTP.
type SessionService interface {
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	LogoutDevice(ctx context.Context, userID uuid.UUID, device model.DeviceInfo) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	ListSessions(ctx context.Context, userID, currentSessionID uuid.UUID) ([]model.SessionView, error)
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=1024"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type tokensResponse struct {
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

type loginResponse struct {
	User   model.UserSummary `json:"user"`
	Tokens tokensResponse    `json:"tokens"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func newTokensResponse(pair model.TokenPair) tokensResponse {
	return tokensResponse{
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	}
}

// Auth handles login, refresh and logout endpoints.
type Auth struct {
	authService    AuthService
	sessionService SessionService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, sessionService SessionService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		sessionService: sessionService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Login handles POST /api/auth/login.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: CodeInvalidRequest})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, device.FromRequest(c.Request))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		User:   result.User,
		Tokens: newTokensResponse(result.Tokens),
	})
}

// Refresh handles POST /api/auth/refresh.
func (h *Auth) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: CodeInvalidRequest})
		return
	}

	pair, err := h.sessionService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokensResponse(pair))
}

// Logout handles POST /api/auth/logout and revokes the session of the presented access token.
func (h *Auth) Logout(c *gin.Context) {
	claims, ok := h.contextManager.GetClaimsFromContext(c.Request.Context())
	if !ok {
		writeError(c, model.ErrTokenInvalid)
		return
	}

	if err := h.sessionService.Logout(c.Request.Context(), claims.SessionID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// LogoutDevice handles POST /api/auth/logout-device. It removes the caller's
// session for the requesting device outright instead of revoking it.
func (h *Auth) LogoutDevice(c *gin.Context) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, model.ErrTokenInvalid)
		return
	}

	if err := h.sessionService.LogoutDevice(c.Request.Context(), userID, device.FromRequest(c.Request)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "device signed out"})
}

// LogoutAll handles POST /api/auth/logout-all.
func (h *Auth) LogoutAll(c *gin.Context) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, model.ErrTokenInvalid)
		return
	}

	if err := h.sessionService.LogoutAll(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "logged out from all devices"})
}
