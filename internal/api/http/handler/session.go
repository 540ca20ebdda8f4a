package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/sessionkeeper/internal/logger"
	"github.com/dtroode/sessionkeeper/internal/model"
)

type sessionsResponse struct {
	Sessions []model.SessionView `json:"sessions"`
}

// Session handles the device session management endpoints.
type Session struct {
	sessionService SessionService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewSession creates a new Session handler.
func NewSession(sessionService SessionService, contextManager model.ContextManager, logger *logger.Logger) *Session {
	return &Session{
		sessionService: sessionService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// List handles GET /api/auth/sessions.
func (h *Session) List(c *gin.Context) {
	claims, ok := h.contextManager.GetClaimsFromContext(c.Request.Context())
	if !ok {
		writeError(c, model.ErrTokenInvalid)
		return
	}

	sessions, err := h.sessionService.ListSessions(c.Request.Context(), claims.UserID, claims.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionsResponse{Sessions: sessions})
}

// Revoke handles DELETE /api/auth/sessions/:id. Ids that do not belong to the
// caller are acknowledged like their own.
func (h *Session) Revoke(c *gin.Context) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.Request.Context())
	if !ok {
		writeError(c, model.ErrTokenInvalid)
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: CodeInvalidRequest})
		return
	}

	if err := h.sessionService.RevokeSession(c.Request.Context(), userID, sessionID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "session revoked"})
}

// Delete handles DELETE /api/admin/sessions/:id. Only admin accounts may
// hard-delete a session; unknown ids succeed.
func (h *Session) Delete(c *gin.Context) {
	claims, ok := h.contextManager.GetClaimsFromContext(c.Request.Context())
	if !ok {
		writeError(c, model.ErrTokenInvalid)
		return
	}
	if claims.AccountType != model.AccountTypeAdmin {
		writeError(c, model.ErrForbidden)
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: CodeInvalidRequest})
		return
	}

	if err := h.sessionService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}

	h.logger.Info("Session handler: session deleted by admin",
		"admin_id", claims.UserID,
		"session_id", sessionID)
	c.JSON(http.StatusOK, messageResponse{Message: "session deleted"})
}
