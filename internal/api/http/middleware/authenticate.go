package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/sessionkeeper/internal/logger"
	"github.com/dtroode/sessionkeeper/internal/model"
)

// TokenVerifier validates access tokens without a store lookup.
type TokenVerifier interface {
	VerifyAccessToken(token string) (model.AccessClaims, error)
}

// Authenticate validates bearer tokens and injects the claims into the request context.
type Authenticate struct {
	verifier       TokenVerifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(verifier TokenVerifier, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{verifier: verifier, contextManager: contextManager, logger: logger}
}

// Handle rejects the request with 401 unless it carries a valid, unexpired access token.
func (m *Authenticate) Handle(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": model.ErrTokenInvalid.Error()})
		return
	}

	claims, err := m.verifier.VerifyAccessToken(token)
	if err != nil {
		code := model.ErrTokenInvalid
		if errors.Is(err, model.ErrTokenExpired) {
			code = model.ErrTokenExpired
		}
		m.logger.Debug("Authenticate middleware: access token rejected",
			"path", c.Request.URL.Path,
			"error", err.Error())
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code.Error()})
		return
	}

	c.Request = c.Request.WithContext(m.contextManager.SetClaimsToContext(c.Request.Context(), claims))
	c.Next()
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
