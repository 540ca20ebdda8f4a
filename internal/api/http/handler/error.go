package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/sessionkeeper/internal/model"
)

// Error codes returned in the "error" field of failed responses.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeForbidden           = "FORBIDDEN"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal            = "INTERNAL_ERROR"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// handleError maps service errors to a status and a generic code. Refresh
// failures share one code so callers cannot tell unknown, revoked and expired tokens apart.
func handleError(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: CodeInvalidCredentials}
	case errors.Is(err, model.ErrRefreshTokenInvalid), errors.Is(err, model.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, errorResponse{Error: CodeInvalidRefreshToken}
	case errors.Is(err, model.ErrTokenExpired):
		return http.StatusUnauthorized, errorResponse{Error: model.ErrTokenExpired.Error()}
	case errors.Is(err, model.ErrTokenInvalid):
		return http.StatusUnauthorized, errorResponse{Error: model.ErrTokenInvalid.Error()}
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: CodeForbidden}
	case errors.Is(err, model.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: CodeServiceUnavailable}
	default:
		return http.StatusInternalServerError, errorResponse{Error: CodeInternal}
	}
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := handleError(err)
	c.AbortWithStatusJSON(status, body)
}
