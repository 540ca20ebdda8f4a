package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/dtroode/sessionkeeper/internal/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Logging logs every HTTP request with its status and duration.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle assigns a request id, echoes it in the response and logs the outcome.
// Incoming ids are kept only when they are valid ULIDs.
func (l *Logging) Handle(c *gin.Context) {
	start := time.Now()

	requestID := c.GetHeader(RequestIDHeader)
	if _, err := ulid.ParseStrict(requestID); err != nil {
		requestID = ulid.Make().String()
	}
	c.Set(RequestIDKey, requestID)
	c.Header(RequestIDHeader, requestID)

	c.Next()

	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}

	l.logger.Info("HTTP request completed",
		"request_id", requestID,
		"method", c.Request.Method,
		"path", path,
		"status", c.Writer.Status(),
		"duration_ms", time.Since(start).Milliseconds(),
		"client_ip", c.ClientIP())

	if len(c.Errors) > 0 {
		l.logger.Error("HTTP request failed",
			"request_id", requestID,
			"path", path,
			"error", c.Errors.String())
	}
}
