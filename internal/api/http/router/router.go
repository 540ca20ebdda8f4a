package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/sessionkeeper/internal/api/http/handler"
	"github.com/dtroode/sessionkeeper/internal/api/http/middleware"
	"github.com/dtroode/sessionkeeper/internal/logger"
	"github.com/dtroode/sessionkeeper/internal/metrics"
	"github.com/dtroode/sessionkeeper/internal/model"
)

// SessionService is everything the HTTP surface needs from the session manager.
type SessionService interface {
	handler.SessionService
	middleware.TokenVerifier
}

// Router assembles the public HTTP API.
type Router struct {
	authService    handler.AuthService
	sessionService SessionService
	pinger         handler.Pinger
	contextManager model.ContextManager
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
func New(
	authService handler.AuthService,
	sessionService SessionService,
	pinger handler.Pinger,
	contextManager model.ContextManager,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		sessionService: sessionService,
		pinger:         pinger,
		contextManager: contextManager,
		metrics:        metrics,
		logger:         logger,
	}
}

// Register builds the gin engine with logging, panic recovery and all routes.
func (r *Router) Register() *gin.Engine {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.sessionService, r.contextManager, r.logger)

	engine := gin.New()
	engine.Use(logging.Handle, gin.CustomRecovery(func(c *gin.Context, recovered any) {
		r.logger.Error("HTTP handler panicked",
			"path", c.Request.URL.Path,
			"panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": handler.CodeInternal})
	}))

	health := handler.NewHealth(r.pinger, r.logger)
	engine.GET("/status", health.Status)
	if r.metrics != nil {
		engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	r.registerAuthRoutes(engine.Group("/api/auth"), authenticate)
	r.registerAdminRoutes(engine.Group("/api/admin", authenticate.Handle))

	return engine
}

func (r *Router) registerAuthRoutes(group *gin.RouterGroup, authenticate *middleware.Authenticate) {
	authHandler := handler.NewAuth(r.authService, r.sessionService, r.contextManager, r.logger)
	sessionHandler := handler.NewSession(r.sessionService, r.contextManager, r.logger)

	group.POST("/login", authHandler.Login)
	group.POST("/refresh", authHandler.Refresh)

	protected := group.Group("", authenticate.Handle)
	protected.POST("/logout", authHandler.Logout)
	protected.POST("/logout-device", authHandler.LogoutDevice)
	protected.POST("/logout-all", authHandler.LogoutAll)
	protected.GET("/sessions", sessionHandler.List)
	protected.DELETE("/sessions/:id", sessionHandler.Revoke)
}

func (r *Router) registerAdminRoutes(group *gin.RouterGroup) {
	sessionHandler := handler.NewSession(r.sessionService, r.contextManager, r.logger)

	group.DELETE("/sessions/:id", sessionHandler.Delete)
}
