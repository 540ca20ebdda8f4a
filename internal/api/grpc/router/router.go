package router

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/sessionkeeper/internal/api/grpc/middleware"
	"github.com/dtroode/sessionkeeper/internal/logger"
)

// ServiceName is the health-checked service reported alongside the overall "" status.
const ServiceName = "sessionkeeper.SessionManager"

// Pinger reports whether the session store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router represents the ops gRPC surface: health checking and reflection.
type Router struct {
	pinger Pinger
	health *health.Server
	logger *logger.Logger
}

// New creates new gRPC Router instance. Both statuses start as NOT_SERVING until the first probe.
func New(pinger Pinger, logger *logger.Logger) *Router {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Router{
		pinger: pinger,
		health: hs,
		logger: logger,
	}
}

// Register builds the gRPC server with logging and recovery interceptors.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recoveryOpt := middleware.RecoveryOption(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoveryOpt),
		),
		grpc.ChainStreamInterceptor(
			logging.HandleGRPCStream,
			recovery.StreamServerInterceptor(recoveryOpt),
		),
	)
	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}

// Probe pings the store and publishes the result as the serving status.
func (r *Router) Probe(ctx context.Context) error {
	status := healthpb.HealthCheckResponse_SERVING
	err := r.pinger.Ping(ctx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	r.health.SetServingStatus("", status)
	r.health.SetServingStatus(ServiceName, status)
	return err
}

// Shutdown reports NOT_SERVING to all watchers ahead of process exit.
func (r *Router) Shutdown() {
	r.health.Shutdown()
}
