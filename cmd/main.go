package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	grpcrouter "github.com/dtroode/sessionkeeper/internal/api/grpc/router"
	grpcserver "github.com/dtroode/sessionkeeper/internal/api/grpc/server"
	httpctx "github.com/dtroode/sessionkeeper/internal/api/http/context"
	httprouter "github.com/dtroode/sessionkeeper/internal/api/http/router"
	httpserver "github.com/dtroode/sessionkeeper/internal/api/http/server"
	"github.com/dtroode/sessionkeeper/internal/clock"
	"github.com/dtroode/sessionkeeper/internal/config"
	"github.com/dtroode/sessionkeeper/internal/logger"
	"github.com/dtroode/sessionkeeper/internal/metrics"
	"github.com/dtroode/sessionkeeper/internal/model"
	"github.com/dtroode/sessionkeeper/internal/repository/memory"
	"github.com/dtroode/sessionkeeper/internal/repository/postgres"
	"github.com/dtroode/sessionkeeper/internal/server"
	"github.com/dtroode/sessionkeeper/internal/service"
	storage "github.com/dtroode/sessionkeeper/internal/storage/minio"
	"github.com/dtroode/sessionkeeper/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	sessionStore, userStore, closeStore := openStores(ctx, cfg, logger)
	defer closeStore()

	issuer, err := token.NewJWT(token.Params{
		Secret:       cfg.JWT.Secret,
		Issuer:       cfg.JWT.Issuer,
		AccessTTL:    cfg.Token.AccessTTL,
		RefreshTTL:   cfg.Token.RefreshTTL,
		RefreshBytes: cfg.Token.RefreshBytes,
	})
	if err != nil {
		logger.Fatal("failed to create token issuer", "error", err)
	}

	m := metrics.New()
	opts := []service.SessionOption{service.WithMetrics(m)}

	if cfg.Archive.Enabled {
		archive, err := storage.Connect(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to initialize archive storage", "error", err)
		}
		opts = append(opts, service.WithArchive(archive))
	}

	sessionService := service.NewSessionService(sessionStore, userStore, issuer, logger.Component("sessions"), opts...)
	authService := service.NewAuth(userStore, sessionService, logger.Component("auth"))

	ops := grpcrouter.New(sessionStore, logger.Component("grpc"))
	defer ops.Shutdown()

	sweeper := service.NewSweeper(ctx, sessionService, cfg.Sweep.Timeout, m, logger.Component("sweeper"))
	if err := sweeper.ScheduleSweep(cfg.Sweep.Schedule); err != nil {
		logger.Fatal("failed to schedule sweep", "error", err, "schedule", cfg.Sweep.Schedule)
	}
	if err := sweeper.Schedule(cfg.Sweep.HealthSchedule, "health", ops.Probe); err != nil {
		logger.Fatal("failed to schedule health probe", "error", err, "schedule", cfg.Sweep.HealthSchedule)
	}
	if err := ops.Probe(ctx); err != nil {
		logger.Warn("initial health probe failed", "error", err)
	}
	sweeper.Start()

	gin.SetMode(gin.ReleaseMode)
	router := httprouter.New(authService, sessionService, sessionStore, httpctx.NewManager(), m, logger.Component("http"))
	servers := []struct {
		server model.Server
		sl     model.SecurityLayer
	}{
		{
			server: httpserver.NewHTTPServer(router.Register(), cfg.HTTP.Address),
			sl:     server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName),
		},
		{
			server: grpcserver.NewGRPCServer(ops.Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
			sl:     server.NewPlainListener(),
		},
	}

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server, sl model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s.server, s.sl)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.server.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.server.Address())
		}
	}
	if err := sweeper.Stop(shutdownCtx); err != nil {
		logger.Error("error waiting for running jobs", "error", err)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// openStores returns the configured session and user stores and a close func.
func openStores(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.SessionStore, model.UserStore, func()) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		users := memory.NewUserStore()
		if cfg.SeedUser.Email != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedUser.Password), bcrypt.DefaultCost)
			if err != nil {
				logger.Fatal("failed to hash seed user password", "error", err)
			}
			now := time.Now()
			users.Put(model.User{
				ID:           uuid.New(),
				Email:        cfg.SeedUser.Email,
				FullName:     cfg.SeedUser.Email,
				AccountType:  "customer",
				PasswordHash: hash,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			logger.Info("seeded in-memory user", "email", cfg.SeedUser.Email)
		}
		return memory.NewSessionStore(clock.System{}), users, func() {}
	default:
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN,
			postgres.WithMaxConns(cfg.Database.MaxConns),
			postgres.WithMaxConnIdleTime(cfg.Database.MaxConnIdleTime),
		)
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
		return postgres.NewSessionRepository(db), postgres.NewUserRepository(db), func() { _ = db.Close() }
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
