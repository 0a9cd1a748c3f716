package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/port"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/config"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/database"
	kafkainfra "github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/kafka"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/logger"
	redisinfra "github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/redis"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/security"
	postgresrepo "github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository/postgres"
	redisrepo "github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository/redis"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/middleware"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/transport/http/routes"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/usecase"
)

// Application owns the process-level resources of the HTTP service.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New wires configuration, storage, and services into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	argonCfg := security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}
	if err := security.ConfigureArgon2(argonCfg); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	sessionTTL := cfg.Session.TTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	sessionStore := redisrepo.NewSessionStore(redisClient.Client(), cfg.Redis.SessionPrefix, sessionTTL)

	markerTTL := cfg.Security.FailedAuthMarkerTTL
	if markerTTL <= 0 {
		markerTTL = 7 * 24 * time.Hour
	}
	failedAuthCache := redisrepo.NewFailedAuthCache(redisClient.Client(), cfg.Redis.MarkerPrefix, markerTTL)

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, log)
		}
	} else {
		log.Info("kafka disabled, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	auditRecorder := usecase.NewAuditRecorder(repos.Audit, log)
	authService := usecase.NewAuthService(cfg, repos.Accounts, sessionStore, failedAuthCache, eventPublisher, auditRecorder)
	passwordService := usecase.NewPasswordService(cfg, repos.Accounts, eventPublisher, auditRecorder)
	resetService := usecase.NewPasswordResetService(repos.Accounts, sessionStore, passwordService, auditRecorder)
	registrationService := usecase.NewRegistrationService(cfg, repos.Accounts, auditRecorder)
	userService := usecase.NewUserService(cfg, repos.Accounts, eventPublisher, auditRecorder)
	menuService := usecase.NewMenuService(repos.Menu, auditRecorder)
	orderService := usecase.NewOrderService(repos.Orders, repos.Menu, auditRecorder)

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Metrics:  metrics,
		Database: pool,
		Cache:    redisClient,
		Services: routes.ServiceSet{
			Auth:          authService,
			Registration:  registrationService,
			Users:         userService,
			Passwords:     passwordService,
			PasswordReset: resetService,
			Menu:          menuService,
			Orders:        orderService,
			Audit:         auditRecorder,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting restaurant API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
