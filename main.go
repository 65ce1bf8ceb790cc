package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"profile-service/internal/auth"
	"profile-service/internal/cache"
	"profile-service/internal/config"
	"profile-service/internal/db"
	"profile-service/internal/handlers"
	"profile-service/internal/logging"
	"profile-service/internal/metrics"
	"profile-service/internal/observability"
	"profile-service/internal/rabbitmq"
	"profile-service/internal/repositories"
	"profile-service/internal/services"
	"profile-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not built yet
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.ServiceName, cfg.Environment, cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	switch cfg.Environment {
	case "local", "dev", "development":
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	observability.InitMetrics(prometheus.DefaultRegisterer)
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseDSN, db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	catalogCache := cache.NewNoopCatalogCache()
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set; badge catalog cache disabled")
	} else {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("failed to connect to redis; badge catalog cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			catalogCache = cache.NewRedisCatalogCache(client, cfg.BadgeCacheTTL)
		}
	}

	publisher := newPublisher(logger, cfg.AMQPURL, cfg.EventsExchange, "event")
	defer publisher.Close()

	auditPublisher := newPublisher(logger, cfg.AMQPURL, cfg.LogsExchange, "audit")
	defer auditPublisher.Close()

	var verifier auth.Verifier
	if cfg.Auth0Domain != "" {
		v, err := auth.NewJWKSVerifier(ctx, cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			logger.Fatal("failed to initialize JWKS verifier", zap.Error(err), zap.String("domain", cfg.Auth0Domain))
		}
		verifier = v
	} else {
		logger.Warn("AUTH0_DOMAIN not set; verifying HS256 tokens with JWT_SECRET")
		verifier = auth.NewHMACVerifier(cfg.JWTSecret)
	}

	userRepo := repositories.NewUserRepository(database)
	itemRepo := repositories.NewItemRepository(database)
	badgeRepo := repositories.NewBadgeRepository(database)
	friendRepo := repositories.NewFriendRepository(database)

	userService := services.NewUserService(userRepo, itemRepo, publisher, logger)
	badgeService := services.NewBadgeService(badgeRepo, catalogCache, publisher, logger)
	friendService := services.NewFriendService(userRepo, friendRepo, publisher, logger)

	if err := badgeService.Seed(ctx, services.DefaultBadges); err != nil {
		logger.Fatal("failed to seed badge catalog", zap.Error(err))
	}

	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, cfg.ServiceName, cfg.Environment, logger)

	r := handlers.NewRouter(handlers.RouterDeps{
		Users:    userService,
		Badges:   badgeService,
		Friends:  friendService,
		Verifier: verifier,
		Audit:    auditEmitter,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
}

// newPublisher falls back to a noop publisher so the HTTP surface keeps
// working without a broker.
func newPublisher(logger *zap.Logger, amqpURL, exchange, kind string) rabbitmq.Publisher {
	noop := rabbitmq.NewNoopPublisher(logger)
	if amqpURL == "" {
		logger.Warn("AMQP_URL not set; publishing disabled", zap.String("kind", kind))
		return noop
	}
	pub, err := rabbitmq.NewPublisher(amqpURL, exchange)
	if err != nil {
		logger.Warn("failed to initialize RabbitMQ publisher", zap.String("kind", kind), zap.String("exchange", exchange), zap.Error(err))
		return noop
	}
	return pub
}
