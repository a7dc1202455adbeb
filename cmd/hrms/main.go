package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/hrms/internal/hrms/auth"
	"github.com/gartstein/hrms/internal/hrms/config"
	"github.com/gartstein/hrms/internal/hrms/controller"
	gorm "github.com/gartstein/hrms/internal/hrms/db"
	"github.com/gartstein/hrms/internal/hrms/events"
	"github.com/gartstein/hrms/internal/hrms/handlers"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/gartstein/hrms/internal/hrms/ratelimit"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	configPath := flag.String("config", filepath.Join("internal", "hrms", "config", "config.yaml"), "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("failed to load config", zap.Error(err))
	}

	logger := initLogger(cfg.LogLevel)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	template, err := loadTemplate(cfg.Onboarding.TemplatePath)
	if err != nil {
		logger.Fatal("failed to load onboarding template", zap.Error(err))
	}

	repo, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	producer, err := connectProducer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	notifier := events.NewOfferNotifier(cfg.Kafka.Brokers, cfg.Kafka.OfferTopic, logger)
	defer notifier.Close()

	recruitmentSvc := controller.NewRecruitmentService(repo, producer, notifier, logger,
		controller.WithChecklistTemplate(template))
	lifecycleSvc := controller.NewLifecycleService(repo, producer, logger)
	reviewSvc := controller.NewReviewService(repo, producer, auth.ReviewAuthorizer{}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.OfferResponsesTopic, logger)
	consumer.RegisterHandler(recruitmentSvc.HandleOfferResponse)
	consumer.Start(ctx)
	defer consumer.Close()

	workflowHandler := handlers.NewWorkflowHandler(recruitmentSvc, lifecycleSvc, reviewSvc, logger)

	authInterceptor := auth.NewAuthInterceptor(cfg.JWTSecret, handlers.MutatingMethods...)
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger, grpc.UnaryInterceptor(authInterceptor.Unary()))
	server.RegisterGRPCHandler(workflowHandler)

	limiter := newLimiter(cfg, logger)
	if err := server.RegisterHTTPGateway(
		[]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
		cfg.JWTSecret,
		ratelimit.Middleware(limiter, ratelimit.ClientIP, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger),
	); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	waitForShutdown(server, errCh, logger)
}

// initLogger builds a production logger at level, falling back to info.
func initLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func loadTemplate(path string) ([]models.DocumentRequirement, error) {
	if path == "" {
		return nil, nil
	}
	return config.LoadChecklistTemplate(path)
}

// connectDatabase retries until Postgres accepts connections.
func connectDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.Repository, error) {
	dbConf := &gorm.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		DBName:       cfg.Database.DBName,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}
	var repo *gorm.Repository
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = gorm.NewRepository(dbConf)
		return err
	}, startupBackOff(), func(err error, wait time.Duration) {
		logger.Warn("Database not ready", zap.Error(err), zap.Duration("retry_in", wait))
	})
	return repo, err
}

func connectProducer(cfg *config.Config, logger *zap.Logger) (*events.Producer, error) {
	var producer *events.Producer
	err := backoff.RetryNotify(func() error {
		var err error
		producer, err = events.NewProducer(cfg.Kafka.Brokers, logger, cfg.Kafka.EventsTopic)
		return err
	}, startupBackOff(), func(err error, wait time.Duration) {
		logger.Warn("Kafka not ready", zap.Error(err), zap.Duration("retry_in", wait))
	})
	return producer, err
}

func startupBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute
	return b
}

// newLimiter prefers the shared Redis limiter and falls back to a per
// process one when no Redis address is configured.
func newLimiter(cfg *config.Config, logger *zap.Logger) ratelimit.Limiter {
	if cfg.Redis.Addr == "" {
		return ratelimit.NewMemoryLimiter()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return ratelimit.NewRedisLimiter(client, "hrms:ratelimit", logger)
}

func clientKey(cfg *config.Config) func(*http.Request) string {
	if len(cfg.RateLimit.TrustedProxies) == 0 {
		return ratelimit.ClientIP
	}
	return ratelimit.ForwardedClientIP(cfg.RateLimit.TrustedProxies)
}

// waitForShutdown blocks until an interrupt, SIGTERM or server failure,
// then shuts down servers.
func waitForShutdown(server *handlers.Server, errCh <-chan error, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	server.Stop()
	logger.Info("Servers stopped properly")
}
