package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/exchange-brokerage/internal/api"
	"github.com/ayo6706/exchange-brokerage/internal/config"
	"github.com/ayo6706/exchange-brokerage/internal/db"
	"github.com/ayo6706/exchange-brokerage/internal/events"
	"github.com/ayo6706/exchange-brokerage/internal/idempotency"
	"github.com/ayo6706/exchange-brokerage/internal/notification"
	"github.com/ayo6706/exchange-brokerage/internal/observability"
	"github.com/ayo6706/exchange-brokerage/internal/repository"
	"github.com/ayo6706/exchange-brokerage/internal/service"
	"github.com/ayo6706/exchange-brokerage/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server, the notification dispatcher and the
// optional commission resync worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var cache redis.Cmdable
	if cfg.RedisURL != "" {
		redisClient, err := newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		cache = redisClient
	} else {
		logger.Info("redis disabled, idempotency records served from postgres only")
	}

	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	defer closePublisher()

	store := repository.NewStore(pool)
	idemStore := idempotency.NewStore(cache, store, cfg.IdempotencyTTL)

	dispatcher := worker.NewDispatcher().
		WithWorkers(cfg.DispatchWorkers).
		WithQueueSize(cfg.DispatchQueueSize).
		WithTimeout(cfg.DispatchTimeout)
	stopDispatcher := dispatcher.Run(ctx)
	logger.Info("notification dispatcher started", zap.Stringer("dispatcher", dispatcher))

	siteConfig := service.NewSiteConfigService(store)
	notifier := notification.NewOrderNotifier(dispatcher, newSender(cfg, logger), publisher, siteConfig, notification.Options{
		SiteName:   cfg.SiteName,
		AdminEmail: cfg.AdminEmail,
		OrderTopic: cfg.KafkaOrderTopic,
	}, logger)

	quotes := service.NewQuoteService(store)
	commissions := service.NewCommissionService(store)
	services := api.Services{
		Orders:      service.NewOrderService(store, quotes, service.NewAccountResolver(store), notifier),
		Quotes:      quotes,
		Commissions: commissions,
		Catalog:     service.NewCatalogService(store),
		Accounts:    service.NewAccountService(store),
		SiteConfig:  siteConfig,
		Users:       service.NewUserService(store),
	}

	stopResync := func() {}
	if cfg.ResyncInterval > 0 {
		stopResync = worker.NewResyncWorker(commissions).WithInterval(cfg.ResyncInterval).Run(ctx)
		logger.Info("commission resync worker started", zap.Duration("interval", cfg.ResyncInterval))
	}

	router := api.NewRouter(cfg, logger, pool, cache, idemStore, services)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("stopping workers")
	stopResync()
	stopDispatcher()

	logger.Info("shutdown complete")
	return nil
}

// newSender uses SMTP when a relay is configured and logs mail otherwise.
func newSender(cfg *config.Config, logger *zap.Logger) notification.Sender {
	if cfg.SMTPHost == "" {
		logger.Info("smtp disabled, confirmation mail will be logged")
		return notification.NewLogSender(logger)
	}
	return notification.NewSMTPSender(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort), cfg.MailFrom)
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (events.Publisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka disabled, order events will not be published")
		return events.NopPublisher{}, func() {}, nil
	}
	producer, err := events.NewSyncProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, nil, err
	}
	return producer, func() {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", zap.Error(err))
		}
	}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
