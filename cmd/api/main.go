package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/helpdeskhq/helpdesk/internal/api/http"
	"github.com/helpdeskhq/helpdesk/internal/api/http/handlers"
	"github.com/helpdeskhq/helpdesk/internal/clock"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/events"
	"github.com/helpdeskhq/helpdesk/internal/observability"
	"github.com/helpdeskhq/helpdesk/internal/persistence"
	"github.com/helpdeskhq/helpdesk/internal/repository"
	"github.com/helpdeskhq/helpdesk/internal/service"
	"github.com/helpdeskhq/helpdesk/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := persistence.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer stores.Close()

	dependencies := map[string]handlers.Pinger{"storage": stores}

	var sessionStorage fiber.Storage
	if cfg.Session.Store == config.SessionStoreRedis {
		redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()
		sessionStorage = persistence.NewSessionStorage(redis)
		dependencies["redis"] = redis
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(logger, cfg.Notification)
	notifier := worker.StartNotificationWorker(ctx, dispatcher, notificationService, logger)
	defer notifier.Stop()

	clk := clock.Real()
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   repository.NewUserRepository(stores.Users),
		Dispatcher: dispatcher,
		Clock:      clk,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repository.NewTicketRepository(stores.Tickets),
		Dispatcher: dispatcher,
		Clock:      clk,
		Logger:     logger,
	})

	app := httptransport.NewServer(cfg, httptransport.ServerDependencies{
		Auth:           authService,
		Tickets:        ticketService,
		SessionStorage: sessionStorage,
		Dependencies:   dependencies,
		Metrics:        observability.NewMetrics(),
		Clock:          clk,
		Logger:         logger,
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("sessions", cfg.Session.Store))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
