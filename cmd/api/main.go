package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/tickify/tickify/internal/api/http"
	"github.com/tickify/tickify/internal/api/http/handlers"
	"github.com/tickify/tickify/internal/auth"
	"github.com/tickify/tickify/internal/blob"
	"github.com/tickify/tickify/internal/config"
	"github.com/tickify/tickify/internal/events"
	"github.com/tickify/tickify/internal/observability"
	"github.com/tickify/tickify/internal/persistence"
	"github.com/tickify/tickify/internal/repository"
	"github.com/tickify/tickify/internal/service"
	"github.com/tickify/tickify/internal/worker"
)

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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := repository.NewStore(pg.PoolHandle())

	blobs, err := blob.NewLocalStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		logger.Fatal("failed to init blob store", zap.Error(err))
	}

	dispatcher := events.NewRedisPublisher(
		events.NewInMemoryDispatcher(), redis.Client, cfg.Events.RedisChannel, logger)
	worker.StartEventRelay(dispatcher, cfg.Events.WebhookURL, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Blobs:      blobs,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	assignmentService := service.NewAssignmentService(store, dispatcher, logger)
	commentService := service.NewCommentService(store, blobs, dispatcher, logger)
	notificationService := service.NewNotificationService(store, logger)
	userService := service.NewUserService(store, tokens, cfg.Auth.BcryptCost, logger)
	userService.OnRoleChange(assignmentService.HandleRoleChange)
	userService.OnAccountDeletion(assignmentService.HandleAccountDeletion)

	authMiddleware := auth.NewMiddleware(tokens, store.Users())

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 12 << 20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
		StaticDir:      cfg.Blob.Dir,
		StaticPrefix:   "/uploads",
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
