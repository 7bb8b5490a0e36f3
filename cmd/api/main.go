package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/command-center/internal/api/http"
	"github.com/spec-kit/command-center/internal/api/http/handlers"
	"github.com/spec-kit/command-center/internal/auth"
	"github.com/spec-kit/command-center/internal/config"
	"github.com/spec-kit/command-center/internal/events"
	"github.com/spec-kit/command-center/internal/feed"
	"github.com/spec-kit/command-center/internal/observability"
	"github.com/spec-kit/command-center/internal/persistence"
	"github.com/spec-kit/command-center/internal/repository"
	"github.com/spec-kit/command-center/internal/service"
	"github.com/spec-kit/command-center/internal/view"
	"github.com/spec-kit/command-center/internal/worker"
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

	pool := pg.PoolHandle()
	staffDir := repository.NewStaffDirectory(pool)
	adminRepo := repository.NewAdminRepository(pool)
	settingsRepo := repository.NewEventSettingsRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	locks := repository.NewRoleLockRepository(pool)

	presenceFeed := feed.NewRedisPresenceFeed(redis.Client, logger)
	lockFeed := feed.NewRedisLockFeed(redis.Client, locks, logger)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, adminRepo)
	if err := authService.SeedAdmin(ctx, cfg.Auth.SeedAdminName, cfg.Auth.SeedAdminEmail, cfg.Auth.SeedAdminPassword); err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}
	presenceService := service.NewPresenceService(staffDir, presenceFeed, dispatcher, logger)
	coordinator := service.NewAccessControlCoordinator(service.CoordinatorDependencies{
		Directory:   staffDir,
		Locks:       locks,
		Credentials: settingsRepo,
		Audit:       activityRepo,
		LockFeed:    lockFeed,
		Dispatcher:  dispatcher,
	}, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	lockView := view.NewLockStateView(staffDir, presenceFeed, lockFeed,
		cfg.Presence.StaleThreshold(), cfg.Presence.ReevalInterval(), logger)
	defer lockView.Detach()
	board := view.NewStatusBoard(staffDir, presenceFeed, locks, cfg.Presence.StaleThreshold())

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), adminRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(authService)
	presenceHandler := handlers.NewPresenceHandler(presenceService, metrics)
	locksHandler := handlers.NewLocksHandler(lockView, coordinator, metrics)
	boardHandler := handlers.NewBoardHandler(board, activityRepo)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Presence:       presenceHandler,
		Locks:          locksHandler,
		Board:          boardHandler,
		AuthMiddleware: authMiddleware,
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
