package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cropstech/crops-backend/config"
	"github.com/cropstech/crops-backend/internal/api"
	"github.com/cropstech/crops-backend/internal/api/handler"
	"github.com/cropstech/crops-backend/internal/cache"
	"github.com/cropstech/crops-backend/internal/repository"
	"github.com/cropstech/crops-backend/internal/service"
	"github.com/cropstech/crops-backend/pkg/database"
	"github.com/cropstech/crops-backend/pkg/logger"
	"github.com/cropstech/crops-backend/pkg/mailer"
	"github.com/cropstech/crops-backend/pkg/tracing"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// @title Crops Notification API
// @version 1.0
// @description Notification and board-follow API for the Crops digital asset manager.
func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing := must(tracing.Init(ctx, "crops-backend", cfg.Tracing.Endpoint))
	defer func() { _ = shutdownTracing(ctx) }()

	db := must(database.InitDB(cfg))

	var audience *cache.FollowerCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		audience = cache.NewFollowerCache(rdb, cfg.Redis.TTL)
	}

	followRepo := repository.NewFollowRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	digestRepo := repository.NewDigestRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	eventRepo := repository.NewEventRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	mail := mailer.New(cfg)
	engine := service.NewAutoFollowEngine(followRepo, boardRepo, audience)
	digest := service.NewDigestService(digestRepo, notifRepo, prefRepo, activityRepo, mail, cfg.Notify.DigestTick)
	dispatcher := service.NewDispatcher(
		eventRepo, followRepo, boardRepo, prefRepo, notifRepo, digestRepo, activityRepo,
		engine, digest, audience,
		cfg.Notify.DispatchWorkers, cfg.Notify.ClaimLimit, cfg.Notify.PollInterval,
	)

	stopDispatcher := dispatcher.Start()
	stopDigest := digest.Start()

	h := handler.New(
		service.NewFollowService(followRepo, boardRepo, audience),
		service.NewNotificationService(notifRepo),
		service.NewPreferenceService(prefRepo),
		service.NewIngestService(eventRepo),
	)
	router := api.NewRouter(cfg, h)

	errCh := make(chan error, 1)
	go func() { errCh <- router.Run(":" + cfg.Server.Port) }()
	logger.Info("server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Error("server stopped", zap.Error(err))
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = stopDispatcher(shutdownCtx)
	_ = stopDigest(shutdownCtx)
}
