package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"phish_backend/internal/app/router"
	"phish_backend/internal/feature/detection/adapters"
	"phish_backend/internal/feature/detection/adapters/amqp"
	"phish_backend/internal/feature/detection/decision"
	detectionhandler "phish_backend/internal/feature/detection/transport/handler"
	"phish_backend/internal/feature/detection/usecase"
	"phish_backend/internal/platform/config"
	infradb "phish_backend/internal/platform/db"
	healthhandler "phish_backend/internal/platform/http/handler"
	infraredis "phish_backend/internal/platform/redis"
	"phish_backend/internal/platform/workerpool"
)

// App holds the wired service.
type App struct {
	Detection *usecase.DetectionUsecase
	Settings  *usecase.SettingsUsecase
	Router    *gin.Engine

	logger  *slog.Logger
	closers []func() error
}

// NewApp wires every component from cfg. Redis is optional: when it is not
// configured or unreachable, sessions live in the SQL database and domain
// resolutions are not cached.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	// db
	db, err := infradb.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	// Redis
	rdb := app.connectRedis(ctx, cfg.Redis)

	pool := workerpool.New(workerpool.WithWorkers(cfg.Pool.Workers), workerpool.WithLogger(logger))
	app.closers = append(app.closers, func() error {
		pool.Close()
		return nil
	})

	set, err := newDetectionMethods(ctx, cfg, rdb, pool, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, set.closers...)

	methods, err := usecase.NewMethodRegistry(set.methods...)
	if err != nil {
		return nil, err
	}
	strategies, err := usecase.NewStrategyRegistry(decision.All()...)
	if err != nil {
		return nil, err
	}

	archive, err := app.newArchive(db, cfg.AMQP)
	if err != nil {
		return nil, err
	}

	sessions := usecase.NewSessionCache(NewSessionStore(rdb, db, cfg.Session), NewWaitPolicy(cfg.Session))
	app.Detection = usecase.NewDetectionUsecase(sessions, methods, strategies, archive,
		usecase.WithURLOverride(cfg.Detection.AllowURLOverride),
		usecase.WithLogger(logger),
	)
	app.Settings = usecase.NewSettingsUsecase(adapters.NewSettingsRepository(db), methods, strategies)

	h := detectionhandler.NewDetectionHandler(app.Detection, app.Settings, logger)
	app.Router = router.NewRouter(healthhandler.Health(healthChecks(db, rdb)), h, router.Options{
		JWTSecret: cfg.Auth.JWTSecret,
		Logger:    logger,
	})
	return app, nil
}

func (a *App) connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		a.logger.Info("redis not configured, sessions are stored in the database")
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, cfg)
	if err != nil {
		a.logger.Warn("redis unavailable, running without cache", "addr", cfg.Addr(), "error", err)
		return nil
	}
	a.closers = append(a.closers, rdb.Close)
	return rdb
}

// newArchive stores audit records in db and, when an AMQP URL is set,
// also publishes them as verdict events.
func (a *App) newArchive(db *gorm.DB, cfg config.AMQPConfig) (usecase.Archive, error) {
	audit := adapters.NewAuditRepository(db)
	if cfg.URL == "" {
		return audit, nil
	}
	pub, err := amqp.Dial(cfg.URL, cfg.Exchange, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pub.Close)
	return adapters.NewFanoutArchive(a.logger, audit, pub), nil
}

func healthChecks(db *gorm.DB, rdb *redis.Client) map[string]healthhandler.Check {
	checks := map[string]healthhandler.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}
	return checks
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
