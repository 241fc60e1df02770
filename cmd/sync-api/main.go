package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/coursework-sync/api/swagger"
	"github.com/noah-isme/coursework-sync/internal/handler"
	"github.com/noah-isme/coursework-sync/internal/middleware"
	"github.com/noah-isme/coursework-sync/internal/repository"
	"github.com/noah-isme/coursework-sync/internal/scheduler"
	"github.com/noah-isme/coursework-sync/internal/service"
	"github.com/noah-isme/coursework-sync/pkg/cache"
	"github.com/noah-isme/coursework-sync/pkg/config"
	"github.com/noah-isme/coursework-sync/pkg/database"
	"github.com/noah-isme/coursework-sync/pkg/jobs"
	"github.com/noah-isme/coursework-sync/pkg/logger"
	corsmiddleware "github.com/noah-isme/coursework-sync/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/coursework-sync/pkg/middleware/requestid"
	"github.com/noah-isme/coursework-sync/pkg/secret"
)

// @title Coursework Sync API
// @version 1.0.0
// @description Copies Canvas assignments into a Notion database.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
		if cfg.Settings.EncryptionKey == "" {
			logr.Fatal("SETTINGS_ENCRYPTION_KEY is required in production")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	redisClient, cacheSvc := newCache(cfg, metricsSvc, logr)
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	box := secret.NewBox(cfg.Settings.EncryptionKey)
	settingsRepo := repository.NewSettingsRepository(db)
	historyRepo := repository.NewSyncHistoryRepository(db)

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})
	settingsSvc := service.NewSettingsService(settingsRepo, box, validate, logr).WithCache(cacheSvc)
	syncSvc := service.NewSyncService(
		settingsRepo,
		historyRepo,
		service.HTTPAdapterFactory{Canvas: cfg.Canvas, Notion: cfg.Notion},
		box,
		cacheSvc,
		metricsSvc,
		validate,
		logr,
		service.SyncConfig{
			UTCOffsetHours:   cfg.Sync.UTCOffsetHours,
			MatricYear:       cfg.Sync.MatricYear,
			CalendarYears:    cfg.Sync.CalendarYears,
			ErrorDetailLimit: cfg.Sync.ErrorDetailLimit,
			ResultCacheTTL:   cfg.Sync.ResultCacheTTL,
		},
	)
	exportSvc := service.NewExportService(historyRepo, logr)

	if cfg.Worker.Enabled {
		queue := jobs.NewQueue("sync", syncSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Worker.Concurrency,
			MaxRetries: cfg.Worker.Retries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		syncSvc.SetQueue(queue)
	}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler.Cron, syncSvc, 0, logr)
		if err != nil {
			logr.Fatal("failed to configure scheduler", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	syncHandler := handler.NewSyncHandler(syncSvc, exportSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	calendarHandler := handler.NewCalendarHandler(syncSvc)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.GET("/calendar/resolve", middleware.OptionalJWT(authSvc), calendarHandler.Resolve)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))
	secured.POST("/sync", syncHandler.Sync)
	secured.POST("/sync/async", syncHandler.Async)
	secured.GET("/sync/latest", syncHandler.Latest)
	secured.GET("/sync/history", syncHandler.History)
	secured.GET("/sync/history/export", syncHandler.Export)
	secured.POST("/databases", syncHandler.CreateDatabase)
	secured.GET("/settings", settingsHandler.Get)
	secured.PUT("/settings", settingsHandler.Update)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// newCache connects to Redis. Without it the service still runs and serves the latest
// result from history.
func newCache(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*redis.Client, *service.CacheService) {
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, result cache disabled", zap.Error(err))
		return nil, service.NewCacheService(nil, metrics, cfg.Sync.ResultCacheTTL, logr, false)
	}
	repo := repository.NewCacheRepository(client, logr)
	return client, service.NewCacheService(repo, metrics, cfg.Sync.ResultCacheTTL, logr, true)
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}
