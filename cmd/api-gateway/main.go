package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/careloop/scheduling-api/api/swagger"
	"github.com/careloop/scheduling-api/internal/handler"
	"github.com/careloop/scheduling-api/internal/middleware"
	"github.com/careloop/scheduling-api/internal/repository"
	"github.com/careloop/scheduling-api/internal/service"
	"github.com/careloop/scheduling-api/pkg/cache"
	"github.com/careloop/scheduling-api/pkg/config"
	"github.com/careloop/scheduling-api/pkg/database"
	"github.com/careloop/scheduling-api/pkg/jobs"
	"github.com/careloop/scheduling-api/pkg/logger"
	corsmiddleware "github.com/careloop/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/careloop/scheduling-api/pkg/middleware/requestid"
	"github.com/careloop/scheduling-api/pkg/storage"
)

// @title Careloop Scheduling API
// @version 1.0.0
// @description Clinic appointment scheduling optimization service
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	// Postgres and Redis are optional at boot: without them the optimizer
	// degrades to default patterns and uncached capacity plans.
	var db *sqlx.DB
	var outcomes service.OutcomeReader
	db, err = database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Warn("postgres unavailable, historical patterns will use defaults", zap.Error(err))
	} else {
		defer db.Close()
		outcomes = repository.NewOutcomeRepository(db)
	}

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, payload caching disabled", zap.Error(err))
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.ResultCacheTTL, logr, true)
	}

	riskCache := service.NewRiskAssessmentCache(cfg.Risk.CacheTTL, logr)
	riskCache.StartSweeper(ctx, cfg.Risk.SweepInterval)
	defer riskCache.Stop()

	dispatcher := service.NewQueueAlertDispatcher(service.NewLoggingNotifier(logr), jobs.QueueConfig{
		Workers:    cfg.Alerts.Workers,
		MaxRetries: cfg.Alerts.MaxRetries,
		RetryDelay: cfg.Alerts.RetryDelay,
		Logger:     logr,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// The prediction service is optional; without a configured URL every
	// assessment uses the heuristic estimator.
	var oracle service.RiskPredictor
	if cfg.Risk.OracleURL != "" {
		oracle = service.NewOracleClient(service.OracleClientConfig{
			BaseURL: cfg.Risk.OracleURL,
			APIKey:  cfg.Risk.OracleAPIKey,
			Timeout: cfg.Risk.OracleTimeout,
		})
		logr.Info("risk oracle enabled", zap.String("url", cfg.Risk.OracleURL))
	} else {
		logr.Info("risk oracle not configured, assessments use the heuristic estimator")
	}

	riskSvc := service.NewRiskService(oracle, riskCache, dispatcher, metricsSvc, logr, service.RiskServiceConfig{
		BatchChunkSize: cfg.Risk.BatchChunkSize,
		OracleTimeout:  cfg.Risk.OracleTimeout,
		AlertCooldown:  cfg.Alerts.Cooldown,
	})

	var patterns service.PatternLoader
	if outcomes != nil {
		patterns = service.NewPatternService(outcomes, cacheSvc, cfg.Scheduler.ResultCacheTTL, logr)
	}

	optimizer := service.NewScheduleOptimizerService(
		service.NewSlotGenerator(),
		service.NewAssignmentEngine(
			service.NewSlotScorer(service.DefaultScoreWeights(), cfg.Scheduler.SlotGranularityMinutes),
			cfg.Scheduler.SlotGranularityMinutes,
		),
		riskSvc,
		patterns,
		metricsSvc,
		logr,
		service.OptimizerConfig{
			SlotGranularityMinutes: cfg.Scheduler.SlotGranularityMinutes,
			AverageRevenue:         cfg.Scheduler.AverageRevenue,
			MaxRequestsPerCall:     cfg.Scheduler.MaxRequestsPerCall,
		},
	)

	planner := service.NewCapacityPlannerService(patterns, cacheSvc, logr, service.CapacityPlannerConfig{
		BaselineSlots: cfg.Capacity.BaselineSlots,
		DefaultTarget: cfg.Capacity.TargetDefaults,
		CacheTTL:      cfg.Capacity.CacheTTL,
	})

	exporter := service.NewCapacityExportService(nil, nil)
	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Warn("export directory unavailable, archived exports disabled", zap.Error(err))
	} else {
		exporter = exporter.WithArchive(exportStore, storage.NewSignedURLSigner(cfg.Export.SignSecret, cfg.Export.LinkTTL))
		go func() {
			ticker := time.NewTicker(cfg.Export.LinkTTL)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					removed, err := exportStore.CleanupOlderThan(cfg.Export.LinkTTL)
					if err != nil {
						logr.Warn("export cleanup failed", zap.Error(err))
					} else if len(removed) > 0 {
						logr.Sugar().Infow("expired exports removed", "count", len(removed))
					}
				}
			}
		}()
	}

	optimizerHandler := handler.NewOptimizerHandler(optimizer)
	capacityHandler := handler.NewCapacityHandler(planner, exporter)
	riskHandler := handler.NewRiskHandler(riskSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/schedule/optimize", optimizerHandler.Optimize)
		api.GET("/capacity/plan", capacityHandler.Plan)
		api.DELETE("/capacity/plan", capacityHandler.Refresh)
		api.GET("/capacity/plan/export", capacityHandler.Export)
		api.GET("/capacity/exports/:token", capacityHandler.Download)
		api.GET("/risk/appointments/:id", riskHandler.Get)
		api.DELETE("/risk/appointments/:id", riskHandler.Delete)
		api.POST("/risk/batch", riskHandler.Batch)
		api.GET("/system/metrics", metricsHandler.Snapshot)
	}

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
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}
