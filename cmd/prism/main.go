package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusight/prism/internal/handler"
	"github.com/edusight/prism/internal/notify"
	"github.com/edusight/prism/internal/pipeline"
	"github.com/edusight/prism/internal/repository"
	"github.com/edusight/prism/internal/service"
	"github.com/edusight/prism/pkg/cache"
	"github.com/edusight/prism/pkg/config"
	"github.com/edusight/prism/pkg/database"
	"github.com/edusight/prism/pkg/logger"
	"github.com/edusight/prism/pkg/mail"
)

// @title Edusight Prism API
// @version 1.0
// @description Operator API for the Edusight Prism wellbeing rating service.
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	stores, err := database.NewStores(cfg.Database, cfg.Stores)
	if err != nil {
		log.Fatal("failed to open database stores", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	var cacheRepo *repository.CacheRepository
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		log.Warn("redis unavailable, caching and handoff offload disabled", zap.Error(err))
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient)
		defer func() { _ = cacheRepo.Close() }()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheService *service.CacheService
	if cacheRepo != nil {
		cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Pipeline.ResultCacheTTL, log)
	}

	studentRepo := repository.NewStudentRepository(stores.Default)
	configRepo := repository.NewConfigurationRepository(stores.Default)
	assessmentRepo := repository.NewAssessmentRepository(stores.Default)
	resultRepo := repository.NewResultRepository(stores.Default)
	batchRepo := repository.NewBatchRepository(stores.Default)
	analyticsRepo := repository.NewAnalyticsRepository(stores.Analytics)

	configService := service.NewConfigurationService(configRepo, validate, log)
	eprService := service.NewEPRService(assessmentRepo, resultRepo, cacheService, cfg.Pipeline.ResultCacheTTL, log)
	batchService := service.NewBatchService(studentRepo, batchRepo, configRepo, eprService, analyticsRepo, metrics, log)

	notifier := notify.NewNotifier(mail.NewLogSink(log), cfg.Alerts, log)
	notifier.Start(context.Background())
	defer notifier.Stop()

	var (
		reports        *service.ReportService
		exportsHandler *handler.ExportHandler
	)
	if cfg.Exports.Enabled {
		if err := os.MkdirAll(cfg.Exports.StorageDir, 0o755); err != nil {
			log.Fatal("failed to create exports directory", zap.Error(err))
		}
		reports = service.NewReportService(cfg.Exports.StorageDir, log)
		exportsHandler = handler.NewExportHandler(cfg.Exports.StorageDir)
	}

	dataDir := "."
	if cfg.Exports.Enabled {
		dataDir = cfg.Exports.StorageDir
	}
	health := pipeline.NewHealthChecker(map[string]pipeline.StorePinger{
		database.StoreDefault:         stores.Default,
		database.StoreAnalytics:       stores.Analytics,
		database.StorePredictionCache: stores.PredictionCache,
	}, dataDir, cfg.Pipeline.MinDiskBytes, cfg.Pipeline.MaxHeapBytes, log)

	handoff := pipeline.NewHandoff(cacheService, cfg.Pipeline.HandoffMaxItems, cfg.Pipeline.HandoffTTL, log)

	var renderer pipeline.ReportRenderer
	if reports != nil {
		renderer = reports
	}
	runner := pipeline.NewRunner(batchService, health, notifier, renderer, handoff, metrics, cfg.Pipeline, log)

	scheduler := pipeline.NewScheduler(runner, cfg.Pipeline.ScheduleAt, log)
	if cfg.Pipeline.Enabled {
		if err := scheduler.Start(context.Background()); err != nil {
			log.Fatal("failed to start pipeline scheduler", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	router := handler.NewRouter(handler.RouterDeps{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return stores.Default.PingContext(ctx)
		},
		Configurations: handler.NewConfigurationHandler(configService),
		Pipeline:       handler.NewPipelineHandler(runner, batchService, eprService, log),
		Analytics:      handler.NewAnalyticsHandler(analyticsRepo),
		Exports:        exportsHandler,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
