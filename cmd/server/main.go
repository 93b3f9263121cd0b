package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/api"
	"github.com/finlens/macrobeta-go/internal/clients/equity"
	"github.com/finlens/macrobeta-go/internal/clients/fred"
	"github.com/finlens/macrobeta-go/internal/config"
	"github.com/finlens/macrobeta-go/internal/database"
	"github.com/finlens/macrobeta-go/internal/logging"
	"github.com/finlens/macrobeta-go/internal/middleware"
	"github.com/finlens/macrobeta-go/internal/services"
	"github.com/finlens/macrobeta-go/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	ctx := context.Background()

	provider, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to shut down telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		hook, err := logging.NewOTelHook(ctx, cfg.Telemetry.ServiceName, cfg.Environment, cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("failed to initialize log export: %w", err)
		}
		logger.AddHook(hook)
		defer func() {
			if err := hook.Shutdown(context.Background()); err != nil {
				logger.WithError(err).Error("Failed to flush exported logs")
			}
		}()
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store := database.NewFactStore(database.NewTracedPool(db.Pool))

	fredClient := fred.NewClient(&cfg.FRED)
	equityClient := equity.NewClient(&cfg.Fundamentals)

	merger := services.NewMergeEngine(services.NewPolicyTable(cfg.Analysis.RateSeries))
	analysisService := services.NewAnalysisService(store, merger, logger)
	trendService := services.NewTrendService(store, merger, cfg.Analysis.TrendSmoothingWindow, logger)
	leversService := services.NewLeversService(fredClient, equityClient, logger)
	scenarioService := services.NewScenarioService(store, merger, leversService, logger)
	ingestionService := services.NewIngestionService(store, equityClient, fredClient, cfg.Ingest, logger)
	uploadService := services.NewUploadService(logger)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Tracing(cfg.Telemetry.ServiceName))

	api.SetupRoutes(router, db, store, cfg, analysisService, trendService, scenarioService, ingestionService, leversService, uploadService, equityClient, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Environment,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}
