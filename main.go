package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"

	database "github.com/FACorreiaa/go-place-discovery/app/db"
	appLogger "github.com/FACorreiaa/go-place-discovery/app/logger"
	appMiddleware "github.com/FACorreiaa/go-place-discovery/app/middleware"
	appmetrics "github.com/FACorreiaa/go-place-discovery/app/observability/metrics"
	"github.com/FACorreiaa/go-place-discovery/app/tracer"
	"github.com/FACorreiaa/go-place-discovery/config"
	"github.com/FACorreiaa/go-place-discovery/internal/api/discover"
	generativeAI "github.com/FACorreiaa/go-place-discovery/internal/api/generative_ai"
	"github.com/FACorreiaa/go-place-discovery/internal/api/imagesearch"
	"github.com/FACorreiaa/go-place-discovery/internal/api/place"
	"github.com/FACorreiaa/go-place-discovery/internal/api/quota"
	api "github.com/FACorreiaa/go-place-discovery/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	appmetrics.InitAppMetrics()

	// --- Database ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Redis (quota ledger) ---
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Repositories.Redis.Addr,
		Password: cfg.Repositories.Redis.Password,
		DB:       cfg.Repositories.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis not reachable at startup, quota checks will fail open", slog.Any("error", err))
	}

	// --- AI client ---
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.Gemini.Model)
	if err != nil {
		logger.Error("Failed to create AI client", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency wiring ---
	m := appmetrics.Get()
	lexicon := discover.DefaultLexicon()
	placeRepo := place.NewRepository(pool, logger)
	ledger := quota.NewRedisLedger(redisClient, cfg.Quota.DailyLimit, logger)
	imageClient := imagesearch.NewHTTPClient(cfg.ImageSearch.BaseURL, cfg.ImageSearch.APIKey, cfg.ImageSearch.Timeout, logger)

	persistWorker := discover.NewPersistWorker(placeRepo, cfg.Search.ProximityDegrees, logger, m)
	persistWorker.Start()

	searchService := discover.NewSearchService(
		aiClient,
		discover.NewQueryParser(lexicon),
		discover.NewMatcher(placeRepo, cfg.Search, logger),
		discover.NewSupplementer(placeRepo, lexicon, logger),
		discover.NewSummaryGenerator(aiClient, cfg.Search, cfg.Gemini.Temperature, logger),
		discover.NewImageBackfiller(imageClient, cfg.Search.ImageBackfillLimit, cfg.Search.ImageTimeout, logger, m),
		persistWorker,
		ledger,
		cfg.Search,
		cfg.Gemini.Temperature,
		cfg.Quota.DailyLimit,
		m,
		logger,
	)
	searchHandler := discover.NewSearchHandler(searchService, m, logger)

	// --- Router ---
	routerConfig := &api.Config{
		SearchHandler:                  searchHandler,
		AuthenticateOptionalMiddleware: appMiddleware.AuthenticateOptional,
	}
	mainRouter := api.SetupRouter(routerConfig)

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(cfg.Server.Timeout))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	// Drain pending best-effort place writes before closing the pool.
	persistWorker.Stop()

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
