package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-signal-engine/internal/entity"
	"crypto-signal-engine/internal/signal/config"
	delivery "crypto-signal-engine/internal/signal/delivery/http"
	"crypto-signal-engine/internal/signal/dto"
	"crypto-signal-engine/internal/signal/repository"
	"crypto-signal-engine/internal/signal/service"
	"crypto-signal-engine/pkg/logger"
	"crypto-signal-engine/pkg/postgres"
	"crypto-signal-engine/pkg/redis"
	"crypto-signal-engine/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the signal service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Signal Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize market-data repositories
	marketDataRepo, err := repository.NewBinanceRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Binance repository", logger.ErrorField(err))
	}
	globalMetricsRepo, err := repository.NewCoinGeckoRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize CoinGecko repository", logger.ErrorField(err))
	}

	// Initialize AI provider
	var aiRepo repository.AIRepository
	switch cfg.AI.Provider {
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
		}
		aiRepo, err = repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI repository", logger.ErrorField(err))
		}
	default:
		aiRepo, err = repository.NewDeepSeekAIRepository(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize DeepSeek AI repository", logger.ErrorField(err))
		}
	}

	// Initialize database repositories
	signalRepo := repository.NewTradingSignalRepository(db.DB)
	predictionRepo := repository.NewPredictionRepository(db.DB)
	portfolioRepo := repository.NewPortfolioRepository(db.DB)
	metricRepo := repository.NewPerformanceMetricRepository(db.DB)

	// Initialize Telegram notifier and the event dispatcher
	notifier := telegram.NewNoop()
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram client", logger.ErrorField(err))
		}
	} else {
		appLogger.Warn("Telegram bot token not configured, notifications disabled")
	}
	dispatcher := service.NewDispatcher(appLogger, notifier, redisClient, cfg.Engine.AlertResendThreshold)
	defer dispatcher.Close()

	// Initialize services
	trackerSvc := service.NewPerformanceTrackerService(cfg, appLogger, predictionRepo, metricRepo)
	generatorSvc := service.NewSignalGeneratorService(cfg, appLogger, marketDataRepo, globalMetricsRepo, aiRepo, trackerSvc)
	managerSvc := service.NewSignalManagerService(cfg, appLogger, signalRepo, marketDataRepo, dispatcher)
	autoGenSvc := service.NewAutoGeneratorService(cfg, appLogger, generatorSvc, managerSvc)
	portfolioSvc := service.NewPortfolioService(cfg, appLogger, signalRepo, portfolioRepo, dispatcher)
	outcomeSvc := service.NewOutcomeCheckerService(cfg, appLogger, predictionRepo, marketDataRepo, trackerSvc)

	// Register and start the periodic jobs
	runner := service.NewJobRunner(appLogger, dispatcher)
	if err := registerJobs(runner, cfg, autoGenSvc, managerSvc, portfolioSvc, outcomeSvc); err != nil {
		appLogger.Fatal("Failed to register jobs", logger.ErrorField(err))
	}
	runner.Start()
	defer runner.Stop()

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	signalHandler := delivery.NewSignalHandler(generatorSvc, autoGenSvc, managerSvc, appLogger)
	signalsGroup := apiV1.Group("/signals")
	signalHandler.RegisterRoutes(signalsGroup)

	performanceHandler := delivery.NewPerformanceHandler(cfg, trackerSvc, portfolioSvc, appLogger)
	performanceHandler.RegisterRoutes(apiV1)

	jobHandler := delivery.NewJobHandler(runner, appLogger)
	jobsGroup := apiV1.Group("/jobs")
	jobHandler.RegisterRoutes(jobsGroup)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Version: cfg.App.Version})
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// registerJobs wires every periodic job to its cron expression from the
// scheduler config. An empty expression registers the job for manual
// triggering only.
func registerJobs(runner service.JobRunner, cfg *config.Config,
	autoGenSvc service.AutoGeneratorService,
	managerSvc service.SignalManagerService,
	portfolioSvc service.PortfolioService,
	outcomeSvc service.OutcomeCheckerService) error {

	jobs := []struct {
		name     string
		schedule string
		fn       service.JobFunc
	}{
		{"auto_generate", cfg.Scheduler.AutoGenerate, func(ctx context.Context) (string, error) {
			result, err := autoGenSvc.Run(ctx)
			if err != nil {
				return "", err
			}
			if result.SignalsCreated == 0 {
				return "", nil
			}
			return fmt.Sprintf("Created %d signal(s), skipped %d coin(s)", result.SignalsCreated, len(result.Skipped)), nil
		}},
		{"update_prices", cfg.Scheduler.UpdatePrices, func(ctx context.Context) (string, error) {
			_, err := managerSvc.UpdateAll(ctx)
			return "", err
		}},
		{"daily_summary", cfg.Scheduler.DailySummary, func(ctx context.Context) (string, error) {
			return "", portfolioSvc.SendDailySummary(ctx)
		}},
	}

	checks := []struct {
		name     string
		schedule string
		horizon  entity.Horizon
	}{
		{"check_1h", cfg.Scheduler.Check1H, entity.Horizon1H},
		{"check_4h", cfg.Scheduler.Check4H, entity.Horizon4H},
		{"check_24h", cfg.Scheduler.Check24H, entity.Horizon24H},
		{"check_48h", cfg.Scheduler.Check48H, entity.Horizon48H},
		{"check_7d", cfg.Scheduler.Check7D, entity.Horizon7D},
	}
	for _, check := range checks {
		horizon := check.horizon
		jobs = append(jobs, struct {
			name     string
			schedule string
			fn       service.JobFunc
		}{check.name, check.schedule, func(ctx context.Context) (string, error) {
			_, err := outcomeSvc.Check(ctx, horizon)
			return "", err
		}})
	}

	for _, job := range jobs {
		if err := runner.Register(job.name, job.schedule, job.fn); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	rootCmd := &cobra.Command{Use: "signal-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing signal-service CLI: %s\n", err)
		os.Exit(1)
	}
}
