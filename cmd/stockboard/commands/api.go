package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wenhao/stockboard/backend/internal/api"
	"github.com/wenhao/stockboard/backend/internal/api/handlers"
	"github.com/wenhao/stockboard/backend/internal/api/stream"
	"github.com/wenhao/stockboard/backend/internal/external/sse"
	"github.com/wenhao/stockboard/backend/internal/holidays"
	"github.com/wenhao/stockboard/backend/internal/scheduler"
	"github.com/wenhao/stockboard/backend/internal/scheduler/jobs"
	"github.com/wenhao/stockboard/backend/pkg/config"
	"github.com/wenhao/stockboard/backend/pkg/database"
	"github.com/wenhao/stockboard/backend/pkg/logger"
	"github.com/wenhao/stockboard/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server with the scheduled jobs.

Endpoints:
  GET  /health                         - Health check
  GET  /api/holidays/non-trading-days  - Non-trading days of a month
  GET  /api/holidays/check-date        - Trading status of one date
  GET  /api/holidays/range             - Non-trading days in a span
  GET  /api/trading/latest-date        - Latest trading date
  GET  /ws/calendar                    - Calendar event stream

Example:
  go run ./cmd/stockboard api
  go run ./cmd/stockboard api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (optional; the service degrades to DB-only)
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
	}
	var cache *redis.Cache
	if redisClient != nil && redisClient.Enabled() {
		cache = redis.NewCache(redisClient, "stockboard")
		defer redisClient.Close()
	}

	// 5. Create repository and service
	repo := holidays.NewRepository(db.Pool)
	service := holidays.NewService(repo, cache, cfg, log)

	// 6. Create handlers and event stream
	holidayHandler := handlers.NewHolidayHandler(service, log)
	tradingHandler := handlers.NewTradingHandler(service, log)
	hub := stream.NewHub(log)
	defer hub.Close()

	hub.SetSeed(func() (string, interface{}, bool) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		latest, err := service.LatestTradingDate(ctx)
		if err != nil {
			log.WithError(err).Warn("Latest-date seed unavailable for new subscriber")
			return "", nil, false
		}
		return stream.EventLatestDate, latest, true
	})

	// 7. Create router and server
	router := api.NewRouter(holidayHandler, tradingHandler, hub, log)
	server := api.New(cfg, log, router)

	// 8. Schedule the sync and rollover jobs
	sched := scheduler.New(log)
	scraper := sse.NewClient(cfg, log, time.Local)

	if err := sched.AddJob(jobs.NewHolidaySyncJob(scraper, repo, service, log)); err != nil {
		return fmt.Errorf("schedule holiday sync: %w", err)
	}
	if err := sched.AddJob(jobs.NewRolloverJob(service, hub, log)); err != nil {
		return fmt.Errorf("schedule rollover: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	// 9. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\nServer running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
