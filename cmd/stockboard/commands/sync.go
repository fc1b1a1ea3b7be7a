package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wenhao/stockboard/backend/internal/external/sse"
	"github.com/wenhao/stockboard/backend/internal/holidays"
	"github.com/wenhao/stockboard/backend/internal/scheduler/jobs"
	"github.com/wenhao/stockboard/backend/pkg/config"
	"github.com/wenhao/stockboard/backend/pkg/database"
	"github.com/wenhao/stockboard/backend/pkg/logger"
	"github.com/wenhao/stockboard/backend/pkg/redis"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the holiday sync once",
	Long: `Scrapes the exchange calendar for the current and upcoming
months, persists the records and invalidates the cached payloads.

Example:
  go run ./cmd/stockboard sync`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	var cache *redis.Cache
	if redisClient, err := redis.New(cfg); err != nil {
		log.WithError(err).Warn("Redis unavailable, skipping cache invalidation")
	} else if redisClient.Enabled() {
		cache = redis.NewCache(redisClient, "stockboard")
		defer redisClient.Close()
	}

	repo := holidays.NewRepository(db.Pool)
	service := holidays.NewService(repo, cache, cfg, log)
	scraper := sse.NewClient(cfg, log, time.Local)

	job := jobs.NewHolidaySyncJob(scraper, repo, service, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		return fmt.Errorf("holiday sync: %w", err)
	}

	fmt.Println("Holiday sync completed")
	return nil
}
