package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wenhao/stockboard/backend/internal/calendar"
	"github.com/wenhao/stockboard/backend/internal/holidays"
	"github.com/wenhao/stockboard/backend/pkg/config"
	"github.com/wenhao/stockboard/backend/pkg/database"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// calendarCmd groups calendar inspection commands
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Inspect the trading calendar",
	Long: `Queries the trading calendar from the command line.

Examples:
  go run ./cmd/stockboard calendar check 2024-01-01
  go run ./cmd/stockboard calendar next 2024-01-05
  go run ./cmd/stockboard calendar prev 2024-01-08
  go run ./cmd/stockboard calendar latest`,
}

var calendarCheckCmd = &cobra.Command{
	Use:   "check <date>",
	Short: "Show the trading status of one date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *holidays.Service, _ *calendar.Resolver) error {
			info, err := svc.CheckDate(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s)\n", info.Date, info.WeekdayName)
			if info.IsTradingDay {
				fmt.Println("  trading day")
				return nil
			}
			switch {
			case info.IsHoliday && info.HolidayName != "":
				fmt.Printf("  non-trading: %s\n", info.HolidayName)
			case info.IsHoliday:
				fmt.Println("  non-trading: exchange closure")
			default:
				fmt.Println("  non-trading: weekend")
			}
			return nil
		})
	},
}

var calendarNextCmd = &cobra.Command{
	Use:   "next <date>",
	Short: "Show the next trading day after a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return navigateFrom(args[0], 1)
	},
}

var calendarPrevCmd = &cobra.Command{
	Use:   "prev <date>",
	Short: "Show the previous trading day before a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return navigateFrom(args[0], -1)
	},
}

var calendarLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the latest trading date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *holidays.Service, _ *calendar.Resolver) error {
			latest, err := svc.LatestTradingDate(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("latest trading date: %s (today: %s)\n", latest.LatestDate, latest.CurrentDate)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarCheckCmd)
	calendarCmd.AddCommand(calendarNextCmd)
	calendarCmd.AddCommand(calendarPrevCmd)
	calendarCmd.AddCommand(calendarLatestCmd)
}

func navigateFrom(dateStr string, dir int) error {
	return withService(func(ctx context.Context, _ *holidays.Service, resolver *calendar.Resolver) error {
		from, err := calendar.ParseDate(dateStr, time.Local)
		if err != nil {
			return err
		}

		d, ok := resolver.Advance(ctx, from, dir)
		if !ok {
			return fmt.Errorf("no trading day found near %s", dateStr)
		}

		fmt.Printf("%s (%s)\n", calendar.FormatDashed.Format(d), calendar.WeekdayName(d))
		return nil
	})
}

// withService wires the database-backed service and a resolver over it,
// runs fn, and tears everything down.
func withService(fn func(context.Context, *holidays.Service, *calendar.Resolver) error) error {
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

	repo := holidays.NewRepository(db.Pool)
	service := holidays.NewService(repo, nil, cfg, log)
	resolver := calendar.NewResolver(service, log, time.Local)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return fn(ctx, service, resolver)
}
