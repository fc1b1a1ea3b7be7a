package jobs

import (
	"context"

	"github.com/wenhao/stockboard/backend/internal/api/stream"
	"github.com/wenhao/stockboard/backend/internal/holidays"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// LatestDateProvider resolves the current latest trading date.
type LatestDateProvider interface {
	LatestTradingDate(ctx context.Context) (*holidays.LatestDate, error)
}

// Broadcaster pushes events to connected frontends.
type Broadcaster interface {
	Broadcast(eventType string, data interface{})
}

// RolloverJob announces the day's latest trading date to open pickers
// so they re-seed without a reload.
type RolloverJob struct {
	provider    LatestDateProvider
	broadcaster Broadcaster
	logger      *logger.Logger
}

// NewRolloverJob creates a new rollover job.
func NewRolloverJob(provider LatestDateProvider, broadcaster Broadcaster, log *logger.Logger) *RolloverJob {
	return &RolloverJob{
		provider:    provider,
		broadcaster: broadcaster,
		logger:      log,
	}
}

// Name returns the job name
func (j *RolloverJob) Name() string {
	return "calendar_rollover"
}

// Schedule returns the cron schedule (daily just after midnight)
func (j *RolloverJob) Schedule() string {
	return "0 1 0 * * *"
}

// Run resolves today's latest trading date and broadcasts it.
func (j *RolloverJob) Run(ctx context.Context) error {
	latest, err := j.provider.LatestTradingDate(ctx)
	if err != nil {
		return err
	}

	j.broadcaster.Broadcast(stream.EventLatestDate, latest)

	j.logger.WithField("latest_date", latest.LatestDate).Info("Calendar rollover broadcast")
	return nil
}
