package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wenhao/stockboard/backend/internal/calendar"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// ClosureSource fetches authoritative closure records for one month.
type ClosureSource interface {
	MonthClosures(ctx context.Context, year, month int) ([]calendar.DayRecord, error)
}

// HolidayWriter persists scraped records.
type HolidayWriter interface {
	Upsert(ctx context.Context, records []calendar.DayRecord) error
}

// CacheInvalidator drops cached month payloads after a rewrite.
type CacheInvalidator interface {
	InvalidateMonth(ctx context.Context, year, month int)
}

// monthsAhead is how far past the current month the sync looks. Two
// months keeps the picker's adjacent-month prefetch warm across a
// month boundary.
const monthsAhead = 2

// HolidaySyncJob refreshes the persisted holiday set from the exchange
// calendar pages.
type HolidaySyncJob struct {
	source      ClosureSource
	writer      HolidayWriter
	invalidator CacheInvalidator
	logger      *logger.Logger
	now         func() time.Time
}

// NewHolidaySyncJob creates a new holiday sync job.
func NewHolidaySyncJob(source ClosureSource, writer HolidayWriter, invalidator CacheInvalidator, log *logger.Logger) *HolidaySyncJob {
	return &HolidaySyncJob{
		source:      source,
		writer:      writer,
		invalidator: invalidator,
		logger:      log,
		now:         time.Now,
	}
}

// Name returns the job name
func (j *HolidaySyncJob) Name() string {
	return "holiday_sync"
}

// Schedule returns the cron schedule (daily at 5:30 AM, before the
// trading session opens)
func (j *HolidaySyncJob) Schedule() string {
	return "0 30 5 * * *"
}

// Run scrapes the current month and the months ahead, persists the
// records and drops the stale cache entries. A month that fails to
// scrape is skipped; the remaining months still sync.
func (j *HolidaySyncJob) Run(ctx context.Context) error {
	key := calendar.MonthKeyOf(j.now())

	var failed int
	for i := 0; i <= monthsAhead; i++ {
		if err := j.syncMonth(ctx, key); err != nil {
			j.logger.WithError(err).WithField("month", key.String()).Warn("Month sync failed")
			failed++
		}
		key = key.Next()
	}

	if failed > monthsAhead {
		return fmt.Errorf("all %d months failed to sync", failed)
	}
	return nil
}

func (j *HolidaySyncJob) syncMonth(ctx context.Context, key calendar.MonthKey) error {
	records, err := j.source.MonthClosures(ctx, key.Year, key.Month)
	if err != nil {
		return err
	}

	if err := j.writer.Upsert(ctx, records); err != nil {
		return err
	}

	if j.invalidator != nil {
		j.invalidator.InvalidateMonth(ctx, key.Year, key.Month)
	}

	j.logger.WithFields(map[string]interface{}{
		"month": key.String(),
		"count": len(records),
	}).Info("Month synced")

	return nil
}
