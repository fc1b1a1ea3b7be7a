// Package holidays persists and serves the authoritative market
// holiday data set backing the calendar resolver and the REST API.
package holidays

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wenhao/stockboard/backend/internal/calendar"
)

// Repository handles holiday persistence.
// Holiday rows are written here and nowhere else.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert writes the given records, replacing existing rows by date.
func (r *Repository) Upsert(ctx context.Context, records []calendar.DayRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO market.holidays (
			holiday_date,
			kind,
			reason,
			updated_at
		) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (holiday_date) DO UPDATE SET
			kind = EXCLUDED.kind,
			reason = EXCLUDED.reason,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query, rec.Date, string(rec.Kind), rec.Reason)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert holiday: %w", err)
		}
	}

	return nil
}

// ListMonth retrieves all records falling in the given month.
func (r *Repository) ListMonth(ctx context.Context, year, month int) ([]calendar.DayRecord, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return r.ListRange(ctx, first, first.AddDate(0, 1, -1))
}

// ListRange retrieves all records between from and to, inclusive.
func (r *Repository) ListRange(ctx context.Context, from, to time.Time) ([]calendar.DayRecord, error) {
	query := `
		SELECT holiday_date, kind, reason
		FROM market.holidays
		WHERE holiday_date >= $1 AND holiday_date <= $2
		ORDER BY holiday_date
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	var records []calendar.DayRecord
	for rows.Next() {
		var (
			date time.Time
			kind string
			rec  calendar.DayRecord
		)
		if err := rows.Scan(&date, &kind, &rec.Reason); err != nil {
			return nil, fmt.Errorf("scan holiday row: %w", err)
		}
		rec.Date = calendar.Normalize(date)
		rec.Kind = calendar.DayKind(kind)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holiday rows: %w", err)
	}

	return records, nil
}

// DeleteMonth removes all records in the given month. The sync job
// calls this before re-inserting a freshly scraped month.
func (r *Repository) DeleteMonth(ctx context.Context, year, month int) error {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	query := `
		DELETE FROM market.holidays
		WHERE holiday_date >= $1 AND holiday_date < $2
	`

	if _, err := r.db.Exec(ctx, query, first, first.AddDate(0, 1, 0)); err != nil {
		return fmt.Errorf("delete month: %w", err)
	}
	return nil
}
