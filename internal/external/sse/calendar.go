// Package sse scrapes the exchange's published trading-calendar pages.
// Exchange closure notices are fetched here and nowhere else; the sync
// job turns them into persisted holiday records.
package sse

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/wenhao/stockboard/backend/internal/calendar"
	"github.com/wenhao/stockboard/backend/pkg/config"
	"github.com/wenhao/stockboard/backend/pkg/httputil"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// Client scrapes closure notices from the exchange calendar page.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	limiter    *rate.Limiter
	loc        *time.Location
}

// NewClient creates an exchange calendar scraper. The limiter spaces
// page fetches out so the sync job never hammers the exchange site.
func NewClient(cfg *config.Config, log *logger.Logger, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	perMinute := cfg.Exchange.RatePerMinute
	if perMinute <= 0 {
		perMinute = 12
	}
	return &Client{
		httpClient: httputil.NewWithTimeout(cfg, log, cfg.Exchange.RequestTimeout),
		logger:     log.WithComponent("sse"),
		baseURL:    cfg.Exchange.BaseURL,
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		loc:        loc,
	}
}

var dateCellRe = regexp.MustCompile(`^(\d{4})[-/年](\d{1,2})[-/月](\d{1,2})日?$`)

// MonthClosures fetches and parses the closure table for one month.
// Rows outside the requested month are dropped; the page sometimes pads
// with the surrounding weeks.
func (c *Client) MonthClosures(ctx context.Context, year, month int) ([]calendar.DayRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	url := fmt.Sprintf("%s/market/tradingcalendar/?year=%d&month=%d", c.baseURL, year, month)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("calendar page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read calendar page: %w", err)
	}

	records, err := c.parseClosures(string(body), year, month)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"year":  year,
		"month": month,
		"count": len(records),
	}).Debug("Scraped exchange closures")

	return records, nil
}

// parseClosures extracts closure rows from the calendar HTML. The page
// structure: a table with class "calendar-table", one row per closure,
// first cell the date, second the closure type, third the reason.
func (c *Client) parseClosures(html string, year, month int) ([]calendar.DayRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse calendar HTML: %w", err)
	}

	table := doc.Find("table.calendar-table")
	if table.Length() == 0 {
		return nil, fmt.Errorf("calendar table not found")
	}

	var records []calendar.DayRecord

	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		date, ok := c.parseDateCell(strings.TrimSpace(cells.Eq(0).Text()))
		if !ok {
			return
		}
		if date.Year() != year || int(date.Month()) != month {
			return
		}

		kindText := strings.TrimSpace(cells.Eq(1).Text())
		reason := ""
		if cells.Length() >= 3 {
			reason = strings.TrimSpace(cells.Eq(2).Text())
		}

		kind := calendar.KindClosure
		if strings.Contains(kindText, "节") || strings.EqualFold(kindText, "holiday") {
			kind = calendar.KindHoliday
		}

		records = append(records, calendar.DayRecord{
			Date:   date,
			Kind:   kind,
			Reason: reason,
		})
	})

	return records, nil
}

// parseDateCell accepts 2024-01-01, 2024/01/01 and 2024年1月1日.
func (c *Client) parseDateCell(s string) (time.Time, bool) {
	m := dateCellRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	return calendar.Normalize(time.Date(year, time.Month(month), day, 12, 0, 0, 0, c.loc)), true
}
