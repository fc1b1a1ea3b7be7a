// Package holidayapi is the widget-side HTTP client for the holiday
// endpoints: the month non-trading-day feed and the latest-trading-date
// seed. Non-trading-day data is fetched here and nowhere else.
package holidayapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/wenhao/stockboard/backend/internal/calendar"
	"github.com/wenhao/stockboard/backend/pkg/config"
	"github.com/wenhao/stockboard/backend/pkg/httputil"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

// Client talks to the holiday REST endpoints. It satisfies both
// calendar.HolidaySource and picker.LatestDateSource.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	loc        *time.Location
}

// NewClient creates a holiday API client. Retries are disabled: a
// failed month fetch stays uncached in the resolver, so the next
// navigation retries naturally and a retry storm here would only pile
// onto an unhealthy backend.
func NewClient(cfg *config.Config, log *logger.Logger, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		httpClient: httputil.NewWithTimeout(cfg, log, cfg.HolidayAPI.Timeout).DisableRetry(),
		logger:     log.WithComponent("holidayapi"),
		baseURL:    cfg.HolidayAPI.BaseURL,
		loc:        loc,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type monthPayload struct {
	NonTradingDays []nonTradingDay `json:"non_trading_days"`
}

type nonTradingDay struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Reason      string `json:"reason"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type latestDatePayload struct {
	LatestDate string `json:"latest_date"`
}

// NonTradingDays fetches the authoritative non-trading records for one
// month. Weekend entries are dropped: the weekend rule is computed
// locally and a payload echoing it back carries no information.
func (c *Client) NonTradingDays(ctx context.Context, year, month int) ([]calendar.DayRecord, error) {
	endpoint := fmt.Sprintf("%s/api/holidays/non-trading-days?year=%d&month=%d",
		c.baseURL, year, month)

	var payload monthPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch non-trading days %04d-%02d: %w", year, month, err)
	}

	var records []calendar.DayRecord
	for _, d := range payload.NonTradingDays {
		if d.Type == "weekend" {
			continue
		}

		date, err := calendar.ParseDate(d.Date, c.loc)
		if err != nil {
			return nil, fmt.Errorf("malformed date %q in month payload: %w", d.Date, err)
		}

		kind := calendar.KindClosure
		if d.Type == "holiday" {
			kind = calendar.KindHoliday
		}

		reason := d.Reason
		if reason == "" {
			reason = d.Name
		}
		if reason == "" {
			reason = d.Description
		}

		records = append(records, calendar.DayRecord{Date: date, Kind: kind, Reason: reason})
	}

	c.logger.WithFields(map[string]interface{}{
		"year":  year,
		"month": month,
		"count": len(records),
	}).Debug("Fetched non-trading days")

	return records, nil
}

// LatestTradingDate fetches the most recent trading date the backend
// knows about.
func (c *Client) LatestTradingDate(ctx context.Context) (time.Time, error) {
	endpoint := c.baseURL + "/api/trading/latest-date"

	var payload latestDatePayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return time.Time{}, fmt.Errorf("fetch latest trading date: %w", err)
	}
	if payload.LatestDate == "" {
		return time.Time{}, fmt.Errorf("latest-date payload missing latest_date")
	}

	d, err := calendar.ParseDate(payload.LatestDate, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed latest_date %q: %w", payload.LatestDate, err)
	}
	return d, nil
}

// getJSON performs a GET and unmarshals the success envelope into dest.
// Any deviation from the {success, data} contract is an error.
func (c *Client) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	if _, err := url.Parse(endpoint); err != nil {
		return fmt.Errorf("bad endpoint: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope (status %d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("api error (status %d, code %s): %s", resp.StatusCode, env.Code, env.Error)
		}
		return fmt.Errorf("api error (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("envelope missing data")
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode data payload: %w", err)
	}
	return nil
}
