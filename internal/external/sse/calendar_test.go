package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wenhao/stockboard/backend/internal/calendar"
	"github.com/wenhao/stockboard/backend/pkg/config"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

const calendarPage = `<!DOCTYPE html>
<html>
<body>
<div class="content">
  <table class="calendar-table">
    <thead>
      <tr><th>日期</th><th>类型</th><th>说明</th></tr>
    </thead>
    <tbody>
      <tr><td>2024-01-01</td><td>节假日</td><td>元旦</td></tr>
      <tr><td>2024年1月31日</td><td>休市</td><td></td></tr>
      <tr><td>2023/12/29</td><td>休市</td><td>年末结算</td></tr>
      <tr><td>not a date</td><td>休市</td><td></td></tr>
      <tr><td colspan="3">无数据</td></tr>
    </tbody>
  </table>
</div>
</body>
</html>`

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Exchange: config.ExchangeConfig{
			BaseURL:        srv.URL,
			RatePerMinute:  600,
			RequestTimeout: 5 * time.Second,
		},
	}
	return NewClient(cfg, logger.New(cfg), time.UTC)
}

func TestMonthClosures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/market/tradingcalendar/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(calendarPage))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	records, err := c.MonthClosures(context.Background(), 2024, 1)
	if err != nil {
		t.Fatalf("MonthClosures failed: %v", err)
	}

	// The December row, the malformed row and the colspan filler are
	// all dropped.
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}

	if records[0].Kind != calendar.KindHoliday || records[0].Reason != "元旦" {
		t.Errorf("record[0] = %+v, want holiday 元旦", records[0])
	}
	if got := records[0].Date.Format("2006-01-02"); got != "2024-01-01" {
		t.Errorf("record[0] date = %s, want 2024-01-01", got)
	}

	if records[1].Kind != calendar.KindClosure {
		t.Errorf("record[1] kind = %s, want closure", records[1].Kind)
	}
	if got := records[1].Date.Format("2006-01-02"); got != "2024-01-31" {
		t.Errorf("record[1] date = %s, want 2024-01-31", got)
	}
}

func TestMonthClosuresMissingTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>维护中</p></body></html>`))
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv).MonthClosures(context.Background(), 2024, 1); err == nil {
		t.Error("expected an error when the calendar table is missing")
	}
}

func TestMonthClosuresNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv).MonthClosures(context.Background(), 2024, 1); err == nil {
		t.Error("expected an error on status 404")
	}
}

func TestParseDateCell(t *testing.T) {
	c := &Client{loc: time.UTC}

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-01", "2024-01-01", true},
		{"2024/01/01", "2024-01-01", true},
		{"2024年1月1日", "2024-01-01", true},
		{"2024年12月31日", "2024-12-31", true},
		{"2024-1-5", "2024-01-05", true},
		{"2024-13-01", "", false},
		{"01-01", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := c.parseDateCell(tt.in)
		if ok != tt.ok {
			t.Errorf("parseDateCell(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok {
			if s := got.Format("2006-01-02"); s != tt.want {
				t.Errorf("parseDateCell(%q) = %s, want %s", tt.in, s, tt.want)
			}
		}
	}
}
