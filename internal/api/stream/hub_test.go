package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wenhao/stockboard/backend/pkg/config"
	"github.com/wenhao/stockboard/backend/pkg/logger"
)

func testHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	log := logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
	})
	hub := NewHub(log)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	hub, srv := testHub(t)

	conns := []*websocket.Conn{dial(t, srv), dial(t, srv)}
	waitForClients(t, hub, 2)

	hub.Broadcast(EventLatestDate, map[string]string{"latest_date": "2024-01-12"})

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("conn %d read failed: %v", i, err)
		}

		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("conn %d: malformed event %q: %v", i, msg, err)
		}
		if ev.Type != EventLatestDate {
			t.Errorf("conn %d: event type = %s, want %s", i, ev.Type, EventLatestDate)
		}
		if ev.Timestamp.IsZero() {
			t.Errorf("conn %d: event missing timestamp", i)
		}
	}
}

func TestSeedPushedOnConnect(t *testing.T) {
	hub, srv := testHub(t)
	hub.SetSeed(func() (string, interface{}, bool) {
		return EventLatestDate, map[string]string{"latest_date": "2024-01-12"}, true
	})

	conn := dial(t, srv)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("malformed seed event %q: %v", msg, err)
	}
	if ev.Type != EventLatestDate {
		t.Errorf("seed event type = %s, want %s", ev.Type, EventLatestDate)
	}
}

func TestDisconnectedClientIsRemoved(t *testing.T) {
	hub, srv := testHub(t)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}
