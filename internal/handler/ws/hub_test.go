package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockCouncil/internal/domain/models"
	applogger "StockCouncil/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(testLogger(t))
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/recommendations"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func awaitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.count() == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub has %d clients, want %d", hub.count(), n)
}

func TestHubBroadcastReachesSubscriber(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	awaitClients(t, hub, 1)

	hub.Broadcast(&models.Recommendation{Ticker: "AAPL", Action: models.ActionBuy})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev struct {
		Type    string                `json:"type"`
		Payload models.Recommendation `json:"payload"`
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != "recommendation" || ev.Payload.Ticker != "AAPL" {
		t.Errorf("event = %+v", ev)
	}
}

// A subscriber that never reads must not hold up delivery to the others.
func TestHubStalledClientDoesNotBlockBroadcast(t *testing.T) {
	hub, srv := startHub(t)
	stalled := dial(t, srv)
	_ = stalled // connected, never reads
	healthy := dial(t, srv)
	awaitClients(t, hub, 2)

	const n = 50
	done := make(chan struct{})
	go func() {
		for i := 0; i < n; i++ {
			hub.Broadcast(&models.Recommendation{Ticker: "MSFT"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a stalled client")
	}

	_ = healthy.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := healthy.ReadMessage(); err != nil {
		t.Fatalf("healthy client got nothing: %v", err)
	}
}

func TestHubRemovesClientOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	awaitClients(t, hub, 1)

	conn.Close()
	awaitClients(t, hub, 0)

	// Broadcasting with no subscribers is a no-op, not a panic.
	hub.Broadcast(&models.Recommendation{Ticker: "NVDA"})
}
