package analysts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockCouncil/internal/domain/models"
)

func analystServer(t *testing.T, signal, confidence float64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Ticker  string `json:"ticker"`
			Horizon string `json:"horizon"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ticker == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"directional_signal": signal,
			"confidence_score":   confidence,
			"summary":            "earnings momentum looks solid",
			"metrics":            map[string]interface{}{"pe_ratio": 24.1},
		})
	})
	mux.HandleFunc("/.well-known/agent-card.json", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"name":        "Fundamental Analyst",
			"description": "fundamentals agent",
			"version":     "1.0.0",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAnalyze(t *testing.T) {
	srv := analystServer(t, 0.4, 78)
	c := NewClient(models.AgentFundamental, srv.URL, WithTimeout(2*time.Second))

	rep, err := c.Analyze(context.Background(), "GOOGL", "next_quarter")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rep.AgentID != models.AgentFundamental {
		t.Errorf("agent = %s", rep.AgentID)
	}
	if rep.DirectionalSignal != 0.4 || rep.ConfidenceScore != 78 {
		t.Errorf("got signal=%v conf=%v", rep.DirectionalSignal, rep.ConfidenceScore)
	}
	if rep.Summary == "" {
		t.Error("summary not carried through")
	}
}

func TestClientRejectsOutOfRangeResponse(t *testing.T) {
	srv := analystServer(t, 1.5, 60)
	c := NewClient(models.AgentTechnical, srv.URL)

	_, err := c.Analyze(context.Background(), "GOOGL", "next_quarter")
	if err == nil {
		t.Fatal("expected validation error for signal outside [-1, 1]")
	}
	var invalid *models.InvalidReportError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want *InvalidReportError", err)
	}
	if invalid.Field != "directional_signal" {
		t.Errorf("field = %s", invalid.Field)
	}
}

func TestClientPing(t *testing.T) {
	srv := analystServer(t, 0, 50)
	c := NewClient(models.AgentFundamental, srv.URL)

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestClientPingUnreachable(t *testing.T) {
	c := NewClient(models.AgentMacro, "http://127.0.0.1:1", WithTimeout(200*time.Millisecond))
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected error for unreachable agent")
	}
}

func TestClientRetriesTransientFailures(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"directional_signal": -0.2,
			"confidence_score":   55,
			"summary":            "choppy price action",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(models.AgentTechnical, srv.URL, WithRetryMax(3))
	rep, err := c.Analyze(context.Background(), "AAPL", "next_week")
	if err != nil {
		t.Fatalf("analyze with retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if rep.DirectionalSignal != -0.2 {
		t.Errorf("signal = %v", rep.DirectionalSignal)
	}
}
