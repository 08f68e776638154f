package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"StockCouncil/internal/domain/models"
	"StockCouncil/internal/domain/service"
	"StockCouncil/pkg/cache"
	applogger "StockCouncil/pkg/logger"
)

type fakeAnalyst struct {
	id     models.AgentID
	signal float64
	conf   float64
	err    error
	calls  int64
}

func (f *fakeAnalyst) ID() models.AgentID { return f.id }

func (f *fakeAnalyst) Analyze(_ context.Context, _, _ string) (models.AnalyzerReport, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return models.AnalyzerReport{}, f.err
	}
	return models.AnalyzerReport{
		AgentID:           f.id,
		DirectionalSignal: f.signal,
		ConfidenceScore:   f.conf,
		Summary:           "steady outlook",
	}, nil
}

func (f *fakeAnalyst) Ping(context.Context) error { return f.err }

type noopMetrics struct{}

func (noopMetrics) RecordRecommendation(string, string, string) {}
func (noopMetrics) RecordError(string)                          {}
func (noopMetrics) RecordWeightedSignal(string, float64)        {}
func (noopMetrics) RecordLatency(string, float64)               {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func fullBoard() []service.Analyst {
	return []service.Analyst{
		&fakeAnalyst{id: models.AgentFundamental, signal: 0.40, conf: 78},
		&fakeAnalyst{id: models.AgentTechnical, signal: 0.24, conf: 57},
		&fakeAnalyst{id: models.AgentSentiment, signal: 0.47, conf: 65},
		&fakeAnalyst{id: models.AgentMacro, signal: 0.30, conf: 72},
		&fakeAnalyst{id: models.AgentRegulatory, signal: 0.00, conf: 58},
	}
}

func TestAdviseFullBoard(t *testing.T) {
	uc := NewAdvisorUseCase(fullBoard(), testLogger(t), WithMetrics(noopMetrics{}))

	rec, err := uc.Advise(context.Background(), AdviseParams{Ticker: "googl"})
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if rec.Ticker != "GOOGL" {
		t.Errorf("ticker not uppercased: %s", rec.Ticker)
	}
	if rec.Horizon != "next_quarter" {
		t.Errorf("horizon default: %s", rec.Horizon)
	}
	if rec.Action != models.ActionBuy {
		t.Errorf("action = %s, want BUY", rec.Action)
	}
	if len(rec.Reports) != 5 {
		t.Errorf("reports = %d, want 5", len(rec.Reports))
	}
	if rec.AgentErrors != nil {
		t.Errorf("unexpected agent errors: %v", rec.AgentErrors)
	}
	if rec.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestAdvisePartialFailure(t *testing.T) {
	board := fullBoard()
	board[1] = &fakeAnalyst{id: models.AgentTechnical, err: errors.New("connection refused")}

	uc := NewAdvisorUseCase(board, testLogger(t), WithMetrics(noopMetrics{}))

	rec, err := uc.Advise(context.Background(), AdviseParams{Ticker: "AAPL"})
	if err != nil {
		t.Fatalf("advise should succeed with partial board: %v", err)
	}
	if len(rec.Reports) != 4 {
		t.Errorf("reports = %d, want 4", len(rec.Reports))
	}
	if _, ok := rec.AgentErrors["technical"]; !ok {
		t.Errorf("missing technical in agent errors: %v", rec.AgentErrors)
	}
}

func TestAdviseAllFailed(t *testing.T) {
	board := []service.Analyst{
		&fakeAnalyst{id: models.AgentFundamental, err: errors.New("timeout")},
		&fakeAnalyst{id: models.AgentTechnical, err: errors.New("timeout")},
	}
	uc := NewAdvisorUseCase(board, testLogger(t), WithMetrics(noopMetrics{}))

	if _, err := uc.Advise(context.Background(), AdviseParams{Ticker: "AAPL"}); err == nil {
		t.Fatal("expected error when every analyst fails")
	}
}

func TestAdviseEmptyTicker(t *testing.T) {
	uc := NewAdvisorUseCase(fullBoard(), testLogger(t))
	if _, err := uc.Advise(context.Background(), AdviseParams{}); err == nil {
		t.Fatal("expected error for empty ticker")
	}
}

func TestAdviseCacheHit(t *testing.T) {
	counting := &fakeAnalyst{id: models.AgentFundamental, signal: 0.5, conf: 80}
	uc := NewAdvisorUseCase([]service.Analyst{counting}, testLogger(t),
		WithMetrics(noopMetrics{}),
		WithCache(cache.NewMemoryCache(), time.Minute),
	)

	first, err := uc.Advise(context.Background(), AdviseParams{Ticker: "MSFT"})
	if err != nil {
		t.Fatalf("first advise: %v", err)
	}
	second, err := uc.Advise(context.Background(), AdviseParams{Ticker: "MSFT"})
	if err != nil {
		t.Fatalf("second advise: %v", err)
	}
	if got := atomic.LoadInt64(&counting.calls); got != 1 {
		t.Errorf("analyst called %d times, want 1 (cache hit)", got)
	}
	if first.WeightedSignal != second.WeightedSignal {
		t.Errorf("cached result differs: %v vs %v", first.WeightedSignal, second.WeightedSignal)
	}

	// Refresh bypasses the cache.
	if _, err := uc.Advise(context.Background(), AdviseParams{Ticker: "MSFT", Refresh: true}); err != nil {
		t.Fatalf("refresh advise: %v", err)
	}
	if got := atomic.LoadInt64(&counting.calls); got != 2 {
		t.Errorf("analyst called %d times after refresh, want 2", got)
	}
}

func TestPingAnalysts(t *testing.T) {
	board := []service.Analyst{
		&fakeAnalyst{id: models.AgentFundamental},
		&fakeAnalyst{id: models.AgentMacro, err: errors.New("no agent card")},
	}
	uc := NewAdvisorUseCase(board, testLogger(t))

	down := uc.PingAnalysts(context.Background())
	if len(down) != 1 {
		t.Fatalf("down = %v, want exactly macro", down)
	}
	if _, ok := down["macro"]; !ok {
		t.Errorf("macro should be down: %v", down)
	}
}
