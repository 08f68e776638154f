package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockCouncil/internal/domain/models"
)

type fakeProc struct {
	calls int
	err   error
}

func (f *fakeProc) Process(context.Context, *models.Recommendation) error {
	f.calls++
	return f.err
}

type noopMetrics struct{}

func (noopMetrics) RecordRecommendation(string, string, string) {}
func (noopMetrics) RecordError(string)                          {}
func (noopMetrics) RecordWeightedSignal(string, float64)        {}
func (noopMetrics) RecordLatency(string, float64)               {}

func validRec(ticker string) *models.Recommendation {
	return &models.Recommendation{
		Ticker:    ticker,
		Action:    models.ActionHold,
		RiskLevel: models.RiskLow,
		Timestamp: time.Now().UTC(),
	}
}

func TestPipelineRejectsInvalid(t *testing.T) {
	proc := &fakeProc{}
	p := NewPersistencePipeline(proc, noopMetrics{})

	cases := []*models.Recommendation{
		nil,
		{Action: models.ActionBuy, Timestamp: time.Now()}, // no ticker
		{Ticker: "AAPL", Action: models.ActionBuy},        // no timestamp
		{Ticker: "AAPL", Timestamp: time.Now()},           // no action
	}
	for i, rec := range cases {
		if err := p.Process(context.Background(), rec); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
	if proc.calls != 0 {
		t.Errorf("downstream called %d times for invalid input", proc.calls)
	}
}

func TestPipelineThrottlesSameTicker(t *testing.T) {
	proc := &fakeProc{}
	p := NewPersistencePipeline(proc, noopMetrics{}, WithMinGap(time.Hour))

	if err := p.Process(context.Background(), validRec("AAPL")); err != nil {
		t.Fatalf("first: %v", err)
	}
	// Burst inside the gap is dropped without error.
	if err := p.Process(context.Background(), validRec("AAPL")); err != nil {
		t.Fatalf("second: %v", err)
	}
	if proc.calls != 1 {
		t.Errorf("downstream calls = %d, want 1", proc.calls)
	}

	// Different ticker is unaffected.
	if err := p.Process(context.Background(), validRec("MSFT")); err != nil {
		t.Fatalf("other ticker: %v", err)
	}
	if proc.calls != 2 {
		t.Errorf("downstream calls = %d, want 2", proc.calls)
	}
}

type signalProc struct {
	err   error
	calls chan struct{}
}

func (f *signalProc) Process(context.Context, *models.Recommendation) error {
	f.calls <- struct{}{}
	return f.err
}

// Stop must end the flush loop even while it sits in a retry backoff.
func TestPipelineStopInterruptsBackoff(t *testing.T) {
	proc := &signalProc{err: errors.New("backend down"), calls: make(chan struct{}, 16)}
	p := NewPersistencePipeline(proc, noopMetrics{}, WithBufferSize(4))

	// Fails synchronously and lands in the retry buffer.
	if err := p.Process(context.Background(), validRec("AAPL")); err == nil {
		t.Fatal("expected downstream error to propagate")
	}
	<-proc.calls

	p.Start(context.Background())

	// First background retry fails and the loop enters its backoff.
	select {
	case <-proc.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("flush loop never retried")
	}
	p.Stop()

	// The loop must exit from the backoff, not requeue and retry again.
	select {
	case <-proc.calls:
		t.Fatal("retry fired after Stop")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestPipelineBuffersOnError(t *testing.T) {
	proc := &fakeProc{err: errors.New("backend down")}
	p := NewPersistencePipeline(proc, noopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), validRec("AAPL")); err == nil {
		t.Fatal("expected downstream error to propagate")
	}
	if len(p.bufCh) != 1 {
		t.Errorf("buffer depth = %d, want 1", len(p.bufCh))
	}
}

func TestPipelineStartFlushesBuffer(t *testing.T) {
	proc := &fakeProc{err: errors.New("backend down")}
	p := NewPersistencePipeline(proc, noopMetrics{}, WithBufferSize(4))

	_ = p.Process(context.Background(), validRec("AAPL"))

	// Backend recovers; background loop should drain the buffer.
	proc.err = nil
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for len(p.bufCh) > 0 {
		select {
		case <-deadline:
			t.Fatal("buffer not drained")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
