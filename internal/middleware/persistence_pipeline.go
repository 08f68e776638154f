package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockCouncil/internal/domain/models"
	domrepo "StockCouncil/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, rec *models.Recommendation) error
}

// PersistencePipeline sits between the advisor and the storage backend.
// It validates, throttles duplicate tickers, and buffers recommendations
// while the backend is unavailable, retrying in the background.
type PersistencePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	// minimum spacing between stored recommendations per ticker
	minGap   time.Duration
	bufSize  int
	bufCh    chan *models.Recommendation
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

type PipelineOption func(*PersistencePipeline)

// WithMinGap sets the minimum interval between stored recommendations
// for the same ticker. Bursts inside the gap are dropped.
func WithMinGap(d time.Duration) PipelineOption {
	return func(p *PersistencePipeline) {
		if d > 0 {
			p.minGap = d
		}
	}
}

// WithBufferSize sets the retry buffer size used when the backend is down.
func WithBufferSize(n int) PipelineOption {
	return func(p *PersistencePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func NewPersistencePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *PersistencePipeline {
	p := &PersistencePipeline{
		proc:     proc,
		metrics:  metrics,
		minGap:   time.Second,
		bufSize:  1000,
		bufCh:    make(chan *models.Recommendation, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Recommendation, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered recommendations.
func (p *PersistencePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case rec := <-p.bufCh:
				if rec == nil {
					continue
				}
				if err := p.proc.Process(ctx, rec); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					select {
					case <-time.After(backoff):
					case <-p.stopCh:
						return
					}
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- rec:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *PersistencePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a recommendation downstream,
// buffering on backend errors.
func (p *PersistencePipeline) Process(ctx context.Context, rec *models.Recommendation) error {
	start := time.Now()
	if err := validateRecommendation(rec); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(rec.Ticker, start) {
		// duplicate burst for the same ticker; drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, rec); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- rec:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateRecommendation(rec *models.Recommendation) error {
	if rec == nil {
		return fmt.Errorf("recommendation nil")
	}
	if rec.Ticker == "" {
		return fmt.Errorf("ticker empty")
	}
	if rec.Timestamp.IsZero() {
		return fmt.Errorf("timestamp unset")
	}
	if rec.Action == "" {
		return fmt.Errorf("action empty")
	}
	return nil
}

func (p *PersistencePipeline) allow(ticker string, now time.Time) bool {
	if p.minGap <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[ticker]
	if !last.IsZero() && now.Sub(last) < p.minGap {
		return false
	}
	p.lastSeen[ticker] = now
	return true
}
