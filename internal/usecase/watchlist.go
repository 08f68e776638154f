package usecase

import (
	"context"
	"sync"
	"time"

	"StockCouncil/internal/service/ratelimit"
	applogger "StockCouncil/pkg/logger"
)

// WatchlistRunner periodically refreshes recommendations for a fixed set
// of tickers so history and live subscribers keep getting fresh verdicts
// without an API caller driving them.
type WatchlistRunner struct {
	advisor      *AdvisorUseCase
	logger       *applogger.Logger
	limiter      *ratelimit.Limiter
	tickers      []string
	horizon      string
	interval     time.Duration
	maxPerMinute float64

	mu      sync.Mutex
	stopCh  chan struct{}
	started bool
}

type WatchlistConfig struct {
	Tickers      []string
	Horizon      string
	Interval     time.Duration
	MaxPerMinute float64
}

func NewWatchlistRunner(advisor *AdvisorUseCase, logger *applogger.Logger, cfg WatchlistConfig) *WatchlistRunner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	maxPerMinute := cfg.MaxPerMinute
	if maxPerMinute <= 0 {
		maxPerMinute = 10
	}
	return &WatchlistRunner{
		advisor:      advisor,
		logger:       logger,
		limiter:      ratelimit.New(),
		tickers:      cfg.Tickers,
		horizon:      cfg.Horizon,
		interval:     interval,
		maxPerMinute: maxPerMinute,
		stopCh:       make(chan struct{}),
	}
}

// Start launches the refresh loop. The first sweep runs immediately.
func (w *WatchlistRunner) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go func() {
		w.sweep(ctx)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
}

// Stop halts the refresh loop.
func (w *WatchlistRunner) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.started = false
	close(w.stopCh)
}

func (w *WatchlistRunner) sweep(ctx context.Context) {
	for _, ticker := range w.tickers {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		// Cap analyst load regardless of watchlist size.
		if !w.limiter.Allow("watchlist", w.maxPerMinute, w.maxPerMinute/60) {
			w.logger.Warn("watchlist sweep throttled", applogger.String("ticker", ticker))
			continue
		}

		if _, err := w.advisor.Advise(ctx, AdviseParams{
			Ticker:  ticker,
			Horizon: w.horizon,
			Refresh: true,
		}); err != nil {
			w.logger.Error("watchlist refresh", applogger.String("ticker", ticker), applogger.Error(err))
		}
	}
}
