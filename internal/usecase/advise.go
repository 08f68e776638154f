package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockCouncil/internal/domain/models"
	domrepo "StockCouncil/internal/domain/repository"
	"StockCouncil/internal/domain/service"
	"StockCouncil/internal/services/synthesis"
	"StockCouncil/pkg/cache"
	applogger "StockCouncil/pkg/logger"
)

// Notifier pushes a finished recommendation to live subscribers.
type Notifier interface {
	Broadcast(rec *models.Recommendation)
}

// Persister takes finished recommendations into the storage path.
// Satisfied by RecommendationProcessor and by the persistence pipeline
// that wraps it.
type Persister interface {
	Process(ctx context.Context, rec *models.Recommendation) error
}

// AdvisorUseCase fans a ticker out to the analyst board, synthesizes a
// recommendation from whoever answered, and hands it to cache, storage
// and live subscribers.
type AdvisorUseCase struct {
	analysts  []service.Analyst
	cache     cache.Service
	metrics   domrepo.Metrics
	persister Persister
	notifier  Notifier
	logger    *applogger.Logger
	timeout   time.Duration
	cacheTTL  time.Duration
}

// AdvisorOption configures an AdvisorUseCase.
type AdvisorOption func(*AdvisorUseCase)

// WithCache enables recommendation caching.
func WithCache(c cache.Service, ttl time.Duration) AdvisorOption {
	return func(uc *AdvisorUseCase) {
		uc.cache = c
		uc.cacheTTL = ttl
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m domrepo.Metrics) AdvisorOption {
	return func(uc *AdvisorUseCase) {
		uc.metrics = m
	}
}

// WithPersister routes every recommendation into the persistence path.
func WithPersister(p Persister) AdvisorOption {
	return func(uc *AdvisorUseCase) {
		uc.persister = p
	}
}

// WithNotifier broadcasts every recommendation to live subscribers.
func WithNotifier(n Notifier) AdvisorOption {
	return func(uc *AdvisorUseCase) {
		uc.notifier = n
	}
}

// WithTimeout caps the total time a single Advise call may take.
func WithTimeout(d time.Duration) AdvisorOption {
	return func(uc *AdvisorUseCase) {
		uc.timeout = d
	}
}

func NewAdvisorUseCase(analysts []service.Analyst, logger *applogger.Logger, opts ...AdvisorOption) *AdvisorUseCase {
	uc := &AdvisorUseCase{
		analysts: analysts,
		logger:   logger,
		timeout:  30 * time.Second,
		cacheTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// AdviseParams are the inputs for one recommendation.
type AdviseParams struct {
	Ticker  string
	Horizon string
	Refresh bool // skip the cache and force fresh analyst calls
}

// Advise produces a recommendation for the given ticker and horizon.
// Analysts that fail are reported in AgentErrors; the verdict is built
// from the reports that did arrive. All analysts failing is an error.
func (uc *AdvisorUseCase) Advise(ctx context.Context, p AdviseParams) (*models.Recommendation, error) {
	if p.Ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	ticker := strings.ToUpper(strings.TrimSpace(p.Ticker))
	horizon := string(domrepo.NormalizeHorizon(p.Horizon))

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	cacheKey := cache.Key("advice", ticker, horizon)
	if uc.cache != nil {
		if p.Refresh {
			// Drop the stale copy so concurrent readers don't serve it
			// while we recompute.
			_ = uc.cache.Delete(ctx, cacheKey)
		} else if rec, ok := uc.cachedRecommendation(ctx, cacheKey); ok {
			uc.logger.Debug("advice cache hit", applogger.String("ticker", ticker))
			return rec, nil
		}

		// Single-flight: only one caller per key recomputes; the rest
		// briefly poll the cache and fall through to their own fan-out
		// if the winner doesn't finish in time.
		lockKey := cache.Key("lock", cacheKey)
		if locked, _ := uc.cache.TryLock(ctx, lockKey, uc.timeout); locked {
			defer func() { _ = uc.cache.Unlock(context.Background(), lockKey) }()
		} else if !p.Refresh {
			if rec, ok := uc.awaitCached(ctx, cacheKey); ok {
				return rec, nil
			}
		}
	}

	start := time.Now()
	reports, agentErrs := uc.collectReports(ctx, ticker, horizon)
	if len(reports) == 0 {
		if uc.metrics != nil {
			uc.metrics.RecordError("all_analysts_failed")
		}
		return nil, fmt.Errorf("all analysts failed for %s: %v", ticker, agentErrs)
	}

	rec, err := synthesis.Synthesize(ticker, reports)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("synthesis")
		}
		return nil, fmt.Errorf("synthesize %s: %w", ticker, err)
	}
	rec.Horizon = horizon
	rec.Timestamp = time.Now().UTC()
	if len(agentErrs) > 0 {
		rec.AgentErrors = agentErrs
	}

	uc.logger.Info("recommendation synthesized",
		applogger.String("ticker", ticker),
		applogger.String("action", string(rec.Action)),
		applogger.Int("reports", len(reports)),
		applogger.Int("failed", len(agentErrs)),
		applogger.Duration("took", time.Since(start)),
	)

	if uc.metrics != nil {
		uc.metrics.RecordWeightedSignal(ticker, rec.WeightedSignal)
		uc.metrics.RecordLatency("advise", time.Since(start).Seconds())
	}

	if uc.cache != nil {
		uc.storeCached(ctx, cacheKey, &rec)
	}
	if uc.persister != nil {
		if err := uc.persister.Process(ctx, &rec); err != nil {
			uc.logger.Error("persist recommendation", applogger.Error(err), applogger.String("ticker", ticker))
		}
	}
	if uc.notifier != nil {
		uc.notifier.Broadcast(&rec)
	}

	return &rec, nil
}

// collectReports queries every analyst concurrently and partitions the
// results into reports and per-agent error strings.
func (uc *AdvisorUseCase) collectReports(ctx context.Context, ticker, horizon string) ([]models.AnalyzerReport, map[string]string) {
	type item struct {
		agent  models.AgentID
		report models.AnalyzerReport
		err    error
	}
	ch := make(chan item, len(uc.analysts))
	var wg sync.WaitGroup

	for _, a := range uc.analysts {
		wg.Add(1)
		go func(a service.Analyst) {
			defer wg.Done()
			rep, err := a.Analyze(ctx, ticker, horizon)
			ch <- item{a.ID(), rep, err}
		}(a)
	}

	go func() { wg.Wait(); close(ch) }()

	reports := make([]models.AnalyzerReport, 0, len(uc.analysts))
	errs := map[string]string{}
	for it := range ch {
		if it.err != nil {
			uc.logger.Warn("analyst failed",
				applogger.String("agent", string(it.agent)),
				applogger.String("ticker", ticker),
				applogger.Error(it.err),
			)
			errs[string(it.agent)] = it.err.Error()
			continue
		}
		reports = append(reports, it.report)
	}
	if len(errs) == 0 {
		errs = nil
	}
	return reports, errs
}

func (uc *AdvisorUseCase) cachedRecommendation(ctx context.Context, key string) (*models.Recommendation, bool) {
	var raw string
	if err := uc.cache.Get(ctx, key, &raw); err != nil {
		return nil, false
	}
	var rec models.Recommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

// awaitCached polls the cache while another caller holds the compute
// lock. Gives up after a couple of seconds and lets the caller fan out
// itself.
func (uc *AdvisorUseCase) awaitCached(ctx context.Context, key string) (*models.Recommendation, bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(100 * time.Millisecond):
		}
		if rec, ok := uc.cachedRecommendation(ctx, key); ok {
			return rec, true
		}
	}
	return nil, false
}

func (uc *AdvisorUseCase) storeCached(ctx context.Context, key string, rec *models.Recommendation) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, string(raw), uc.cacheTTL); err != nil {
		uc.logger.Warn("cache recommendation", applogger.Error(err))
	}
}

// PingAnalysts checks every analyst's agent card and returns the set of
// unreachable roles. Used by the readiness endpoint.
func (uc *AdvisorUseCase) PingAnalysts(ctx context.Context) map[string]string {
	type item struct {
		agent models.AgentID
		err   error
	}
	ch := make(chan item, len(uc.analysts))
	var wg sync.WaitGroup
	for _, a := range uc.analysts {
		wg.Add(1)
		go func(a service.Analyst) {
			defer wg.Done()
			ch <- item{a.ID(), a.Ping(ctx)}
		}(a)
	}
	go func() { wg.Wait(); close(ch) }()

	down := map[string]string{}
	for it := range ch {
		if it.err != nil {
			down[string(it.agent)] = it.err.Error()
		}
	}
	if len(down) == 0 {
		return nil
	}
	return down
}

// Analysts lists the configured board in canonical order.
func (uc *AdvisorUseCase) Analysts() []models.AgentID {
	out := make([]models.AgentID, 0, len(uc.analysts))
	for _, a := range uc.analysts {
		out = append(out, a.ID())
	}
	return out
}
