package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCouncil/internal/domain/models"
	drepo "StockCouncil/internal/domain/repository"
)

// RecommendationProcessor routes finished recommendations to the
// configured persistence backend: published to Kafka for the consumer
// to store, or written to ClickHouse directly.
type RecommendationProcessor struct {
	pub     drepo.Publisher
	store   drepo.HistoryStore
	metrics drepo.Metrics
	backend string
}

func NewRecommendationProcessor(
	pub drepo.Publisher,
	store drepo.HistoryStore,
	metrics drepo.Metrics,
	backend string,
) *RecommendationProcessor {
	return &RecommendationProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single recommendation to the configured backend.
func (p *RecommendationProcessor) Process(ctx context.Context, rec *models.Recommendation) error {
	if rec == nil {
		return fmt.Errorf("recommendation is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, rec)
	case "clickhouse":
		err = p.store.Store(ctx, rec)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process recommendation: %w", err)
	}

	p.metrics.RecordRecommendation(p.backend, rec.Ticker, string(rec.Action))
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple recommendations in one backend call.
func (p *RecommendationProcessor) ProcessBatch(ctx context.Context, recs []*models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, recs)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, recs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, rec := range recs {
		p.metrics.RecordRecommendation(p.backend, rec.Ticker, string(rec.Action))
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *RecommendationProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
