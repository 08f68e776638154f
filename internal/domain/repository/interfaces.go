package repository

import (
	"context"
	"time"

	"StockCouncil/internal/domain/models"
)

// Publisher emits finished recommendations as events for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, rec *models.Recommendation) error
	PublishBatch(ctx context.Context, recs []*models.Recommendation) error
	Close() error
}

// HistoryStore is the caller-owned, append-only record of past analyses.
type HistoryStore interface {
	Store(ctx context.Context, rec *models.Recommendation) error
	StoreBatch(ctx context.Context, recs []*models.Recommendation) error
	Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.Recommendation, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordRecommendation(backend, ticker string, action string)
	RecordError(kind string)
	RecordWeightedSignal(ticker string, signal float64)
	RecordLatency(op string, seconds float64)
}
