package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StockCouncil/internal/domain/models"
	domrepo "StockCouncil/internal/domain/repository"
	pkgkafka "StockCouncil/pkg/kafka"
)

// KafkaRecommendationsHandler consumes recommendation events from Kafka
// and writes them to the history store.
type KafkaRecommendationsHandler struct {
	topic   string
	store   domrepo.HistoryStore
	metrics domrepo.Metrics
}

func NewKafkaRecommendationsHandler(topic string, store domrepo.HistoryStore, metrics domrepo.Metrics) *KafkaRecommendationsHandler {
	return &KafkaRecommendationsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaRecommendationsHandler) Topic() string { return h.topic }

func (h *KafkaRecommendationsHandler) Handle(ctx context.Context, b []byte) error {
	var rec models.Recommendation
	if err := json.Unmarshal(b, &rec); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if !rec.Timestamp.IsZero() {
		// E2E latency from synthesis time to storage (approx)
		h.metrics.RecordLatency("store_e2e_seconds", time.Since(rec.Timestamp).Seconds())
	}

	start := time.Now()
	err := h.store.Store(ctx, &rec)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordRecommendation("clickhouse", rec.Ticker, string(rec.Action))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRecommendationsHandler)(nil)
