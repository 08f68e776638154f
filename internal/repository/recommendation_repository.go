package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockCouncil/internal/domain/models"
	"StockCouncil/internal/domain/repository"
	pkgkafka "StockCouncil/pkg/kafka"
)

// SchemaStatements returns the idempotent DDL for the recommendation
// history table.
func SchemaStatements(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts              DateTime64(3),
			ticker          LowCardinality(String),
			horizon         LowCardinality(String),
			weighted_signal Float64,
			confidence      Float64,
			action          LowCardinality(String),
			risk_level      LowCardinality(String),
			rationale       String
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(ts)
		ORDER BY (ticker, ts)`, table),
	}
}

// ClickHouseHistoryStore implements HistoryStore on ClickHouse.
type ClickHouseHistoryStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseHistoryStore creates a ClickHouse-backed history store.
func NewClickHouseHistoryStore(db *sql.DB, table string) repository.HistoryStore {
	return &ClickHouseHistoryStore{db: db, table: table}
}

func (s *ClickHouseHistoryStore) Store(ctx context.Context, rec *models.Recommendation) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, ticker, horizon, weighted_signal, confidence, action, risk_level, rationale) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		rec.Timestamp,
		rec.Ticker,
		rec.Horizon,
		rec.WeightedSignal,
		rec.Confidence,
		string(rec.Action),
		string(rec.RiskLevel),
		rec.Rationale,
	)
	return err
}

func (s *ClickHouseHistoryStore) StoreBatch(ctx context.Context, recs []*models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips.
	const chunkSize = 500
	for start := 0; start < len(recs); start += chunkSize {
		end := start + chunkSize
		if end > len(recs) {
			end = len(recs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, rec := range recs[start:end] {
			if rec == nil || rec.Ticker == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				rec.Timestamp,
				rec.Ticker,
				rec.Horizon,
				rec.WeightedSignal,
				rec.Confidence,
				string(rec.Action),
				string(rec.RiskLevel),
				rec.Rationale,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, ticker, horizon, weighted_signal, confidence, action, risk_level, rationale) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseHistoryStore) Query(ctx context.Context, ticker string, from, to time.Time, limit int) ([]*models.Recommendation, error) {
	var (
		conds = []string{"ticker = ?"}
		args  = []interface{}{ticker}
	)
	if !from.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, to)
	}
	args = append(args, limit)

	q := fmt.Sprintf(
		"SELECT ts, ticker, horizon, weighted_signal, confidence, action, risk_level, rationale FROM %s WHERE %s ORDER BY ts DESC LIMIT ?",
		s.table, strings.Join(conds, " AND "),
	)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		var (
			rec    models.Recommendation
			action string
			risk   string
		)
		if err := rows.Scan(&rec.Timestamp, &rec.Ticker, &rec.Horizon, &rec.WeightedSignal, &rec.Confidence, &action, &risk, &rec.Rationale); err != nil {
			return nil, err
		}
		rec.Action = models.Action(action)
		rec.RiskLevel = models.RiskLevel(risk)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func (s *ClickHouseHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseHistoryStore) Close() error {
	return nil // Pool is managed by pkg/clickhouse
}

// KafkaRecommendationPublisher implements Publisher for Kafka.
type KafkaRecommendationPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRecommendationPublisher creates a Kafka publisher.
func NewKafkaRecommendationPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaRecommendationPublisher{producer: producer, topic: topic}
}

func (p *KafkaRecommendationPublisher) Publish(ctx context.Context, rec *models.Recommendation) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Ticker), rec)
}

func (p *KafkaRecommendationPublisher) PublishBatch(ctx context.Context, recs []*models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(recs))
	for i, rec := range recs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(rec.Ticker),
			Value: rec,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaRecommendationPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
