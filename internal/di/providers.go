package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"StockCouncil/internal/domain/repository"
	"StockCouncil/internal/domain/service"
	"StockCouncil/internal/handler/api"
	"StockCouncil/internal/handler/ws"
	mid "StockCouncil/internal/middleware"
	internalrepo "StockCouncil/internal/repository"
	icache "StockCouncil/internal/service/cache"
	"StockCouncil/internal/services/analysts"
	"StockCouncil/internal/usecase"
	"StockCouncil/pkg/cache"
	pkgch "StockCouncil/pkg/clickhouse"
	"StockCouncil/pkg/config"
	pkgkafka "StockCouncil/pkg/kafka"
	applogger "StockCouncil/pkg/logger"
	"StockCouncil/pkg/metrics"
	"StockCouncil/pkg/server"

	"github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger. When Kafka is the
// configured backend, error logs are aggregated and shipped there too.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// recommendation history schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := internalrepo.SchemaStatements(cfg.ClickHouse.Database, cfg.ClickHouse.Database+".recommendations")
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHistoryStore creates the ClickHouse history repository.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config) repository.HistoryStore {
	return internalrepo.NewClickHouseHistoryStore(chClient.DB(), cfg.ClickHouse.Database+".recommendations")
}

// ProvidePublisher creates the Kafka recommendation publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaRecommendationPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaRecommendationsHandler registers the consumer-side handler
// for the recommendations topic.
func ProvideKafkaRecommendationsHandler(store repository.HistoryStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaRecommendationsHandler {
	return usecase.NewKafkaRecommendationsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideAnalysts builds the analyst board from configured endpoints.
func ProvideAnalysts(cfg *config.Config) ([]service.Analyst, error) {
	return analysts.FromConfig(cfg)
}

// ProvideAdvisorCache picks the recommendation cache implementation.
// With Redis configured, memory sits in front of it as an L1.
func ProvideAdvisorCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Advisor.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(1000)), nil
	}
	host, port := splitHostPort(cfg.Advisor.Redis.Addr)
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Advisor.Redis.Password),
		cache.WithRedisDB(cfg.Advisor.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(1000)), nil
}

// ProvideProcessor creates the backend router for recommendations.
func ProvideProcessor(
	pub repository.Publisher,
	store repository.HistoryStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.RecommendationProcessor {
	return usecase.NewRecommendationProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvidePipeline wraps the processor with validation, per-ticker
// throttling, and buffered retry.
func ProvidePipeline(proc *usecase.RecommendationProcessor, m repository.Metrics) *mid.PersistencePipeline {
	return mid.NewPersistencePipeline(proc, m,
		mid.WithMinGap(time.Second),
		mid.WithBufferSize(2000),
	)
}

// ProvideHub creates the WebSocket broadcast hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideAdvisor wires the advisor use case.
func ProvideAdvisor(
	board []service.Analyst,
	l *applogger.Logger,
	c cache.Service,
	m repository.Metrics,
	pipe *mid.PersistencePipeline,
	hub *ws.Hub,
	cfg *config.Config,
) *usecase.AdvisorUseCase {
	return usecase.NewAdvisorUseCase(board, l,
		usecase.WithCache(c, cfg.Advisor.CacheTTL),
		usecase.WithMetrics(m),
		usecase.WithPersister(pipe),
		usecase.WithNotifier(hub),
		usecase.WithTimeout(cfg.Advisor.Timeout),
	)
}

// ProvideHistoryUseCase wires the history query use case.
func ProvideHistoryUseCase(store repository.HistoryStore) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(store)
}

// ProvideAPIHandler builds the Echo handler with a short-lived response
// cache: Redis when configured so replicas share it, in-process otherwise.
func ProvideAPIHandler(cfg *config.Config, l *applogger.Logger, advisor *usecase.AdvisorUseCase, history *usecase.HistoryUseCase) *api.AdvisorEchoHandler {
	h := api.NewAdvisorEchoHandler(l, advisor, history)
	if cfg.Advisor.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Advisor.Redis.Addr,
			Password: cfg.Advisor.Redis.Password,
			DB:       cfg.Advisor.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	return h
}

// ProvideWatchlist builds the periodic refresh runner. Returns nil when disabled.
func ProvideWatchlist(advisor *usecase.AdvisorUseCase, l *applogger.Logger, cfg *config.Config) *usecase.WatchlistRunner {
	if !cfg.Watchlist.Enabled {
		return nil
	}
	return usecase.NewWatchlistRunner(advisor, l, usecase.WatchlistConfig{
		Tickers:      cfg.Watchlist.Tickers,
		Horizon:      cfg.Watchlist.Horizon,
		Interval:     cfg.Watchlist.Interval,
		MaxPerMinute: cfg.Watchlist.MaxPerMinute,
	})
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.AdvisorEchoHandler,
	hub *ws.Hub,
	pipe *mid.PersistencePipeline,
	proc *usecase.RecommendationProcessor,
	watchlist *usecase.WatchlistRunner,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRecommendationsHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	m repository.Metrics,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NewHookChain(consumeTimingHook(m)))
	}
	// Aggregated error logs flow into Kafka next to the recommendations.
	if cfg.Backend.Type == "kafka" && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      kafkaLogPublisher{producer},
		})
	}
	return server.New(cfg, l, handler, hub, pipe, proc, watchlist, consumer, kh, chClient)
}

// consumeTimingHook stamps each message with its handling start time and
// any trace id from the headers, then records end-to-end consume timing.
func consumeTimingHook(m repository.Metrics) pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
		After: func(ctx context.Context, _ string, _ kafka.Message, _ []byte, err error) {
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("consume", time.Since(start).Seconds())
			}
			if err != nil {
				m.RecordError("consume")
			}
		},
	}
}

// kafkaLogPublisher adapts the Kafka producer to the log collector's
// Publisher interface.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		port = 6379
	}
	return host, port
}
