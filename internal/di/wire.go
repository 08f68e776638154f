//go:build wireinject
// +build wireinject

package di

import (
	"StockCouncil/pkg/config"
	"StockCouncil/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideHistoryStore,
		ProvidePublisher,

		// Analyst board and caching
		ProvideAnalysts,
		ProvideAdvisorCache,

		// Use cases
		ProvideProcessor,
		ProvidePipeline,
		ProvideHub,
		ProvideAdvisor,
		ProvideHistoryUseCase,
		ProvideKafkaRecommendationsHandler,
		ProvideWatchlist,

		// Transport
		ProvideAPIHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
