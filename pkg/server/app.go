package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockCouncil/internal/handler/ws"
	mid "StockCouncil/internal/middleware"
	"StockCouncil/internal/usecase"
	pkgch "StockCouncil/pkg/clickhouse"
	"StockCouncil/pkg/config"
	xhttp "StockCouncil/pkg/http"
	pkgkafka "StockCouncil/pkg/kafka"
	applogger "StockCouncil/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	hub        *ws.Hub
	pipeline   *mid.PersistencePipeline
	processor  *usecase.RecommendationProcessor
	watchlist  *usecase.WatchlistRunner
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	hub *ws.Hub,
	pipeline *mid.PersistencePipeline,
	processor *usecase.RecommendationProcessor,
	watchlist *usecase.WatchlistRunner,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		handler:   handler,
		hub:       hub,
		pipeline:  pipeline,
		processor: processor,
		watchlist: watchlist,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.logger, time.Second),
		// Browser clients only talk to the API through the gateway in
		// production, so cross-origin access stays off there.
		xhttp.WithCORS(a.cfg.Environment != "production"),
	)
	if a.hub != nil {
		a.hub.RegisterRoutes(a.httpServer.Echo())
	}

	// Background retry of buffered writes
	if a.pipeline != nil {
		a.pipeline.Start(ctx)
	}

	// Consumer only runs when Kafka is the write path; it drains the
	// recommendations topic into ClickHouse.
	if a.cfg.Backend.Type == "kafka" && a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.watchlist != nil {
		a.watchlist.Start(ctx)
		a.logger.Info("watchlist started",
			applogger.Strings("tickers", a.cfg.Watchlist.Tickers),
			applogger.Duration("interval", a.cfg.Watchlist.Interval),
		)
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.watchlist != nil {
		a.watchlist.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		a.hub.Close()
	}

	if a.pipeline != nil {
		a.pipeline.Stop()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close processor resources (publisher/history store)
	if a.processor != nil {
		a.processor.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.RemoveCollector()
	a.logger.Info("shutdown complete")
	return nil
}
