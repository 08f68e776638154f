package service

import (
	"context"

	"StockCouncil/internal/domain/models"
)

// Analyst produces one AnalyzerReport for a ticker and horizon. Implementations
// wrap remote agent services; failures are surfaced, never papered over with
// fabricated reports.
type Analyst interface {
	ID() models.AgentID
	Analyze(ctx context.Context, ticker string, horizon string) (models.AnalyzerReport, error)
	Ping(ctx context.Context) error
}
