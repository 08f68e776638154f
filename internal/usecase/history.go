package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockCouncil/internal/domain/models"
	domrepo "StockCouncil/internal/domain/repository"
)

// HistoryUseCase provides business logic for querying past recommendations.
type HistoryUseCase struct {
	store domrepo.HistoryStore
}

func NewHistoryUseCase(store domrepo.HistoryStore) *HistoryUseCase {
	return &HistoryUseCase{store: store}
}

type GetHistoryParams struct {
	Ticker string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetHistoryResult struct {
	Ticker          string                   `json:"ticker"`
	From            time.Time                `json:"from"`
	To              time.Time                `json:"to"`
	Count           int                      `json:"count"`
	Recommendations []*models.Recommendation `json:"recommendations"`
}

func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if p.Ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 500 {
		p.Limit = 500
	}
	ticker := strings.ToUpper(strings.TrimSpace(p.Ticker))

	recs, err := uc.store.Query(ctx, ticker, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	return &GetHistoryResult{
		Ticker:          ticker,
		From:            p.From,
		To:              p.To,
		Count:           len(recs),
		Recommendations: recs,
	}, nil
}
