package usecase

import (
	"context"
	"fmt"
	"time"

	"OddsPulse/internal/domain/models"
	domrepo "OddsPulse/internal/domain/repository"
)

// HistoryUseCase provides business logic for retrieving raw snapshot history.
type HistoryUseCase struct {
	store domrepo.Storage
}

func NewHistoryUseCase(store domrepo.Storage) *HistoryUseCase {
	return &HistoryUseCase{store: store}
}

type GetHistoryParams struct {
	Market models.Market
	From   time.Time
	To     time.Time
	Limit  int
}

type GetHistoryResult struct {
	Market    models.Market
	From      time.Time
	To        time.Time
	Count     int
	Snapshots []*models.OddsSnapshot
}

func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if p.Market.EventID == "" {
		return nil, fmt.Errorf("event_id required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	snaps, err := uc.store.Query(ctx, p.Market, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if len(snaps) > p.Limit {
		snaps = snaps[:p.Limit]
	}

	return &GetHistoryResult{
		Market:    p.Market,
		From:      p.From,
		To:        p.To,
		Count:     len(snaps),
		Snapshots: snaps,
	}, nil
}
