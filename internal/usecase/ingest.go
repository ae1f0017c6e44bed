package usecase

import (
	"context"
	"fmt"
	"time"

	"OddsPulse/internal/domain/models"
	domrepo "OddsPulse/internal/domain/repository"
	"OddsPulse/pkg/oddsmath"
)

// IngestUseCase accepts snapshots submitted over the API, for backfills and
// deployments without a live book feed.
type IngestUseCase struct {
	store        domrepo.Storage
	metrics      domrepo.Metrics
	vigTolerance float64
}

func NewIngestUseCase(store domrepo.Storage, metrics domrepo.Metrics, vigTolerance float64) *IngestUseCase {
	return &IngestUseCase{store: store, metrics: metrics, vigTolerance: vigTolerance}
}

// validateSnapshotOdds rejects quoted prices that cannot price an outcome
// and, when both sides are quoted, two-way quotes outside the vig tolerance.
// Rejection is fatal for the single snapshot only; the market's stored
// history is untouched.
func validateSnapshotOdds(s *models.OddsSnapshot, vigTolerance float64) error {
	var home, away float64
	if s.PriceHome != nil {
		p, err := oddsmath.AmericanToProb(*s.PriceHome)
		if err != nil {
			return fmt.Errorf("home price %d: %w", *s.PriceHome, err)
		}
		home = p
	}
	if s.PriceAway != nil {
		p, err := oddsmath.AmericanToProb(*s.PriceAway)
		if err != nil {
			return fmt.Errorf("away price %d: %w", *s.PriceAway, err)
		}
		away = p
	}
	if s.PriceHome != nil && s.PriceAway != nil {
		if _, err := oddsmath.RemoveVig(oddsmath.TwoWay{Home: home, Away: away}, vigTolerance); err != nil {
			return fmt.Errorf("two-way quote %d/%d: %w", *s.PriceHome, *s.PriceAway, err)
		}
	}
	return nil
}

// Ingest validates and stores one snapshot. A snapshot with neither price is
// rejected: an absent observation stays absent, it is never zero-filled.
// Malformed or out-of-range odds are rejected here, before storage.
func (uc *IngestUseCase) Ingest(ctx context.Context, s *models.OddsSnapshot) error {
	if s == nil || s.Market.EventID == "" {
		return fmt.Errorf("event_id required")
	}
	if !s.Market.Type.IsValid() {
		s.Market.Type = domrepo.DefaultMarketType()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	if s.PriceHome == nil && s.PriceAway == nil {
		if uc.metrics != nil {
			uc.metrics.RecordSnapshotRejected("no_prices")
		}
		return fmt.Errorf("at least one price required")
	}
	if err := validateSnapshotOdds(s, uc.vigTolerance); err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordSnapshotRejected("invalid_odds")
		}
		return err
	}

	if err := uc.store.Store(ctx, s); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	if uc.metrics != nil {
		uc.metrics.RecordSnapshotIngested(s.Market.Book, string(s.Market.Type))
	}
	return nil
}

// Health pings the snapshot store.
func (uc *IngestUseCase) Health(ctx context.Context) error {
	return uc.store.Health(ctx)
}
