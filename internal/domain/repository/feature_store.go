package repository

import (
	"context"

	"OddsPulse/internal/domain/models"
)

// SnapshotReader provides read-only access to a market's recorded history
// for evaluation. Implementations return snapshots ordered oldest to newest.
type SnapshotReader interface {
	GetSnapshots(ctx context.Context, market models.Market, n int) ([]models.OddsSnapshot, error)
	GetLatestSplit(ctx context.Context, eventID string, mt models.MarketType) (*models.SplitSnapshot, error)
}
