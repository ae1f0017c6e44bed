package repository

import (
	"context"
	"time"

	"OddsPulse/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.OddsSnapshot, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, s *models.OddsSnapshot) error
	PublishBatch(ctx context.Context, snaps []*models.OddsSnapshot) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, s *models.OddsSnapshot) error
	StoreBatch(ctx context.Context, snaps []*models.OddsSnapshot) error
	StoreSplit(ctx context.Context, s *models.SplitSnapshot) error
	Query(ctx context.Context, market models.Market, from, to time.Time, limit int) ([]*models.OddsSnapshot, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordSnapshotIngested(book, marketType string)
	RecordSnapshotRejected(reason string)
	RecordError(kind string)
	RecordLastIP(marketKey string, ip float64)
	RecordLatency(op string, seconds float64)
	RecordEvaluation(marketType string)
	RecordSteamFlag(marketType string)
}
