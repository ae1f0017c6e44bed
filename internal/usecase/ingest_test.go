package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"OddsPulse/internal/domain/models"
	"OddsPulse/pkg/config"
	"OddsPulse/pkg/oddsmath"
)

// fakeStorage records stored snapshots in memory.
type fakeStorage struct {
	stored []*models.OddsSnapshot
	splits []*models.SplitSnapshot
}

func (f *fakeStorage) Init(context.Context) error { return nil }

func (f *fakeStorage) Store(_ context.Context, s *models.OddsSnapshot) error {
	f.stored = append(f.stored, s)
	return nil
}

func (f *fakeStorage) StoreBatch(_ context.Context, snaps []*models.OddsSnapshot) error {
	f.stored = append(f.stored, snaps...)
	return nil
}

func (f *fakeStorage) StoreSplit(_ context.Context, s *models.SplitSnapshot) error {
	f.splits = append(f.splits, s)
	return nil
}

func (f *fakeStorage) Query(_ context.Context, _ models.Market, _, _ time.Time, _ int) ([]*models.OddsSnapshot, error) {
	return f.stored, nil
}

func (f *fakeStorage) Health(context.Context) error { return nil }

func (f *fakeStorage) Close() error { return nil }

// fakeMetrics counts snapshot rejections by reason.
type fakeMetrics struct {
	rejected map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{rejected: map[string]int{}} }

func (m *fakeMetrics) RecordSnapshotIngested(string, string) {}
func (m *fakeMetrics) RecordSnapshotRejected(reason string)  { m.rejected[reason]++ }
func (m *fakeMetrics) RecordError(string)                    {}
func (m *fakeMetrics) RecordLastIP(string, float64)          {}
func (m *fakeMetrics) RecordLatency(string, float64)         {}
func (m *fakeMetrics) RecordEvaluation(string)               {}
func (m *fakeMetrics) RecordSteamFlag(string)                {}

func vigTol() float64 { return config.DefaultAnalysis().VigTolerance }

func TestIngestStoresSnapshot(t *testing.T) {
	store := &fakeStorage{}
	uc := NewIngestUseCase(store, nil, vigTol())

	snap := &models.OddsSnapshot{
		Market:    evalMarket(),
		PriceHome: intPtr(-110),
		PriceAway: intPtr(-110),
	}
	if err := uc.Ingest(context.Background(), snap); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(store.stored) != 1 {
		t.Fatalf("stored %d snapshots, want 1", len(store.stored))
	}
	if store.stored[0].Timestamp.IsZero() {
		t.Fatalf("zero timestamp must default to now")
	}
}

func TestIngestRejectsPricelessSnapshot(t *testing.T) {
	store := &fakeStorage{}
	uc := NewIngestUseCase(store, nil, vigTol())

	snap := &models.OddsSnapshot{Market: evalMarket()}
	if err := uc.Ingest(context.Background(), snap); err == nil {
		t.Fatalf("snapshot without prices must be rejected")
	}
	if len(store.stored) != 0 {
		t.Fatalf("rejected snapshot must not reach storage")
	}
}

func TestIngestRejectsMalformedOdds(t *testing.T) {
	store := &fakeStorage{}
	metrics := newFakeMetrics()
	uc := NewIngestUseCase(store, metrics, vigTol())

	snap := &models.OddsSnapshot{Market: evalMarket(), PriceHome: intPtr(0), PriceAway: intPtr(-110)}
	err := uc.Ingest(context.Background(), snap)
	if !errors.Is(err, oddsmath.ErrOutOfRangeOdds) {
		t.Fatalf("zero american price must reject with ErrOutOfRangeOdds, got %v", err)
	}
	if len(store.stored) != 0 {
		t.Fatalf("rejected snapshot must not reach storage")
	}
	if metrics.rejected["invalid_odds"] != 1 {
		t.Fatalf("rejection must be counted, got %v", metrics.rejected)
	}
}

func TestIngestRejectsOverroundQuote(t *testing.T) {
	store := &fakeStorage{}
	metrics := newFakeMetrics()
	uc := NewIngestUseCase(store, metrics, vigTol())

	// -200/-200 sums to ~1.33 implied, far past any plausible vig.
	snap := &models.OddsSnapshot{Market: evalMarket(), PriceHome: intPtr(-200), PriceAway: intPtr(-200)}
	err := uc.Ingest(context.Background(), snap)
	if !errors.Is(err, oddsmath.ErrOutOfRangeOdds) {
		t.Fatalf("over-tolerance two-way quote must reject with ErrOutOfRangeOdds, got %v", err)
	}
	if len(store.stored) != 0 {
		t.Fatalf("rejected snapshot must not reach storage")
	}
	if metrics.rejected["invalid_odds"] != 1 {
		t.Fatalf("rejection must be counted, got %v", metrics.rejected)
	}
}

func TestKafkaHandlerRejectsMalformedOdds(t *testing.T) {
	store := &fakeStorage{}
	metrics := newFakeMetrics()
	h := NewKafkaSnapshotsHandler("odds", store, metrics, vigTol())

	for _, msg := range []string{
		`{"kind":"odds","sport":"nba","event_id":"e1","market_type":"spread","book":"pinny","ts":1768478400,"price_home":0,"price_away":-110}`,
		`{"kind":"odds","sport":"nba","event_id":"e1","market_type":"spread","book":"pinny","ts":1768478400,"price_home":-200,"price_away":-200}`,
	} {
		// nil error: a bad quote is dropped and committed, never redelivered.
		if err := h.Handle(context.Background(), []byte(msg)); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(store.stored) != 0 {
		t.Fatalf("malformed odds must not reach storage, stored %d", len(store.stored))
	}
	if metrics.rejected["invalid_odds"] != 2 {
		t.Fatalf("rejections must be counted, got %v", metrics.rejected)
	}
}

func TestKafkaHandlerStoresValidOdds(t *testing.T) {
	store := &fakeStorage{}
	metrics := newFakeMetrics()
	h := NewKafkaSnapshotsHandler("odds", store, metrics, vigTol())

	msg := `{"kind":"odds","sport":"nba","event_id":"e1","market_type":"spread","book":"pinny","ts":1768478400,"price_home":-110,"price_away":-110}`
	if err := h.Handle(context.Background(), []byte(msg)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.stored) != 1 {
		t.Fatalf("stored %d snapshots, want 1", len(store.stored))
	}
	if metrics.rejected["invalid_odds"] != 0 {
		t.Fatalf("valid quote must not be rejected, got %v", metrics.rejected)
	}
}

func TestIngestRequiresEventID(t *testing.T) {
	uc := NewIngestUseCase(&fakeStorage{}, nil, vigTol())
	snap := &models.OddsSnapshot{PriceHome: intPtr(-110)}
	if err := uc.Ingest(context.Background(), snap); err == nil {
		t.Fatalf("empty event_id must be rejected")
	}
}

func TestIngestNormalizesMarketType(t *testing.T) {
	store := &fakeStorage{}
	uc := NewIngestUseCase(store, nil, vigTol())

	m := evalMarket()
	m.Type = models.MarketType("juice")
	snap := &models.OddsSnapshot{Market: m, PriceHome: intPtr(-110), PriceAway: intPtr(-110)}
	if err := uc.Ingest(context.Background(), snap); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if store.stored[0].Market.Type != models.MarketSpread {
		t.Fatalf("invalid market type must normalize to spread, got %s", store.stored[0].Market.Type)
	}
}
