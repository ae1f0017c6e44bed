package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"OddsPulse/internal/domain/models"
	"OddsPulse/internal/services/forecast"
	"OddsPulse/internal/services/recommend"
	"OddsPulse/internal/services/steam"
	"OddsPulse/internal/services/ta"
	"OddsPulse/pkg/config"
)

// fakeReader serves canned snapshot history, newest last.
type fakeReader struct {
	snaps    []models.OddsSnapshot
	split    *models.SplitSnapshot
	err      error
	splitErr error
}

func (f *fakeReader) GetSnapshots(_ context.Context, _ models.Market, n int) ([]models.OddsSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	if n > 0 && n < len(f.snaps) {
		return f.snaps[len(f.snaps)-n:], nil
	}
	return f.snaps, nil
}

func (f *fakeReader) GetLatestSplit(_ context.Context, _ string, _ models.MarketType) (*models.SplitSnapshot, error) {
	if f.splitErr != nil {
		return nil, f.splitErr
	}
	return f.split, nil
}

func evalMarket() models.Market {
	return models.Market{Sport: "nba", EventID: "LAL-BOS-20260115", Type: models.MarketSpread, Book: "pinny"}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// snapsFromPrices builds one snapshot per home price, mirrored so the pair
// carries no vig: home -p, away +p gives IP home = p/(100+p).
func snapsFromPrices(homePrices []int) []models.OddsSnapshot {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	m := evalMarket()
	out := make([]models.OddsSnapshot, 0, len(homePrices))
	for i, p := range homePrices {
		out = append(out, models.OddsSnapshot{
			Market:    m,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Line:      floatPtr(-3.5),
			PriceHome: intPtr(-p),
			PriceAway: intPtr(p),
		})
	}
	return out
}

func smallCfg() config.Analysis {
	cfg := config.DefaultAnalysis()
	cfg.MomentumPeriod = 1
	cfg.RSIPeriod = 3
	cfg.ZScoreLookback = 3
	cfg.SMAPeriod = 3
	cfg.ATRLookback = 3
	cfg.AdaptiveBasePeriod = 2
	cfg.AdaptiveMaxPeriod = 4
	cfg.BollingerLookback = 3
	cfg.FibSwingLookback = 10
	return cfg
}

func newEvaluator(cfg config.Analysis, store *fakeReader) *MarketEvaluator {
	return NewMarketEvaluator(store,
		ta.NewEngine(cfg),
		steam.NewDetector(cfg),
		forecast.NewForecaster(cfg),
		recommend.NewEngine(cfg),
		cfg,
	)
}

func TestIndicatorsFromStore(t *testing.T) {
	store := &fakeReader{snaps: snapsFromPrices([]int{100, 105, 110, 115, 120, 125})}
	e := newEvaluator(smallCfg(), store)

	set, err := e.Indicators(context.Background(), evalMarket())
	if err != nil {
		t.Fatalf("indicators: %v", err)
	}
	if set.DataPoints != 6 {
		t.Fatalf("data points = %d, want 6", set.DataPoints)
	}
	// -125/+125 is a fair 125/225.
	if set.CurrentIP < 0.55 || set.CurrentIP > 0.56 {
		t.Fatalf("current IP = %v, want ~0.5556", set.CurrentIP)
	}
	if set.MomentumVelocity == nil || *set.MomentumVelocity <= 0 {
		t.Fatalf("steadily shortening home price must yield positive MOM-V, got %+v", set.MomentumVelocity)
	}
}

func TestIndicatorsStoreError(t *testing.T) {
	store := &fakeReader{err: errors.New("clickhouse down")}
	e := newEvaluator(smallCfg(), store)

	if _, err := e.Indicators(context.Background(), evalMarket()); err == nil {
		t.Fatalf("store failure must surface as an error")
	}
}

func TestSteamConfirmedBySplits(t *testing.T) {
	// Three quiet ticks then a violent move home: |MOM-V| clears 1.5x ATR.
	store := &fakeReader{
		snaps: snapsFromPrices([]int{100, 101, 102, 103, 140}),
		split: &models.SplitSnapshot{
			EventID:      evalMarket().EventID,
			Type:         models.MarketSpread,
			BetPctHome:   40,
			MoneyPctHome: 65,
		},
	}
	e := newEvaluator(smallCfg(), store)

	flag, err := e.Steam(context.Background(), evalMarket())
	if err != nil {
		t.Fatalf("steam: %v", err)
	}
	if !flag.Active {
		t.Fatalf("confirmed sharp move must flag steam, got %+v", flag)
	}
	if flag.Direction != 1 {
		t.Fatalf("move toward home must have direction +1, got %d", flag.Direction)
	}
	if flag.Magnitude <= 0 || flag.Magnitude >= 1 {
		t.Fatalf("magnitude must be in (0,1), got %v", flag.Magnitude)
	}
	found := false
	for _, s := range flag.Signals {
		if s == "splits" {
			found = true
		}
	}
	if !found {
		t.Fatalf("splits confirmation must be recorded in signals, got %v", flag.Signals)
	}
}

func TestSteamVetoedBySplits(t *testing.T) {
	// Same price action, but public money explains the move.
	store := &fakeReader{
		snaps: snapsFromPrices([]int{100, 101, 102, 103, 140}),
		split: &models.SplitSnapshot{
			EventID:      evalMarket().EventID,
			Type:         models.MarketSpread,
			BetPctHome:   70,
			MoneyPctHome: 40,
		},
	}
	e := newEvaluator(smallCfg(), store)

	flag, err := e.Steam(context.Background(), evalMarket())
	if err != nil {
		t.Fatalf("steam: %v", err)
	}
	if flag.Active {
		t.Fatalf("public-money move must not flag steam, got %+v", flag)
	}
}

func TestSteamDegradesWithoutSplits(t *testing.T) {
	store := &fakeReader{
		snaps:    snapsFromPrices([]int{100, 101, 102, 103, 140}),
		splitErr: errors.New("splits table empty"),
	}
	e := newEvaluator(smallCfg(), store)

	flag, err := e.Steam(context.Background(), evalMarket())
	if err != nil {
		t.Fatalf("missing splits must degrade to price-only, not fail: %v", err)
	}
	if !flag.Active {
		t.Fatalf("price-only detection must still fire on the raw move")
	}
}

func TestRecommendShortHistory(t *testing.T) {
	// Default windows against 3 observations: no forecast, insufficient history.
	store := &fakeReader{snaps: snapsFromPrices([]int{100, 105, 110})}
	e := newEvaluator(config.DefaultAnalysis(), store)

	rec, err := e.Recommend(context.Background(), evalMarket(), 6)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.Action != models.ActionHold {
		t.Fatalf("short history must hold, got %s", rec.Action)
	}
	if rec.Confidence != models.TierWeak {
		t.Fatalf("short history must grade weak, got %s", rec.Confidence)
	}
	if !rec.HasReason(models.ReasonNoForecast) {
		t.Fatalf("missing forecast must be among reasons, got %v", rec.Reasons)
	}
}

func TestForecastWidensWithHorizon(t *testing.T) {
	prices := []int{100, 102, 101, 104, 103, 106, 105, 108, 107, 110, 109, 112}
	store := &fakeReader{snaps: snapsFromPrices(prices)}
	e := newEvaluator(smallCfg(), store)

	near, err := e.Forecast(context.Background(), evalMarket(), 1)
	if err != nil {
		t.Fatalf("forecast h=1: %v", err)
	}
	far, err := e.Forecast(context.Background(), evalMarket(), 9)
	if err != nil {
		t.Fatalf("forecast h=9: %v", err)
	}
	if near.Unit != models.UnitPoints {
		t.Fatalf("spread forecast must be in points, got %s", near.Unit)
	}
	nearWidth := near.ConfidenceHigh - near.ConfidenceLow
	farWidth := far.ConfidenceHigh - far.ConfidenceLow
	if farWidth <= nearWidth {
		t.Fatalf("interval must widen with horizon: h=1 width %v, h=9 width %v", nearWidth, farWidth)
	}
}

func TestEvaluateRequiresEventID(t *testing.T) {
	uc := NewEvaluateUseCase(newEvaluator(smallCfg(), &fakeReader{}))
	if _, err := uc.Evaluate(context.Background(), EvaluateParams{Sport: "nba"}); err == nil {
		t.Fatalf("empty event_id must be rejected")
	}
}

func TestEvaluateAggregates(t *testing.T) {
	prices := []int{100, 102, 101, 104, 103, 106, 105, 108, 107, 110, 109, 112}
	store := &fakeReader{snaps: snapsFromPrices(prices)}
	uc := NewEvaluateUseCase(newEvaluator(smallCfg(), store))

	res, err := uc.Evaluate(context.Background(), EvaluateParams{
		Sport:   "nba",
		EventID: evalMarket().EventID,
		Type:    models.MarketType("juice"), // invalid, normalized to default
		Book:    "pinny",
		Horizon: 4,
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Market.Type != models.MarketSpread {
		t.Fatalf("invalid market type must normalize to spread, got %s", res.Market.Type)
	}
	if res.Errors != nil {
		t.Fatalf("healthy store must produce no component errors, got %v", res.Errors)
	}
	if res.Indicators == nil || res.Steam == nil || res.Forecast == nil || res.Recommendation == nil {
		t.Fatalf("all four components must be present: %+v", res)
	}
	if res.Forecast.Horizon != 4 {
		t.Fatalf("horizon must pass through, got %d", res.Forecast.Horizon)
	}
}

func TestEvaluateCollectsComponentErrors(t *testing.T) {
	uc := NewEvaluateUseCase(newEvaluator(smallCfg(), &fakeReader{err: errors.New("clickhouse down")}))

	res, err := uc.Evaluate(context.Background(), EvaluateParams{
		Sport:   "nba",
		EventID: evalMarket().EventID,
		Type:    models.MarketSpread,
		Book:    "pinny",
	})
	if err != nil {
		t.Fatalf("component failures must not abort the evaluation: %v", err)
	}
	for _, name := range []string{"indicators", "steam", "forecast", "recommendation"} {
		if _, ok := res.Errors[name]; !ok {
			t.Fatalf("component %q must report its error, got %v", name, res.Errors)
		}
	}
}
