package usecase

import (
	"context"
	"fmt"

	"OddsPulse/internal/domain/models"
	domrepo "OddsPulse/internal/domain/repository"
	domsvc "OddsPulse/internal/domain/service"
	"OddsPulse/internal/services/ta"
	"OddsPulse/pkg/config"
)

// MarketEvaluator runs the analysis pipeline for one market at a time. Each
// public method is self-contained: it loads the market's history, derives the
// implied-probability series and runs the component it answers for, so the
// per-endpoint handlers stay independent of each other.
type MarketEvaluator struct {
	store     domrepo.SnapshotReader
	engine    domsvc.IndicatorEngine
	steam     domsvc.SteamDetector
	forecast  domsvc.Forecaster
	recommend domsvc.Recommender
	cfg       config.Analysis
}

func NewMarketEvaluator(store domrepo.SnapshotReader, engine domsvc.IndicatorEngine, steam domsvc.SteamDetector, forecast domsvc.Forecaster, recommend domsvc.Recommender, cfg config.Analysis) *MarketEvaluator {
	return &MarketEvaluator{store: store, engine: engine, steam: steam, forecast: forecast, recommend: recommend, cfg: cfg}
}

// loadSeries fetches up to HistoryLen snapshots and derives the IP series.
// The latest raw snapshot comes back too: pricing needs the offered odds,
// not the no-vig series.
func (e *MarketEvaluator) loadSeries(ctx context.Context, market models.Market) (models.IPSeries, *models.OddsSnapshot, error) {
	snaps, err := e.store.GetSnapshots(ctx, market, e.cfg.HistoryLen)
	if err != nil {
		return models.IPSeries{}, nil, fmt.Errorf("load snapshots for %s: %w", market.Key(), err)
	}
	series, _ := ta.BuildIPSeries(market, snaps, e.cfg.VigTolerance)
	var latest *models.OddsSnapshot
	if len(snaps) > 0 {
		latest = &snaps[len(snaps)-1]
	}
	return series, latest, nil
}

// Indicators evaluates the full indicator library for the market.
func (e *MarketEvaluator) Indicators(ctx context.Context, market models.Market) (*models.IndicatorSet, error) {
	series, _, err := e.loadSeries(ctx, market)
	if err != nil {
		return nil, err
	}
	return e.engine.Evaluate(series), nil
}

// Steam detects sharp-money movement, confirmed against betting splits when
// the store has any. A missing split degrades to price-only detection.
func (e *MarketEvaluator) Steam(ctx context.Context, market models.Market) (models.SteamFlag, error) {
	series, _, err := e.loadSeries(ctx, market)
	if err != nil {
		return models.SteamFlag{}, err
	}
	set := e.engine.Evaluate(series)
	split, err := e.store.GetLatestSplit(ctx, market.EventID, market.Type)
	if err != nil {
		split = nil
	}
	return e.steam.Detect(set, split), nil
}

// Forecast projects the market h observation steps forward.
func (e *MarketEvaluator) Forecast(ctx context.Context, market models.Market, h int) (*models.Forecast, error) {
	series, _, err := e.loadSeries(ctx, market)
	if err != nil {
		return nil, err
	}
	return e.forecast.Forecast(series, h)
}

// Recommend runs the whole pipeline and returns the terminal call. A failed
// forecast is not an error here: the decision rules treat it as "no forecast"
// and hold.
func (e *MarketEvaluator) Recommend(ctx context.Context, market models.Market, h int) (models.Recommendation, error) {
	series, latest, err := e.loadSeries(ctx, market)
	if err != nil {
		return models.Recommendation{}, err
	}
	set := e.engine.Evaluate(series)
	split, err := e.store.GetLatestSplit(ctx, market.EventID, market.Type)
	if err != nil {
		split = nil
	}
	flag := e.steam.Detect(set, split)
	fc, _ := e.forecast.Forecast(series, h)
	return e.recommend.Decide(set, flag, fc, latest), nil
}
