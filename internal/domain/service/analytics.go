package service

import (
	"OddsPulse/internal/domain/models"
)

// The pipeline components behind the evaluator. All implementations are pure
// functions of their inputs with no I/O or shared state, so none of them
// takes a context: an evaluation either runs to completion or never starts.

// IndicatorEngine evaluates the indicator library against an IP series.
type IndicatorEngine interface {
	Evaluate(series models.IPSeries) *models.IndicatorSet
}

// SteamDetector flags sharp-money moves from indicator state and optional
// betting splits.
type SteamDetector interface {
	Detect(set *models.IndicatorSet, splits *models.SplitSnapshot) models.SteamFlag
}

// Forecaster projects the series forward by h observation steps.
type Forecaster interface {
	Forecast(series models.IPSeries, h int) (*models.Forecast, error)
}

// Recommender fuses indicator state, steam and forecast into the terminal
// betting call.
type Recommender interface {
	Decide(set *models.IndicatorSet, flag models.SteamFlag, fc *models.Forecast, latest *models.OddsSnapshot) models.Recommendation
}
