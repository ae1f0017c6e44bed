package forecast

import (
	"errors"
	"testing"
	"time"

	"OddsPulse/internal/domain/models"
	"OddsPulse/internal/services/ta"
	"OddsPulse/pkg/config"
)

func forecastCfg() config.Analysis {
	cfg := config.DefaultAnalysis()
	cfg.MomentumPeriod = 1
	cfg.RSIPeriod = 3
	cfg.ZScoreLookback = 3
	cfg.ATRLookback = 3
	cfg.AdaptiveBasePeriod = 2
	cfg.AdaptiveMaxPeriod = 4
	return cfg
}

func makeSeries(mt models.MarketType, ips []float64, line *float64) models.IPSeries {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	s := models.IPSeries{Market: models.Market{Sport: "nba", EventID: "e1", Type: mt, Book: "pinny"}}
	for i, ip := range ips {
		s.Points = append(s.Points, models.IPPoint{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			IPHome:    ip,
			IPAway:    1 - ip,
			Line:      line,
		})
	}
	return s
}

func TestForecastRisingSpread(t *testing.T) {
	line := -3.5
	series := makeSeries(models.MarketSpread, []float64{0.50, 0.52, 0.55, 0.60}, &line)

	fc, err := NewForecaster(forecastCfg()).Forecast(series, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.Unit != models.UnitPoints {
		t.Fatalf("spread forecast must be in points, got %s", fc.Unit)
	}
	if fc.ProjectedIP <= 0.60 {
		t.Fatalf("rising momentum must project IP above current, got %v", fc.ProjectedIP)
	}
	if fc.ProjectedIP >= 1 {
		t.Fatalf("projection must be clamped below 1, got %v", fc.ProjectedIP)
	}
	if fc.ConfidenceLow > fc.ProjectedValue || fc.ProjectedValue > fc.ConfidenceHigh {
		t.Fatalf("projection %v outside its own interval [%v, %v]", fc.ProjectedValue, fc.ConfidenceLow, fc.ConfidenceHigh)
	}
}

func TestForecastMoneylineUnit(t *testing.T) {
	series := makeSeries(models.MarketMoneyline, []float64{0.50, 0.52, 0.55, 0.60}, nil)
	fc, err := NewForecaster(forecastCfg()).Forecast(series, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.Unit != models.UnitOdds {
		t.Fatalf("moneyline forecast must be in odds, got %s", fc.Unit)
	}
	// Projected IP above 0.5 prices as a negative American favorite.
	if fc.ProjectedValue >= 0 {
		t.Fatalf("favorite projection must be negative American odds, got %v", fc.ProjectedValue)
	}
	if fc.ConfidenceLow > fc.ConfidenceHigh {
		t.Fatalf("interval bounds out of order: [%v, %v]", fc.ConfidenceLow, fc.ConfidenceHigh)
	}
}

func TestForecastCIWidensWithHorizon(t *testing.T) {
	line := 210.5
	// Constant drift keeps the quadratic term flat so no horizon hits the
	// (0,1) clamp and the √h scaling is observable directly.
	series := makeSeries(models.MarketTotal, []float64{0.50, 0.51, 0.52, 0.53, 0.54, 0.55}, &line)
	f := NewForecaster(forecastCfg())

	prev := -1.0
	for _, h := range []int{1, 2, 4, 8, 16} {
		fc, err := f.Forecast(series, h)
		if err != nil {
			t.Fatalf("h=%d: %v", h, err)
		}
		width := fc.ConfidenceHigh - fc.ConfidenceLow
		if width < prev {
			t.Fatalf("CI width must be non-decreasing in horizon: h=%d width=%v prev=%v", h, width, prev)
		}
		prev = width
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	series := makeSeries(models.MarketSpread, []float64{0.50, 0.52}, nil)
	cfg := config.DefaultAnalysis() // default 14-windows
	_, err := NewForecaster(cfg).Forecast(series, 3)
	if !errors.Is(err, ta.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestForecastDeterminism(t *testing.T) {
	line := -6.5
	series := makeSeries(models.MarketSpread, []float64{0.55, 0.56, 0.54, 0.57, 0.58, 0.56, 0.59}, &line)
	f := NewForecaster(forecastCfg())
	a, err := f.Forecast(series, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := f.Forecast(series, 4)
	if a.ProjectedIP != b.ProjectedIP || a.ProjectedValue != b.ProjectedValue ||
		a.ConfidenceLow != b.ConfidenceLow || a.ConfidenceHigh != b.ConfidenceHigh {
		t.Fatalf("identical inputs must give bit-identical forecasts")
	}
}
