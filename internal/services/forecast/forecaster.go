// Package forecast projects a market's implied-probability series forward
// over a short horizon and converts the projection to native units.
package forecast

import (
	"fmt"
	"math"

	"OddsPulse/internal/domain/models"
	"OddsPulse/internal/services/ta"
	"OddsPulse/pkg/config"
	"OddsPulse/pkg/oddsmath"
)

// ipClamp keeps projections strictly inside (0,1) so they stay convertible
// to odds.
const ipClamp = 1e-4

// Forecaster produces line movement forecasts. Stateless and pure.
type Forecaster struct {
	cfg config.Analysis
}

// NewForecaster creates a forecaster with the given analysis config.
func NewForecaster(cfg config.Analysis) *Forecaster {
	return &Forecaster{cfg: cfg}
}

// Forecast projects the series h observation steps forward.
//
// The projection is local linear/quadratic in IP space: the trend slope of
// the adaptive moving average blended with current MOM-V, plus a ½h²·MOM-A
// curvature term. The confidence interval width is CIScale × ATR × √h, the
// random-walk scaling under which uncertainty compounds with horizon. The IP
// projection
// is converted to the market's native unit: points for spread/total through
// the configured points-per-IP slope, American odds for moneylines through
// the inverse normalizer.
//
// ErrInsufficientHistory when the series cannot support the underlying
// indicators; callers surface that as "no forecast available".
func (f *Forecaster) Forecast(series models.IPSeries, h int) (*models.Forecast, error) {
	if h <= 0 {
		h = f.cfg.ForecastHorizon
	}
	if series.Len() < f.cfg.MinObservations() {
		return nil, fmt.Errorf("series has %d observations, need %d: %w",
			series.Len(), f.cfg.MinObservations(), ta.ErrInsufficientHistory)
	}

	values := series.HomeValues()
	latest, _ := series.Latest()
	current := latest.IPHome

	momV, momA, hasAccel, err := ta.Momentum(values, f.cfg.MomentumPeriod)
	if err != nil {
		return nil, err
	}
	atr, err := ta.ATR(values, f.cfg.ATRLookback)
	if err != nil {
		return nil, err
	}
	trend, err := f.adaptiveTrend(values)
	if err != nil {
		return nil, err
	}

	fh := float64(h)
	proj := current + fh*(trend+momV)/2.0
	if hasAccel {
		proj += 0.5 * fh * fh * momA
	}
	proj = clamp(proj)

	width := f.cfg.CIScale * atr * math.Sqrt(fh)
	ipLow := clamp(proj - width/2.0)
	ipHigh := clamp(proj + width/2.0)

	out := &models.Forecast{
		Market:      series.Market,
		Timestamp:   latest.Timestamp,
		Horizon:     h,
		ProjectedIP: proj,
	}
	switch series.Market.Type {
	case models.MarketMoneyline:
		out.Unit = models.UnitOdds
		if out.ProjectedValue, out.ConfidenceLow, out.ConfidenceHigh, err = f.toOdds(proj, ipLow, ipHigh); err != nil {
			return nil, err
		}
	case models.MarketSpread, models.MarketTotal:
		out.Unit = models.UnitPoints
		line := 0.0
		if latest.Line != nil {
			line = *latest.Line
		}
		out.ProjectedValue = line + f.cfg.PointsPerIP*(proj-current)
		out.ConfidenceLow = line + f.cfg.PointsPerIP*(ipLow-current)
		out.ConfidenceHigh = line + f.cfg.PointsPerIP*(ipHigh-current)
	default:
		out.Unit = models.UnitIP
		out.ProjectedValue = proj
		out.ConfidenceLow = ipLow
		out.ConfidenceHigh = ipHigh
	}
	return out, nil
}

// adaptiveTrend is the one-step slope of the adaptive moving average.
func (f *Forecaster) adaptiveTrend(values []float64) (float64, error) {
	now, err := ta.AdaptiveMA(values, f.cfg.AdaptiveBasePeriod, f.cfg.AdaptiveMaxPeriod, f.cfg.AdaptiveSensitivity)
	if err != nil {
		return 0, err
	}
	prev, err := ta.AdaptiveMA(values[:len(values)-1], f.cfg.AdaptiveBasePeriod, f.cfg.AdaptiveMaxPeriod, f.cfg.AdaptiveSensitivity)
	if err != nil {
		return 0, err
	}
	return now - prev, nil
}

// toOdds converts the IP projection and its interval to American odds,
// ordered so ConfidenceLow <= ConfidenceHigh numerically.
func (f *Forecaster) toOdds(proj, ipLow, ipHigh float64) (value, low, high float64, err error) {
	v, err := oddsmath.ProbToAmerican(proj)
	if err != nil {
		return 0, 0, 0, err
	}
	// Higher IP means a more negative American price, so the IP bounds swap.
	hi, err := oddsmath.ProbToAmerican(ipLow)
	if err != nil {
		return 0, 0, 0, err
	}
	lo, err := oddsmath.ProbToAmerican(ipHigh)
	if err != nil {
		return 0, 0, 0, err
	}
	return float64(v), float64(lo), float64(hi), nil
}

func clamp(v float64) float64 {
	if v < ipClamp {
		return ipClamp
	}
	if v > 1-ipClamp {
		return 1 - ipClamp
	}
	return v
}
