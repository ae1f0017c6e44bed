package ta

import (
	"errors"

	"OddsPulse/internal/domain/models"
	"OddsPulse/pkg/config"
)

// Engine evaluates the full indicator library against an IPSeries. It is
// stateless: every call is a pure function of the series and the analysis
// configuration, so evaluations are replayable and safe to run concurrently
// across markets.
type Engine struct {
	cfg config.Analysis
}

// NewEngine creates an indicator engine with the given analysis config.
func NewEngine(cfg config.Analysis) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate computes an IndicatorSet at the newest point of the series.
//
// Computation runs in two phases: phase one covers the order-independent
// indicators (momentum, RSI, ATR, z-score, SMA, Bollinger, Fibonacci,
// greeks); phase two covers the adaptive MA, which depends on the volatility
// measured in phase one. Per-indicator failures degrade that indicator only,
// recorded in Unavailable, and never abort the set.
func (e *Engine) Evaluate(series models.IPSeries) *models.IndicatorSet {
	set := &models.IndicatorSet{
		Market:      series.Market,
		Unavailable: map[string]string{},
	}
	latest, ok := series.Latest()
	if !ok {
		set.InsufficientHistory = true
		set.Unavailable["series"] = models.UnavailableInsufficientHistory
		return set
	}
	set.Timestamp = latest.Timestamp
	set.CurrentIP = latest.IPHome
	set.DataPoints = series.Len()
	set.InsufficientHistory = series.Len() < e.cfg.MinObservations()

	values := series.HomeValues()
	if n := len(values); n >= 2 {
		step := values[n-1] - values[n-2]
		set.StepVelocity = &step
	}

	// Phase one: order-independent indicators.
	vel, accel, hasAccel, err := Momentum(values, e.cfg.MomentumPeriod)
	switch {
	case err != nil:
		set.Unavailable["momentum"] = models.UnavailableInsufficientHistory
	case hasAccel:
		set.MomentumVelocity = &vel
		set.MomentumAcceleration = &accel
		set.Inflection = e.accelSignFlipped(values, accel)
	default:
		set.MomentumVelocity = &vel
		set.Unavailable["momentum_acceleration"] = models.UnavailableInsufficientHistory
	}

	rsi, err := RSI(values, e.cfg.RSIPeriod)
	// RSI's defined neutral on short history is 50; still mark it so the
	// number is never mistaken for a computed one.
	if err != nil {
		set.Unavailable["rsi"] = models.UnavailableInsufficientHistory
	}
	set.RSI = &rsi

	if atr, err := ATR(values, e.cfg.ATRLookback); err != nil {
		set.Unavailable["atr"] = models.UnavailableInsufficientHistory
	} else {
		set.ATR = &atr
	}

	if z, err := ZScore(values, e.cfg.ZScoreLookback); err != nil {
		set.Unavailable["z_score"] = models.UnavailableInsufficientHistory
	} else {
		set.ZScore = &z
	}

	if sma, err := SMA(values, e.cfg.SMAPeriod); err != nil {
		set.Unavailable["sma"] = models.UnavailableInsufficientHistory
	} else {
		set.SMA = &sma
	}

	if bw, err := BollingerWidth(values, e.cfg.BollingerLookback, e.cfg.BollingerK); err != nil {
		if errors.Is(err, ErrDegenerateSeries) {
			set.Unavailable["bollinger_width"] = models.UnavailableDegenerateSeries
		} else {
			set.Unavailable["bollinger_width"] = models.UnavailableInsufficientHistory
		}
	} else {
		set.BollingerWidth = &bw
	}

	if high, low, retr, ext, err := SwingLevels(values, e.cfg.FibSwingLookback); err != nil {
		if errors.Is(err, ErrNoSwingDetected) {
			set.Unavailable["fib"] = models.UnavailableNoSwing
		} else {
			set.Unavailable["fib"] = models.UnavailableInsufficientHistory
		}
	} else {
		set.Fib = &models.FibLevels{SwingHigh: high, SwingLow: low, Retracements: retr, Extensions: ext}
	}

	if g, ok := e.greeks(values); ok {
		set.Greeks = g
	} else {
		set.Unavailable["greeks"] = models.UnavailableInsufficientHistory
	}

	// Phase two: the adaptive MA needs the volatility regime from phase one.
	if ama, err := AdaptiveMA(values, e.cfg.AdaptiveBasePeriod, e.cfg.AdaptiveMaxPeriod, e.cfg.AdaptiveSensitivity); err != nil {
		set.Unavailable["adaptive_ma"] = models.UnavailableInsufficientHistory
	} else {
		set.AdaptiveMA = &ama
	}

	if len(set.Unavailable) == 0 {
		set.Unavailable = nil
	}
	return set
}

// greeks derives the sensitivity analogs: delta = MOM-V, gamma = MOM-A,
// vega = one-step rate of change of ATR.
func (e *Engine) greeks(values []float64) (*models.Greeks, bool) {
	vel, accel, hasAccel, err := Momentum(values, e.cfg.MomentumPeriod)
	if err != nil || !hasAccel {
		return nil, false
	}
	atrNow, err := ATR(values, e.cfg.ATRLookback)
	if err != nil {
		return nil, false
	}
	atrPrev, err := ATR(values[:len(values)-1], e.cfg.ATRLookback)
	if err != nil {
		return nil, false
	}
	return &models.Greeks{Delta: vel, Gamma: accel, Vega: atrNow - atrPrev}, true
}

// accelSignFlipped reports whether MOM-A changed sign between the previous
// evaluation point and now. Derived purely from the series, so replay gives
// identical flags.
func (e *Engine) accelSignFlipped(values []float64, accelNow float64) bool {
	if len(values) < 2 {
		return false
	}
	_, prev, hasPrev, err := Momentum(values[:len(values)-1], e.cfg.MomentumPeriod)
	if err != nil || !hasPrev {
		return false
	}
	return (prev < 0 && accelNow > 0) || (prev > 0 && accelNow < 0)
}
