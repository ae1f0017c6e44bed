package models

import "time"

// Reasons an individual indicator can be unavailable. Unavailable indicators
// are marked explicitly in the IndicatorSet, never silently defaulted.
const (
	UnavailableInsufficientHistory = "insufficient_history"
	UnavailableDegenerateSeries    = "degenerate_series"
	UnavailableNoSwing             = "no_swing_detected"
	UnavailableNoLineData          = "no_line_data"
)

// FibLevels holds Fibonacci retracement and extension levels computed over
// the most recent local high/low swing, mapped back to IP space. Map keys are
// the ratio strings ("0.382", "1.618", ...).
type FibLevels struct {
	SwingHigh    float64            `json:"swing_high"`
	SwingLow     float64            `json:"swing_low"`
	Retracements map[string]float64 `json:"retracements"`
	Extensions   map[string]float64 `json:"extensions"`
}

// Greeks holds the options-style sensitivity analogs of the IP series:
// delta = d(IP)/dt (MOM-V), gamma = d²(IP)/dt² (MOM-A), vega = rate of
// change of ATR, the market's sensitivity to volatility regime shifts.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
}

// IndicatorSet is one evaluation of the indicator library against an IPSeries.
// Nil pointers mean "unavailable", with the reason recorded in Unavailable
// keyed by indicator name. Recomputed per call; read-only once returned.
type IndicatorSet struct {
	Market     Market    `json:"market"`
	Timestamp  time.Time `json:"timestamp"`
	CurrentIP  float64   `json:"current_ip"`
	DataPoints int       `json:"data_points"`

	// InsufficientHistory is set when the series is shorter than the largest
	// configured window; window indicators then report their neutral values.
	InsufficientHistory bool `json:"insufficient_history"`

	MomentumVelocity     *float64 `json:"momentum_velocity,omitempty"`
	MomentumAcceleration *float64 `json:"momentum_acceleration,omitempty"`
	// StepVelocity is the raw one-step IP change, unsmoothed by the momentum
	// period. The steam gate normalizes it against ATR.
	StepVelocity *float64 `json:"step_velocity,omitempty"`
	// Inflection flags a MOM-A sign change between consecutive evaluations.
	Inflection bool `json:"inflection"`

	RSI    *float64 `json:"rsi,omitempty"`
	ATR    *float64 `json:"atr,omitempty"`
	ZScore *float64 `json:"z_score,omitempty"`

	SMA        *float64 `json:"sma,omitempty"`
	AdaptiveMA *float64 `json:"adaptive_ma,omitempty"`

	BollingerWidth *float64 `json:"bollinger_width,omitempty"`

	Fib    *FibLevels `json:"fib,omitempty"`
	Greeks *Greeks    `json:"greeks,omitempty"`

	Unavailable map[string]string `json:"unavailable,omitempty"`
}

// MomV returns the momentum velocity or 0 when unavailable.
func (s *IndicatorSet) MomV() float64 {
	if s.MomentumVelocity == nil {
		return 0
	}
	return *s.MomentumVelocity
}

// ATRValue returns the ATR or 0 when unavailable.
func (s *IndicatorSet) ATRValue() float64 {
	if s.ATR == nil {
		return 0
	}
	return *s.ATR
}

// SteamFlag marks an abnormal, high-velocity synchronized move attributed to
// sharp money. Direction is +1 toward the home side, -1 toward the away side,
// 0 when inactive. Magnitude is the saturated velocity-over-threshold score
// in [0,1).
type SteamFlag struct {
	Market    Market    `json:"market"`
	Timestamp time.Time `json:"timestamp"`
	Active    bool      `json:"active"`
	Direction int       `json:"direction"`
	Magnitude float64   `json:"magnitude"`
	// Signals lists which detection inputs fired: momentum, zscore,
	// volatility, splits.
	Signals []string `json:"signals,omitempty"`
}
