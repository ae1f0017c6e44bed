package models

import "time"

// Action is the terminal betting call.
type Action string

const (
	ActionBack Action = "Back"
	ActionFade Action = "Fade"
	ActionHold Action = "Hold"
)

// ConfidenceTier grades how strongly the decision rules fired.
type ConfidenceTier string

const (
	TierStrong   ConfidenceTier = "Strong"
	TierModerate ConfidenceTier = "Moderate"
	TierWeak     ConfidenceTier = "Weak"
)

// ReasonCode identifies which decision rule or signal contributed to a
// recommendation. Rationale text is assembled from these, so tests assert on
// codes independent of wording.
type ReasonCode string

const (
	ReasonNoForecast        ReasonCode = "no_forecast"
	ReasonInsufficientData  ReasonCode = "insufficient_history"
	ReasonSteamAgreement    ReasonCode = "steam_forecast_agreement"
	ReasonMomentumDivergence ReasonCode = "forecast_momentum_divergence"
	ReasonNoSignal          ReasonCode = "no_actionable_signal"
	ReasonNegativeKelly     ReasonCode = "negative_kelly"
)

// Recommendation is the terminal output of one evaluation. Immutable once
// produced; consumed only by presentation.
type Recommendation struct {
	Market        Market         `json:"market"`
	Timestamp     time.Time      `json:"timestamp"`
	Action        Action         `json:"action"`
	Side          string         `json:"side,omitempty"`
	EV            float64        `json:"ev"`
	KellyFraction float64        `json:"kelly_fraction"`
	Confidence    ConfidenceTier `json:"confidence_tier"`
	Reasons       []ReasonCode   `json:"reasons"`
	Rationale     string         `json:"rationale"`
}

// HasReason reports whether code is among the recommendation's reasons.
func (r Recommendation) HasReason(code ReasonCode) bool {
	for _, c := range r.Reasons {
		if c == code {
			return true
		}
	}
	return false
}

// MarketEvaluation is the consolidated view of one market evaluation exposed
// to presentation: the latest indicator set, steam flag, forecast and
// recommendation. Per-component failures land in Errors instead of aborting
// the whole evaluation.
type MarketEvaluation struct {
	Market         Market            `json:"market"`
	Timestamp      time.Time         `json:"timestamp"`
	Indicators     *IndicatorSet     `json:"indicators,omitempty"`
	Steam          *SteamFlag        `json:"steam,omitempty"`
	Forecast       *Forecast         `json:"forecast,omitempty"`
	Recommendation *Recommendation   `json:"recommendation,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
}
