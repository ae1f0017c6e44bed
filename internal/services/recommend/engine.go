// Package recommend fuses indicator state, steam signals and the line
// movement forecast into a terminal Back/Fade/Hold call with a quantified
// edge.
package recommend

import (
	"fmt"
	"math"
	"strings"

	"OddsPulse/internal/domain/models"
	"OddsPulse/pkg/config"
	"OddsPulse/pkg/oddsmath"
)

// Engine is the decision layer. One Decide call is a single
// Evaluating→Decided pass; nothing persists across evaluations.
type Engine struct {
	cfg config.Analysis
}

// NewEngine creates a recommendation engine with the given analysis config.
func NewEngine(cfg config.Analysis) *Engine {
	return &Engine{cfg: cfg}
}

// Decide applies the decision rules in priority order, first match wins:
//
//  1. no forecast or insufficient history → Hold, Weak
//  2. active steam agreeing with the forecast direction → Back the steam
//     side, Strong
//  3. forecast disagreeing with momentum beyond the divergence threshold →
//     Fade the current move, Moderate or Strong with the size of the
//     disagreement
//  4. otherwise → Hold, Moderate
//
// p_win comes from the forecast's projected IP, not the market's current IP:
// the edge claim is precisely that the two differ. The payout side of EV and
// Kelly uses the offered odds from the latest snapshot when present (vig
// included), falling back to the fair price otherwise. A negative Kelly
// fraction forces Hold regardless of which rule fired.
func (e *Engine) Decide(set *models.IndicatorSet, flag models.SteamFlag, fc *models.Forecast, latest *models.OddsSnapshot) models.Recommendation {
	rec := models.Recommendation{
		Market:     set.Market,
		Timestamp:  set.Timestamp,
		Action:     models.ActionHold,
		Confidence: models.TierWeak,
	}

	// Rule 1: nothing trustworthy to act on.
	if fc == nil || set.InsufficientHistory {
		if set.InsufficientHistory {
			rec.Reasons = append(rec.Reasons, models.ReasonInsufficientData)
		}
		if fc == nil {
			rec.Reasons = append(rec.Reasons, models.ReasonNoForecast)
		}
		rec.Rationale = e.rationale(rec, set, flag, fc)
		return rec
	}

	current := set.CurrentIP
	fcDir := fc.Direction(current)
	momV := set.MomV()

	// Rule 2: sharp money and the model agree.
	if flag.Active && fcDir != 0 && flag.Direction == fcDir {
		rec.Action = models.ActionBack
		rec.Confidence = models.TierStrong
		rec.Side = sideName(flag.Direction)
		rec.Reasons = append(rec.Reasons, models.ReasonSteamAgreement)
		e.price(&rec, fc, current, flag.Direction, latest)
		rec.Rationale = e.rationale(rec, set, flag, fc)
		return rec
	}

	// Rule 3: the model fights the tape.
	divergence := math.Abs(fc.ProjectedIP - current)
	if momV != 0 && fcDir != 0 && sign(momV) != fcDir && divergence > e.cfg.FadeDivergence {
		rec.Action = models.ActionFade
		rec.Confidence = models.TierModerate
		if divergence > 2*e.cfg.FadeDivergence {
			rec.Confidence = models.TierStrong
		}
		// Fading the move means backing the side the line is drifting away
		// from, which is the forecast's side.
		rec.Side = sideName(fcDir)
		rec.Reasons = append(rec.Reasons, models.ReasonMomentumDivergence)
		e.price(&rec, fc, current, fcDir, latest)
		rec.Rationale = e.rationale(rec, set, flag, fc)
		return rec
	}

	// Rule 4: nothing actionable.
	rec.Confidence = models.TierModerate
	rec.Reasons = append(rec.Reasons, models.ReasonNoSignal)
	rec.Rationale = e.rationale(rec, set, flag, fc)
	return rec
}

// price fills EV and the capped Kelly fraction for backing the given side,
// with p_win taken from the projected IP and the payout from the offered
// odds. Negative raw Kelly zeroes the stake and demotes the action to Hold.
func (e *Engine) price(rec *models.Recommendation, fc *models.Forecast, currentIP float64, direction int, latest *models.OddsSnapshot) {
	p := fc.ProjectedIP
	mkt := currentIP
	if direction < 0 {
		p = 1 - p
		mkt = 1 - mkt
	}
	if mkt <= 0 || mkt >= 1 {
		rec.Action = models.ActionHold
		rec.Reasons = append(rec.Reasons, models.ReasonNegativeKelly)
		return
	}

	b := payoutRatio(latest, direction, mkt)
	q := 1 - p
	rec.EV = p*b - q

	kelly := (b*p - q) / b
	if kelly <= 0 {
		rec.Action = models.ActionHold
		rec.KellyFraction = 0
		rec.Reasons = append(rec.Reasons, models.ReasonNegativeKelly)
		return
	}
	if kelly > e.cfg.KellyCap {
		kelly = e.cfg.KellyCap
	}
	rec.KellyFraction = kelly
}

// rationale renders the structured reasons as deterministic narrative text.
func (e *Engine) rationale(rec models.Recommendation, set *models.IndicatorSet, flag models.SteamFlag, fc *models.Forecast) string {
	var parts []string
	for _, code := range rec.Reasons {
		switch code {
		case models.ReasonInsufficientData:
			parts = append(parts, fmt.Sprintf("only %d observations on record", set.DataPoints))
		case models.ReasonNoForecast:
			parts = append(parts, "no forecast available")
		case models.ReasonSteamAgreement:
			parts = append(parts, fmt.Sprintf("steam on the %s side (magnitude %.2f) agrees with a projected IP of %.4f vs %.4f now",
				sideName(flag.Direction), flag.Magnitude, fc.ProjectedIP, set.CurrentIP))
		case models.ReasonMomentumDivergence:
			parts = append(parts, fmt.Sprintf("forecast IP %.4f diverges from the current move (MOM-V %+.5f) by %.4f",
				fc.ProjectedIP, set.MomV(), math.Abs(fc.ProjectedIP-set.CurrentIP)))
		case models.ReasonNoSignal:
			parts = append(parts, "no actionable signal")
		case models.ReasonNegativeKelly:
			parts = append(parts, "no positive-edge stake at the current price")
		}
	}
	return fmt.Sprintf("%s (%s): %s", rec.Action, rec.Confidence, strings.Join(parts, "; "))
}

// payoutRatio returns the net odds payout per unit stake for backing the
// given side: the offered American price when the latest snapshot carries
// one, the fair (no-vig) payout otherwise.
func payoutRatio(latest *models.OddsSnapshot, direction int, fairIP float64) float64 {
	var price *int
	if latest != nil {
		if direction < 0 {
			price = latest.PriceAway
		} else {
			price = latest.PriceHome
		}
	}
	if price != nil {
		if dec, err := oddsmath.AmericanToDecimal(*price); err == nil {
			return dec - 1
		}
	}
	return (1 - fairIP) / fairIP
}

func sideName(direction int) string {
	if direction < 0 {
		return "away"
	}
	return "home"
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
