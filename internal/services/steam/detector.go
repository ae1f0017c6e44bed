// Package steam flags abnormal, high-velocity synchronized line moves
// attributed to sharp money.
package steam

import (
	"math"

	"OddsPulse/internal/domain/models"
	"OddsPulse/pkg/config"
)

// Detector evaluates steam conditions against an indicator set and, when
// available, the latest betting splits. Stateless and pure.
type Detector struct {
	cfg config.Analysis
}

// NewDetector creates a steam detector with the given analysis config.
func NewDetector(cfg config.Analysis) *Detector {
	return &Detector{cfg: cfg}
}

// steamGateEpsilon absorbs float error so a move sitting exactly at the
// threshold still fires the inclusive gate.
const steamGateEpsilon = 1e-9

// Detect returns the steam flag for the market at the indicator set's
// timestamp. The gate is a volatility-normalized velocity threshold:
// |v| >= multiple × ATR, where v is the latest one-step move (the
// period-averaged MOM-V smooths a burst right at the threshold below it).
// When splits are present they must confirm the move (money% leading bet% in
// the move's direction by at least the configured gap); when absent,
// detection degrades to price-only rather than failing. Magnitude saturates
// |v|/(multiple×ATR) into [0,1).
func (d *Detector) Detect(set *models.IndicatorSet, splits *models.SplitSnapshot) models.SteamFlag {
	flag := models.SteamFlag{Market: set.Market, Timestamp: set.Timestamp}
	if set.MomentumVelocity == nil || set.ATR == nil {
		return flag
	}
	v := *set.MomentumVelocity
	if set.StepVelocity != nil {
		v = *set.StepVelocity
	}
	atr := *set.ATR
	if v == 0 || atr == 0 {
		return flag
	}

	threshold := d.cfg.SteamATRMultiple * atr
	ratio := math.Abs(v) / threshold
	if ratio < 1-steamGateEpsilon {
		return flag
	}
	flag.Signals = append(flag.Signals, "momentum")

	direction := 1
	if v < 0 {
		direction = -1
	}

	if set.ZScore != nil && math.Abs(*set.ZScore) > 2.0 {
		flag.Signals = append(flag.Signals, "zscore")
	}

	if splits != nil {
		if !d.splitsConfirm(splits, direction) {
			// Splits available but public money explains the move: not steam.
			return flag
		}
		flag.Signals = append(flag.Signals, "splits")
	}

	flag.Active = true
	flag.Direction = direction
	// Saturate the excess so magnitude stays in [0,1); an exact-threshold
	// fire scores 0.
	flag.Magnitude = (ratio - 1) / ratio
	if flag.Magnitude < 0 {
		flag.Magnitude = 0
	}
	return flag
}

// splitsConfirm reports the classic sharp-vs-public divergence: money%
// leading bet% by at least the configured gap on the side the line is moving
// toward.
func (d *Detector) splitsConfirm(s *models.SplitSnapshot, direction int) bool {
	gap := s.MoneyPctHome - s.BetPctHome
	if direction < 0 {
		gap = -gap
	}
	return gap >= d.cfg.SteamSplitsGap
}
