package recommend

import (
	"strings"
	"testing"
	"time"

	"OddsPulse/internal/domain/models"
	"OddsPulse/pkg/config"
)

func recCfg() config.Analysis {
	cfg := config.DefaultAnalysis()
	cfg.FadeDivergence = 0.02
	cfg.KellyCap = 0.20
	return cfg
}

func indicatorSet(currentIP, momV float64) *models.IndicatorSet {
	return &models.IndicatorSet{
		Market:           models.Market{Sport: "nba", EventID: "e1", Type: models.MarketMoneyline, Book: "pinny"},
		Timestamp:        time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		CurrentIP:        currentIP,
		DataPoints:       30,
		MomentumVelocity: &momV,
	}
}

func forecastTo(ip float64) *models.Forecast {
	return &models.Forecast{Horizon: 6, Unit: models.UnitIP, ProjectedIP: ip, ProjectedValue: ip}
}

func quote(home, away int) *models.OddsSnapshot {
	return &models.OddsSnapshot{PriceHome: &home, PriceAway: &away}
}

func TestHoldWeakWithoutForecast(t *testing.T) {
	rec := NewEngine(recCfg()).Decide(indicatorSet(0.55, 0.01), models.SteamFlag{}, nil, nil)
	if rec.Action != models.ActionHold || rec.Confidence != models.TierWeak {
		t.Fatalf("no forecast must give Hold/Weak, got %s/%s", rec.Action, rec.Confidence)
	}
	if !rec.HasReason(models.ReasonNoForecast) {
		t.Fatalf("expected no_forecast reason, got %v", rec.Reasons)
	}
	if rec.KellyFraction != 0 || rec.EV != 0 {
		t.Fatalf("hold must carry no stake, got kelly=%v ev=%v", rec.KellyFraction, rec.EV)
	}
}

func TestHoldWeakOnInsufficientHistory(t *testing.T) {
	set := indicatorSet(0.55, 0.01)
	set.InsufficientHistory = true
	set.DataPoints = 2
	rec := NewEngine(recCfg()).Decide(set, models.SteamFlag{}, forecastTo(0.60), nil)
	if rec.Action != models.ActionHold || rec.Confidence != models.TierWeak {
		t.Fatalf("insufficient history must give Hold/Weak, got %s/%s", rec.Action, rec.Confidence)
	}
	if !rec.HasReason(models.ReasonInsufficientData) {
		t.Fatalf("expected insufficient_history reason, got %v", rec.Reasons)
	}
}

func TestBackStrongOnSteamAgreement(t *testing.T) {
	set := indicatorSet(0.55, 0.02)
	flag := models.SteamFlag{Active: true, Direction: 1, Magnitude: 0.4, Signals: []string{"momentum", "splits"}}
	rec := NewEngine(recCfg()).Decide(set, flag, forecastTo(0.62), quote(-120, 100))

	if rec.Action != models.ActionBack || rec.Confidence != models.TierStrong {
		t.Fatalf("steam+forecast agreement must give Back/Strong, got %s/%s", rec.Action, rec.Confidence)
	}
	if rec.Side != "home" {
		t.Fatalf("expected home side, got %q", rec.Side)
	}
	// p=0.62 at -120: EV = 0.62×(100/120) − 0.38 > 0.
	if rec.EV <= 0 {
		t.Fatalf("projected IP above break-even must be positive EV, got %v", rec.EV)
	}
	if rec.KellyFraction <= 0 || rec.KellyFraction > 0.20 {
		t.Fatalf("kelly must be in (0, cap], got %v", rec.KellyFraction)
	}
	if !strings.Contains(rec.Rationale, "steam") {
		t.Fatalf("rationale must mention the steam rule, got %q", rec.Rationale)
	}
}

func TestFadeOnDivergence(t *testing.T) {
	// Line momentum is up but the model projects a reversal below current.
	set := indicatorSet(0.58, 0.02)
	rec := NewEngine(recCfg()).Decide(set, models.SteamFlag{}, forecastTo(0.53), quote(-140, 120))

	if rec.Action != models.ActionFade {
		t.Fatalf("expected Fade, got %s", rec.Action)
	}
	if rec.Confidence != models.TierStrong {
		t.Fatalf("divergence 0.05 > 2×0.02 must be Strong, got %s", rec.Confidence)
	}
	if rec.Side != "away" {
		t.Fatalf("fading an up-move means backing away, got %q", rec.Side)
	}
	if !rec.HasReason(models.ReasonMomentumDivergence) {
		t.Fatalf("expected divergence reason, got %v", rec.Reasons)
	}
	// p_win(away) = 0.47 at +120 → EV = 0.47×1.2 − 0.53 > 0.
	if rec.EV <= 0 || rec.KellyFraction <= 0 {
		t.Fatalf("clear reversal at plus money must have edge, got ev=%v kelly=%v", rec.EV, rec.KellyFraction)
	}
}

func TestFadeModerateOnSmallDivergence(t *testing.T) {
	set := indicatorSet(0.58, 0.02)
	rec := NewEngine(recCfg()).Decide(set, models.SteamFlag{}, forecastTo(0.55), quote(-140, 120))
	if rec.Action != models.ActionFade || rec.Confidence != models.TierModerate {
		t.Fatalf("divergence 0.03 must be Fade/Moderate, got %s/%s", rec.Action, rec.Confidence)
	}
}

func TestHoldModerateOtherwise(t *testing.T) {
	// Forecast agrees with momentum, no steam: rule 4.
	set := indicatorSet(0.55, 0.01)
	rec := NewEngine(recCfg()).Decide(set, models.SteamFlag{}, forecastTo(0.56), quote(-120, 100))
	if rec.Action != models.ActionHold || rec.Confidence != models.TierModerate {
		t.Fatalf("expected Hold/Moderate, got %s/%s", rec.Action, rec.Confidence)
	}
	if !rec.HasReason(models.ReasonNoSignal) {
		t.Fatalf("expected no_actionable_signal reason, got %v", rec.Reasons)
	}
}

func TestNegativeKellyForcesHold(t *testing.T) {
	// Steam and forecast agree, but the vig at -130 prices home at 0.565
	// while the model only projects 0.545: the edge is negative at the
	// offered payout even though the fair IP moved up.
	set := indicatorSet(0.54, 0.02)
	flag := models.SteamFlag{Active: true, Direction: 1, Magnitude: 0.3, Signals: []string{"momentum"}}
	rec := NewEngine(recCfg()).Decide(set, flag, forecastTo(0.545), quote(-130, 110))

	if rec.Action != models.ActionHold {
		t.Fatalf("negative raw kelly must force Hold, got %s", rec.Action)
	}
	if rec.KellyFraction != 0 {
		t.Fatalf("kelly fraction must never be negative in output, got %v", rec.KellyFraction)
	}
	if rec.EV >= 0 {
		t.Fatalf("the losing price must show negative EV, got %v", rec.EV)
	}
	if !rec.HasReason(models.ReasonNegativeKelly) {
		t.Fatalf("expected negative_kelly reason, got %v", rec.Reasons)
	}
}

func TestDecisionDeterminism(t *testing.T) {
	set := indicatorSet(0.58, 0.02)
	fc := forecastTo(0.53)
	q := quote(-140, 120)
	a := NewEngine(recCfg()).Decide(set, models.SteamFlag{}, fc, q)
	b := NewEngine(recCfg()).Decide(set, models.SteamFlag{}, fc, q)
	if a.Rationale != b.Rationale || a.EV != b.EV || a.KellyFraction != b.KellyFraction {
		t.Fatalf("identical inputs must give identical recommendations")
	}
}
