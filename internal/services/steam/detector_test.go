package steam

import (
	"testing"
	"time"

	"OddsPulse/internal/domain/models"
	"OddsPulse/internal/services/ta"
	"OddsPulse/pkg/config"
)

func detectCfg() config.Analysis {
	cfg := config.DefaultAnalysis()
	cfg.MomentumPeriod = 1
	cfg.RSIPeriod = 3
	cfg.ZScoreLookback = 3
	cfg.ATRLookback = 3
	cfg.SteamATRMultiple = 1.5
	cfg.SteamSplitsGap = 10
	return cfg
}

func risingSeries() models.IPSeries {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	series := models.IPSeries{Market: models.Market{Sport: "nba", EventID: "e1", Type: models.MarketSpread, Book: "pinny"}}
	for i, ip := range []float64{0.50, 0.52, 0.55, 0.60} {
		series.Points = append(series.Points, models.IPPoint{Timestamp: base.Add(time.Duration(i) * time.Minute), IPHome: ip, IPAway: 1 - ip})
	}
	return series
}

func risingSet(t *testing.T) *models.IndicatorSet {
	t.Helper()
	set := ta.NewEngine(detectCfg()).Evaluate(risingSeries())
	if set.MomentumVelocity == nil || *set.MomentumVelocity <= 0 {
		t.Fatalf("scenario needs positive MOM-V, got %+v", set.MomentumVelocity)
	}
	if set.RSI == nil || *set.RSI <= 50 {
		t.Fatalf("scenario needs RSI > 50, got %+v", set.RSI)
	}
	return set
}

func TestDetectSharpMoveWithConfirmingSplits(t *testing.T) {
	set := risingSet(t)
	splits := &models.SplitSnapshot{
		EventID: "e1", Type: models.MarketSpread, Timestamp: set.Timestamp,
		BetPctHome: 40, MoneyPctHome: 65, // money leads bets toward home
	}

	flag := NewDetector(detectCfg()).Detect(set, splits)
	if !flag.Active {
		t.Fatalf("expected active steam flag")
	}
	if flag.Direction != 1 {
		t.Fatalf("direction must be home (+1), got %d", flag.Direction)
	}
	if flag.Magnitude < 0 || flag.Magnitude >= 1 {
		t.Fatalf("magnitude must be in [0,1), got %v", flag.Magnitude)
	}
	found := false
	for _, s := range flag.Signals {
		if s == "splits" {
			found = true
		}
	}
	if !found {
		t.Fatalf("splits confirmation must be recorded in signals, got %v", flag.Signals)
	}
}

func TestDetectPublicMoneyIsNotSteam(t *testing.T) {
	set := risingSet(t)
	// Bets lead money: the move is public, not sharp.
	splits := &models.SplitSnapshot{EventID: "e1", Type: models.MarketSpread, BetPctHome: 75, MoneyPctHome: 60}

	flag := NewDetector(detectCfg()).Detect(set, splits)
	if flag.Active {
		t.Fatalf("public-led move must not flag steam")
	}
}

func TestDetectDegradesToPriceOnlyWithoutSplits(t *testing.T) {
	set := risingSet(t)
	flag := NewDetector(detectCfg()).Detect(set, nil)
	if !flag.Active {
		t.Fatalf("missing splits must degrade to price-only detection, not failure")
	}
}

func TestDetectFiresAtExactThreshold(t *testing.T) {
	// Final step 0.05, ATR over window 3 is 0.0333; 1.5 × ATR lands exactly
	// on the step, and the inclusive gate must fire with magnitude 0.
	set := risingSet(t)
	flag := NewDetector(detectCfg()).Detect(set, nil)
	if !flag.Active {
		t.Fatalf("move at exactly multiple×ATR must flag steam")
	}
	if flag.Direction != 1 {
		t.Fatalf("direction must be home (+1), got %d", flag.Direction)
	}
	if flag.Magnitude != 0 {
		t.Fatalf("exact-threshold fire must score magnitude 0, got %v", flag.Magnitude)
	}
}

func TestDetectGatesOnLatestStepNotAveragedMomentum(t *testing.T) {
	// With a momentum period of 3 the averaged MOM-V over the same series is
	// 0.0333, well under 1.5 × ATR, but the one-step move still sits at the
	// threshold. The gate runs on the step.
	cfg := detectCfg()
	cfg.MomentumPeriod = 3
	set := ta.NewEngine(cfg).Evaluate(risingSeries())
	if set.MomentumVelocity == nil || *set.MomentumVelocity >= cfg.SteamATRMultiple*(*set.ATR) {
		t.Fatalf("scenario needs averaged MOM-V below threshold, got %+v", set.MomentumVelocity)
	}

	flag := NewDetector(cfg).Detect(set, nil)
	if !flag.Active {
		t.Fatalf("threshold-sized final step must flag steam despite smoothed MOM-V")
	}
	if flag.Direction != 1 {
		t.Fatalf("direction must be home (+1), got %d", flag.Direction)
	}
}

func TestDetectQuietMarket(t *testing.T) {
	momV := 0.001
	atr := 0.01
	set := &models.IndicatorSet{
		Timestamp:        time.Now().UTC(),
		MomentumVelocity: &momV,
		ATR:              &atr,
	}
	flag := NewDetector(detectCfg()).Detect(set, nil)
	if flag.Active {
		t.Fatalf("sub-threshold velocity must not flag steam")
	}
	if flag.Direction != 0 || flag.Magnitude != 0 {
		t.Fatalf("inactive flag must be zeroed, got %+v", flag)
	}
}

func TestDetectUnavailableIndicators(t *testing.T) {
	set := &models.IndicatorSet{Timestamp: time.Now().UTC(), InsufficientHistory: true}
	flag := NewDetector(detectCfg()).Detect(set, nil)
	if flag.Active {
		t.Fatalf("missing momentum/ATR must not flag steam")
	}
}
