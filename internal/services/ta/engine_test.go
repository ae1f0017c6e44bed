package ta

import (
	"testing"
	"time"

	"OddsPulse/internal/domain/models"
	"OddsPulse/pkg/config"
)

func testMarket() models.Market {
	return models.Market{Sport: "nba", EventID: "LAL-BOS-20260115", Type: models.MarketSpread, Book: "pinny"}
}

func seriesFromIPs(ips []float64) models.IPSeries {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	s := models.IPSeries{Market: testMarket()}
	for i, ip := range ips {
		s.Points = append(s.Points, models.IPPoint{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			IPHome:    ip,
			IPAway:    1 - ip,
		})
	}
	return s
}

func smallWindowConfig() config.Analysis {
	cfg := config.DefaultAnalysis()
	cfg.MomentumPeriod = 1
	cfg.RSIPeriod = 3
	cfg.ZScoreLookback = 3
	cfg.SMAPeriod = 3
	cfg.ATRLookback = 3
	cfg.AdaptiveBasePeriod = 2
	cfg.AdaptiveMaxPeriod = 4
	cfg.BollingerLookback = 3
	cfg.FibSwingLookback = 10
	return cfg
}

func TestEvaluateRisingSeries(t *testing.T) {
	set := NewEngine(smallWindowConfig()).Evaluate(seriesFromIPs([]float64{0.50, 0.52, 0.55, 0.60}))

	if set.InsufficientHistory {
		t.Fatalf("4 observations with these windows must be sufficient")
	}
	if set.MomentumVelocity == nil || *set.MomentumVelocity <= 0 {
		t.Fatalf("expected positive MOM-V, got %+v", set.MomentumVelocity)
	}
	if set.RSI == nil || *set.RSI <= 50 {
		t.Fatalf("rising series must have RSI > 50, got %+v", set.RSI)
	}
	if set.ATR == nil || *set.ATR <= 0 {
		t.Fatalf("expected positive ATR, got %+v", set.ATR)
	}
	if set.CurrentIP != 0.60 {
		t.Fatalf("current IP = %v, want 0.60", set.CurrentIP)
	}
	// Monotonic window: fib levels must degrade to unavailable, not error out.
	if set.Fib != nil {
		t.Fatalf("monotonic series must not produce fib levels")
	}
	if set.Unavailable["fib"] != models.UnavailableNoSwing {
		t.Fatalf("fib unavailability must carry the no-swing reason, got %q", set.Unavailable["fib"])
	}
}

func TestEvaluateFlatSeries(t *testing.T) {
	set := NewEngine(smallWindowConfig()).Evaluate(seriesFromIPs([]float64{0.50, 0.50, 0.50, 0.50}))

	if set.MomentumVelocity == nil || *set.MomentumVelocity != 0 {
		t.Fatalf("flat series MOM-V must be 0, got %+v", set.MomentumVelocity)
	}
	if set.RSI == nil || *set.RSI != 50 {
		t.Fatalf("flat series RSI must be neutral 50, got %+v", set.RSI)
	}
	if set.ZScore == nil || *set.ZScore != 0 {
		t.Fatalf("flat series z-score must be 0, got %+v", set.ZScore)
	}
	if set.BollingerWidth == nil || *set.BollingerWidth != 0 {
		t.Fatalf("flat series Bollinger width must be 0, not a crash, got %+v", set.BollingerWidth)
	}
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	cfg := config.DefaultAnalysis() // RSI 14 etc.
	set := NewEngine(cfg).Evaluate(seriesFromIPs([]float64{0.50, 0.52}))

	if !set.InsufficientHistory {
		t.Fatalf("2 observations against 14-windows must flag insufficient history")
	}
	if set.RSI == nil || *set.RSI != 50 {
		t.Fatalf("short-history RSI must report neutral 50, got %+v", set.RSI)
	}
	if set.Unavailable["rsi"] != models.UnavailableInsufficientHistory {
		t.Fatalf("short-history RSI must be marked, got %q", set.Unavailable["rsi"])
	}
	if set.MomentumVelocity != nil {
		t.Fatalf("momentum must be unavailable, not a computed-looking number")
	}
}

func TestEvaluateEmptySeries(t *testing.T) {
	set := NewEngine(config.DefaultAnalysis()).Evaluate(models.IPSeries{Market: testMarket()})
	if !set.InsufficientHistory {
		t.Fatalf("empty series must flag insufficient history")
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	cfg := smallWindowConfig()
	series := seriesFromIPs([]float64{0.50, 0.53, 0.51, 0.55, 0.52, 0.56, 0.54, 0.58})
	a := NewEngine(cfg).Evaluate(series)
	b := NewEngine(cfg).Evaluate(series)

	if *a.MomentumVelocity != *b.MomentumVelocity || *a.RSI != *b.RSI || *a.ATR != *b.ATR ||
		*a.ZScore != *b.ZScore || *a.SMA != *b.SMA || *a.AdaptiveMA != *b.AdaptiveMA {
		t.Fatalf("identical inputs must produce bit-identical outputs")
	}
}
