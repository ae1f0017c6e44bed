package ta

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMomentum(t *testing.T) {
	vals := []float64{0.50, 0.52, 0.55, 0.60}
	vel, _, hasAccel, err := Momentum(vals, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(vel, (0.60-0.50)/3) {
		t.Fatalf("unexpected velocity %v", vel)
	}
	if hasAccel {
		t.Fatalf("acceleration needs 2*period+1 observations")
	}
}

func TestMomentumAcceleration(t *testing.T) {
	// Accelerating rise: velocity over the last window beats the prior one.
	vals := []float64{0.50, 0.50, 0.51, 0.52, 0.55, 0.59, 0.64}
	vel, accel, hasAccel, err := Momentum(vals, 3)
	if err != nil || !hasAccel {
		t.Fatalf("expected acceleration, err=%v has=%v", err, hasAccel)
	}
	if vel <= 0 || accel <= 0 {
		t.Fatalf("expected positive vel/accel, got %v %v", vel, accel)
	}
}

func TestMomentumInsufficient(t *testing.T) {
	_, _, _, err := Momentum([]float64{0.5, 0.51}, 3)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestRSIBounds(t *testing.T) {
	up := []float64{0.40, 0.42, 0.45, 0.49, 0.54, 0.60}
	r, err := RSI(up, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 100 {
		t.Fatalf("strictly increasing window must give RSI 100, got %v", r)
	}

	down := []float64{0.60, 0.54, 0.49, 0.45, 0.42, 0.40}
	r, err = RSI(down, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 0 {
		t.Fatalf("strictly decreasing window must give RSI 0, got %v", r)
	}
}

func TestRSIFlatIsNeutral(t *testing.T) {
	r, err := RSI([]float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 50 {
		t.Fatalf("flat window must be neutral 50, got %v", r)
	}
}

func TestRSIInsufficientReportsNeutral(t *testing.T) {
	r, err := RSI([]float64{0.5, 0.52}, 14)
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	if r != 50 {
		t.Fatalf("short history must still report neutral 50, got %v", r)
	}
}

func TestRSIInRange(t *testing.T) {
	vals := []float64{0.50, 0.53, 0.51, 0.55, 0.52, 0.56, 0.54}
	r, err := RSI(vals, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r < 0 || r > 100 {
		t.Fatalf("RSI out of [0,100]: %v", r)
	}
}

func TestATR(t *testing.T) {
	vals := []float64{0.50, 0.52, 0.55, 0.60}
	atr, err := ATR(vals, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (0.02 + 0.03 + 0.05) / 3
	if !almostEqual(atr, want) {
		t.Fatalf("ATR = %v, want %v", atr, want)
	}
}

func TestZScoreFlatIsZero(t *testing.T) {
	z, err := ZScore([]float64{0.5, 0.5, 0.5, 0.5, 0.5}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z != 0 {
		t.Fatalf("flat window z-score must be exactly 0, got %v", z)
	}
}

func TestZScoreSign(t *testing.T) {
	z, err := ZScore([]float64{0.50, 0.51, 0.52, 0.53, 0.60}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if z <= 0 {
		t.Fatalf("last value above window mean must give positive z, got %v", z)
	}
}

func TestSMA(t *testing.T) {
	s, err := SMA([]float64{0.4, 0.5, 0.6}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(s, 0.5) {
		t.Fatalf("SMA = %v, want 0.5", s)
	}
}

func TestAdaptiveMAFlatEqualsMean(t *testing.T) {
	vals := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	ama, err := AdaptiveMA(vals, 10, 30, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(ama, 0.5) {
		t.Fatalf("adaptive MA of flat series = %v, want 0.5", ama)
	}
}

func TestAdaptiveMACleanMoveStretchesWindow(t *testing.T) {
	// A perfectly efficient linear drift maxes out the efficiency ratio, so
	// the effective period clamps to max and the adaptive mean matches the
	// max-window SMA.
	vals := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		vals = append(vals, 0.40+float64(i)*0.005)
	}
	ama, err := AdaptiveMA(vals, 10, 30, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slow, _ := SMA(vals, 30)
	if !almostEqual(ama, slow) {
		t.Fatalf("adaptive MA %v should clamp to the max-window mean %v", ama, slow)
	}
}

func TestBollingerWidthFlatIsZero(t *testing.T) {
	w, err := BollingerWidth([]float64{0.5, 0.5, 0.5, 0.5, 0.5}, 5, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 0 {
		t.Fatalf("flat series width must be 0, got %v", w)
	}
}

func TestBollingerWidthDegenerate(t *testing.T) {
	_, err := BollingerWidth([]float64{0, 0, 0, 0, 0}, 5, 2.0)
	if !errors.Is(err, ErrDegenerateSeries) {
		t.Fatalf("expected ErrDegenerateSeries for zero-mean window, got %v", err)
	}
}

func TestSwingLevels(t *testing.T) {
	// Rise to a local high then retrace: a real swing.
	vals := []float64{0.45, 0.50, 0.60, 0.55, 0.52}
	high, low, retr, ext, err := SwingLevels(vals, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high != 0.60 || low != 0.45 {
		t.Fatalf("swing high/low = %v/%v, want 0.60/0.45", high, low)
	}
	if !almostEqual(retr["0.5"], 0.60-0.5*0.15) {
		t.Fatalf("0.5 retracement = %v", retr["0.5"])
	}
	if !almostEqual(retr["1.0"], 0.45) {
		t.Fatalf("1.0 retracement must equal the swing low, got %v", retr["1.0"])
	}
	if !almostEqual(ext["1.618"], 0.60+0.618*0.15) {
		t.Fatalf("1.618 extension = %v", ext["1.618"])
	}
}

func TestSwingLevelsMonotonic(t *testing.T) {
	vals := []float64{0.40, 0.45, 0.50, 0.55, 0.60}
	_, _, _, _, err := SwingLevels(vals, 50)
	if !errors.Is(err, ErrNoSwingDetected) {
		t.Fatalf("monotonic series must be ErrNoSwingDetected, got %v", err)
	}
}

func TestRatioKeys(t *testing.T) {
	if ratioKey(0.5) != "0.5" || ratioKey(0.236) != "0.236" || ratioKey(1.0) != "1.0" || ratioKey(1.618) != "1.618" {
		t.Fatalf("unexpected ratio keys: %v %v %v %v", ratioKey(0.5), ratioKey(0.236), ratioKey(1.0), ratioKey(1.618))
	}
}
