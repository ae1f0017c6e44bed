package ta

import (
	"fmt"
	"math"
	"sort"
)

// Stateless indicator functions over an implied-probability series ordered
// oldest to newest. Each takes its window explicitly so the same series can
// be evaluated under different configurations.

// Momentum returns (velocity, acceleration) over the given period.
// Velocity is the windowed IP difference scaled to a per-step rate and needs
// period+1 observations; acceleration is the first difference of velocity and
// needs 2*period+1. ErrInsufficientHistory when velocity cannot be computed;
// hasAccel is false when only acceleration is missing.
func Momentum(values []float64, period int) (vel, accel float64, hasAccel bool, err error) {
	n := len(values)
	if n < period+1 {
		return 0, 0, false, fmt.Errorf("momentum needs %d observations, have %d: %w", period+1, n, ErrInsufficientHistory)
	}
	vel = (values[n-1] - values[n-1-period]) / float64(period)
	if n < 2*period+1 {
		return vel, 0, false, nil
	}
	prev := (values[n-1-period] - values[n-1-2*period]) / float64(period)
	return vel, (vel - prev) / float64(period), true, nil
}

// RSI computes the classic relative-strength index over IP deltas, bounded to
// [0,100]. A flat window (no gains, no losses) is neutral 50; fewer than
// period+1 observations is ErrInsufficientHistory and callers report 50.
func RSI(values []float64, period int) (float64, error) {
	n := len(values)
	if n < period+1 {
		return 50, fmt.Errorf("rsi needs %d observations, have %d: %w", period+1, n, ErrInsufficientHistory)
	}
	var gain, loss float64
	for i := n - period; i < n; i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgGain == 0 && avgLoss == 0 {
		return 50, nil
	}
	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}

// ATR is the mean absolute IP delta over the lookback window.
func ATR(values []float64, lookback int) (float64, error) {
	n := len(values)
	if n < 2 {
		return 0, fmt.Errorf("atr needs 2 observations, have %d: %w", n, ErrInsufficientHistory)
	}
	deltas := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		deltas = append(deltas, math.Abs(values[i]-values[i-1]))
	}
	if len(deltas) > lookback {
		deltas = deltas[len(deltas)-lookback:]
	}
	sum := 0.0
	for _, d := range deltas {
		sum += d
	}
	return sum / float64(len(deltas)), nil
}

// ZScore is (current - mean) / stddev over the lookback window, exactly 0 for
// a zero-variance window instead of dividing by zero.
func ZScore(values []float64, lookback int) (float64, error) {
	n := len(values)
	if n < lookback {
		return 0, fmt.Errorf("zscore needs %d observations, have %d: %w", lookback, n, ErrInsufficientHistory)
	}
	w := values[n-lookback:]
	mu, sd := meanStd(w)
	if sd == 0 {
		return 0, nil
	}
	return (values[n-1] - mu) / sd, nil
}

// SMA is the simple rolling mean over the last period observations (or the
// whole series when shorter).
func SMA(values []float64, period int) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("sma on empty series: %w", ErrInsufficientHistory)
	}
	w := values
	if len(w) > period {
		w = w[len(w)-period:]
	}
	mu, _ := meanStd(w)
	return mu, nil
}

// AdaptiveMA is a volatility-adaptive mean. The effective averaging period
// stretches from base toward max with the efficiency of the recent move:
// choppy, high-volatility windows keep the period near base so the mean
// adapts quickly, while a quiet efficient drift earns a longer window. With
// fewer than base observations it falls back to the plain mean of the series.
func AdaptiveMA(values []float64, base, max int, sensitivity float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("adaptive ma on empty series: %w", ErrInsufficientHistory)
	}
	n := len(values)
	if n < base {
		mu, _ := meanStd(values)
		return mu, nil
	}
	w := values[n-base:]
	_, vol := meanStd(w)
	eff := 0.0
	if vol > 0 {
		eff = math.Abs(values[n-1]-values[n-base]) / (vol * math.Sqrt(float64(base)))
	}
	period := base + int(float64(max-base)*eff*sensitivity)
	if period < base {
		period = base
	}
	if period > max {
		period = max
	}
	if period > n {
		period = n
	}
	mu, _ := meanStd(values[n-period:])
	return mu, nil
}

// BollingerWidth is 2*k*stddev/mean over the lookback window. A zero mean
// cannot be normalized against and is ErrDegenerateSeries.
func BollingerWidth(values []float64, lookback int, k float64) (float64, error) {
	n := len(values)
	if n < lookback {
		return 0, fmt.Errorf("bollinger needs %d observations, have %d: %w", lookback, n, ErrInsufficientHistory)
	}
	mu, sd := meanStd(values[n-lookback:])
	if mu == 0 {
		return 0, fmt.Errorf("zero-mean window: %w", ErrDegenerateSeries)
	}
	return 2.0 * k * sd / mu, nil
}

// Standard Fibonacci ratio set applied to the swing range.
var (
	fibRetracements = []float64{0.236, 0.382, 0.5, 0.618, 0.786, 1.0}
	fibExtensions   = []float64{1.272, 1.618}
)

// SwingLevels computes Fibonacci retracement and extension levels over the
// most recent local high/low swing within the lookback window. The swing is
// anchored on strict local extrema; a monotonic window has none and returns
// ErrNoSwingDetected, which callers treat as "levels unavailable".
func SwingLevels(values []float64, lookback int) (high, low float64, retr, ext map[string]float64, err error) {
	n := len(values)
	if n < 3 {
		return 0, 0, nil, nil, fmt.Errorf("swing needs 3 observations, have %d: %w", n, ErrInsufficientHistory)
	}
	w := values
	if len(w) > lookback {
		w = w[len(w)-lookback:]
	}
	if !hasInteriorExtremum(w) {
		return 0, 0, nil, nil, fmt.Errorf("monotonic over lookback %d: %w", lookback, ErrNoSwingDetected)
	}
	high, low = w[0], w[0]
	for _, v := range w[1:] {
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	diff := high - low
	if diff == 0 {
		return 0, 0, nil, nil, fmt.Errorf("flat window: %w", ErrNoSwingDetected)
	}
	retr = make(map[string]float64, len(fibRetracements))
	for _, r := range fibRetracements {
		retr[ratioKey(r)] = high - r*diff
	}
	ext = make(map[string]float64, len(fibExtensions))
	for _, r := range fibExtensions {
		ext[ratioKey(r)] = clampIP(high + (r-1.0)*diff)
	}
	return high, low, retr, ext, nil
}

func hasInteriorExtremum(w []float64) bool {
	for i := 1; i < len(w)-1; i++ {
		if (w[i] > w[i-1] && w[i] > w[i+1]) || (w[i] < w[i-1] && w[i] < w[i+1]) {
			return true
		}
	}
	return false
}

func ratioKey(r float64) string {
	// "0.5" not "0.500": trim like the ratio set is written.
	s := fmt.Sprintf("%.3f", r)
	for len(s) > 3 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}

func clampIP(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func meanStd(w []float64) (mean, std float64) {
	n := float64(len(w))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	mean = sum / n
	if len(w) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range w {
		d := v - mean
		ss += d * d
	}
	// Population deviation: deterministic and matches the z-score contract
	// (flat window ⇒ exactly zero).
	return mean, math.Sqrt(ss / n)
}

// SortedRatioKeys returns the level map keys in ascending ratio order, for
// deterministic rendering.
func SortedRatioKeys(levels map[string]float64) []string {
	keys := make([]string, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
