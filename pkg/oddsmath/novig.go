package oddsmath

import "fmt"

// TwoWay holds the raw implied probabilities of both sides of a market
// before vig removal.
type TwoWay struct {
	Home float64
	Away float64
}

// Overround returns the vig residual: how far the raw probabilities sum
// above 1.0. Zero means a fair (no-vig) quote.
func (t TwoWay) Overround() float64 {
	return t.Home + t.Away - 1.0
}

// RemoveVig normalizes a two-way quote multiplicatively so the fair
// probabilities sum to exactly 1.0. The raw sum must lie in
// [1.0, 1.0+tolerance]; a quote below 1.0 (an arb, or a mistyped price) or
// with more overround than the book plausibly charges is rejected as
// out of range so the single snapshot can be dropped without touching the
// market's history.
func RemoveVig(raw TwoWay, tolerance float64) (TwoWay, error) {
	if raw.Home <= 0 || raw.Home >= 1 || raw.Away <= 0 || raw.Away >= 1 {
		return TwoWay{}, fmt.Errorf("raw probabilities (%.4f, %.4f): %w", raw.Home, raw.Away, ErrOutOfRangeOdds)
	}
	total := raw.Home + raw.Away
	if total < 1.0 {
		return TwoWay{}, fmt.Errorf("two-way sum %.4f below 1.0: %w", total, ErrOutOfRangeOdds)
	}
	if total > 1.0+tolerance {
		return TwoWay{}, fmt.Errorf("overround %.4f exceeds tolerance %.4f: %w", total-1.0, tolerance, ErrOutOfRangeOdds)
	}
	return TwoWay{Home: raw.Home / total, Away: raw.Away / total}, nil
}

// VigPercent returns the overround as a percentage for display.
func VigPercent(raw TwoWay) float64 {
	o := raw.Overround()
	if o < 0 {
		return 0
	}
	return o * 100.0
}
