// Package oddsmath converts sportsbook odds between native formats and
// implied probability, the common scale every downstream indicator runs on.
package oddsmath

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidOddsFormat marks input that matches no recognized odds shape.
	ErrInvalidOddsFormat = errors.New("invalid odds format")
	// ErrOutOfRangeOdds marks odds that parse but are numerically impossible
	// (American 0, decimal <= 1.0, or a two-way quote outside vig tolerance).
	ErrOutOfRangeOdds = errors.New("odds out of range")
)

// AmericanToProb converts American odds to implied probability.
// -110 → 0.5238, +150 → 0.40, ±100 → 0.50 exactly.
func AmericanToProb(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("american odds 0: %w", ErrOutOfRangeOdds)
	}
	if american > 0 {
		return 100.0 / (float64(american) + 100.0), nil
	}
	a := float64(-american)
	return a / (a + 100.0), nil
}

// DecimalToProb converts decimal odds to implied probability.
func DecimalToProb(decimal float64) (float64, error) {
	if decimal <= 1.0 || math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return 0, fmt.Errorf("decimal odds %.4f: %w", decimal, ErrOutOfRangeOdds)
	}
	return 1.0 / decimal, nil
}

// ProbToAmerican converts implied probability back to American odds.
// Inverse of AmericanToProb up to integer rounding.
func ProbToAmerican(p float64) (int, error) {
	if p <= 0 || p >= 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("probability %.4f: %w", p, ErrOutOfRangeOdds)
	}
	if p >= 0.5 {
		return int(math.Round(-100.0 * p / (1.0 - p))), nil
	}
	return int(math.Round(100.0 * (1.0 - p) / p)), nil
}

// ProbToDecimal converts implied probability to decimal odds.
func ProbToDecimal(p float64) (float64, error) {
	if p <= 0 || p >= 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("probability %.4f: %w", p, ErrOutOfRangeOdds)
	}
	return 1.0 / p, nil
}

// AmericanToDecimal converts American odds to decimal odds.
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("american odds 0: %w", ErrOutOfRangeOdds)
	}
	if american > 0 {
		return float64(american)/100.0 + 1.0, nil
	}
	return 100.0/float64(-american) + 1.0, nil
}

// ParseOdds converts one raw odds token into implied probability.
// Recognized shapes: the literal "even" (exactly 0.5), signed American
// integers ("-110", "+150"), and decimal odds ("2.50"). Anything else is
// ErrInvalidOddsFormat; shapes that parse but cannot price an outcome are
// ErrOutOfRangeOdds.
func ParseOdds(token string) (float64, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return 0, fmt.Errorf("empty token: %w", ErrInvalidOddsFormat)
	}
	if strings.EqualFold(s, "even") || strings.EqualFold(s, "ev") {
		return 0.5, nil
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(s, "+")); err == nil {
		// Integers in (-100, 100) are neither valid American odds nor
		// plausible decimal odds once the fraction is gone.
		if n > -100 && n < 100 {
			return 0, fmt.Errorf("token %q: %w", token, ErrOutOfRangeOdds)
		}
		return AmericanToProb(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return DecimalToProb(f)
	}
	return 0, fmt.Errorf("token %q: %w", token, ErrInvalidOddsFormat)
}
