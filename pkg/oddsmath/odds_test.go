package oddsmath

import (
	"errors"
	"math"
	"testing"
)

func TestAmericanToProbFairCoin(t *testing.T) {
	for _, odds := range []int{-100, 100} {
		p, err := AmericanToProb(odds)
		if err != nil {
			t.Fatalf("unexpected error for %d: %v", odds, err)
		}
		if p != 0.5 {
			t.Fatalf("expected 0.5 for %d, got %v", odds, p)
		}
	}
}

func TestAmericanToProbRange(t *testing.T) {
	for _, odds := range []int{-10000, -110, -101, 100, 150, 25000} {
		p, err := AmericanToProb(odds)
		if err != nil {
			t.Fatalf("unexpected error for %d: %v", odds, err)
		}
		if p <= 0 || p >= 1 {
			t.Fatalf("probability out of (0,1) for %d: %v", odds, p)
		}
	}
}

func TestAmericanToProbZero(t *testing.T) {
	if _, err := AmericanToProb(0); !errors.Is(err, ErrOutOfRangeOdds) {
		t.Fatalf("expected ErrOutOfRangeOdds, got %v", err)
	}
}

func TestDecimalToProb(t *testing.T) {
	p, err := DecimalToProb(2.0)
	if err != nil || p != 0.5 {
		t.Fatalf("expected 0.5, got %v err=%v", p, err)
	}
	if _, err := DecimalToProb(1.0); !errors.Is(err, ErrOutOfRangeOdds) {
		t.Fatalf("expected ErrOutOfRangeOdds for 1.0, got %v", err)
	}
	if _, err := DecimalToProb(0.8); !errors.Is(err, ErrOutOfRangeOdds) {
		t.Fatalf("expected ErrOutOfRangeOdds for 0.8, got %v", err)
	}
}

func TestParseOdds(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"even", 0.5},
		{"EVEN", 0.5},
		{"-110", 110.0 / 210.0},
		{"+150", 0.4},
		{"2.50", 0.4},
	}
	for _, tc := range cases {
		got, err := ParseOdds(tc.in)
		if err != nil {
			t.Fatalf("ParseOdds(%q) error: %v", tc.in, err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("ParseOdds(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseOddsInvalid(t *testing.T) {
	for _, in := range []string{"", "pick", "o220.5"} {
		if _, err := ParseOdds(in); !errors.Is(err, ErrInvalidOddsFormat) {
			t.Fatalf("ParseOdds(%q): expected ErrInvalidOddsFormat, got %v", in, err)
		}
	}
	for _, in := range []string{"0", "50", "-99"} {
		if _, err := ParseOdds(in); !errors.Is(err, ErrOutOfRangeOdds) {
			t.Fatalf("ParseOdds(%q): expected ErrOutOfRangeOdds, got %v", in, err)
		}
	}
}

func TestProbToAmericanRoundTrip(t *testing.T) {
	for _, odds := range []int{-250, -110, -100, 120, 300} {
		p, err := AmericanToProb(odds)
		if err != nil {
			t.Fatalf("AmericanToProb(%d): %v", odds, err)
		}
		back, err := ProbToAmerican(p)
		if err != nil {
			t.Fatalf("ProbToAmerican(%v): %v", p, err)
		}
		// ±100 both map to p=0.5; inverse picks the -100 branch.
		if odds == 100 && back == -100 {
			continue
		}
		if back != odds {
			t.Fatalf("round trip %d → %v → %d", odds, p, back)
		}
	}
}

func TestRemoveVig(t *testing.T) {
	// Standard -110/-110 quote: 4.76% overround, fair 50/50.
	p, _ := AmericanToProb(-110)
	fair, err := RemoveVig(TwoWay{Home: p, Away: p}, 0.08)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(fair.Home-0.5) > 1e-12 || math.Abs(fair.Away-0.5) > 1e-12 {
		t.Fatalf("expected fair 50/50, got %+v", fair)
	}
	if math.Abs(fair.Home+fair.Away-1.0) > 1e-12 {
		t.Fatalf("fair probabilities must sum to 1, got %v", fair.Home+fair.Away)
	}
}

func TestRemoveVigRejectsOutOfTolerance(t *testing.T) {
	if _, err := RemoveVig(TwoWay{Home: 0.45, Away: 0.45}, 0.08); !errors.Is(err, ErrOutOfRangeOdds) {
		t.Fatalf("sum below 1.0 must be rejected, got %v", err)
	}
	if _, err := RemoveVig(TwoWay{Home: 0.60, Away: 0.60}, 0.08); !errors.Is(err, ErrOutOfRangeOdds) {
		t.Fatalf("overround above tolerance must be rejected, got %v", err)
	}
}
