package ta

import (
	"math"
	"testing"
	"time"

	"OddsPulse/internal/domain/models"
)

func intp(v int) *int          { return &v }
func fl(v float64) *float64    { return &v }

func TestBuildIPSeries(t *testing.T) {
	m := testMarket()
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	snaps := []models.OddsSnapshot{
		{Market: m, Timestamp: base, Line: fl(-3.5), PriceHome: intp(-110), PriceAway: intp(-110)},
		{Market: m, Timestamp: base.Add(time.Minute), Line: fl(-4.0), PriceHome: intp(-120), PriceAway: intp(100)},
	}
	series, skipped := BuildIPSeries(m, snaps, 0.08)
	if skipped != 0 {
		t.Fatalf("no snapshot should be skipped, got %d", skipped)
	}
	if series.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", series.Len())
	}
	for _, p := range series.Points {
		if p.IPHome <= 0 || p.IPHome >= 1 {
			t.Fatalf("IP out of (0,1): %v", p.IPHome)
		}
		if math.Abs(p.IPHome+p.IPAway-1.0) > 1e-12 {
			t.Fatalf("vig-free IPs must sum to 1, got %v", p.IPHome+p.IPAway)
		}
	}
	if series.Points[0].IPHome != 0.5 {
		t.Fatalf("-110/-110 must normalize to 0.5, got %v", series.Points[0].IPHome)
	}
}

func TestBuildIPSeriesSkipsAbsentAndMalformed(t *testing.T) {
	m := testMarket()
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	snaps := []models.OddsSnapshot{
		// One side absent: skipped, never treated as IP=0.
		{Market: m, Timestamp: base, PriceHome: intp(-110)},
		// American 0 is out of range: rejected per-snapshot.
		{Market: m, Timestamp: base.Add(time.Minute), PriceHome: intp(0), PriceAway: intp(-110)},
		// Overround beyond tolerance: rejected per-snapshot.
		{Market: m, Timestamp: base.Add(2 * time.Minute), PriceHome: intp(-200), PriceAway: intp(-200)},
		// Good quote survives the bad neighbors.
		{Market: m, Timestamp: base.Add(3 * time.Minute), PriceHome: intp(-110), PriceAway: intp(-110)},
	}
	series, skipped := BuildIPSeries(m, snaps, 0.08)
	if skipped != 3 {
		t.Fatalf("expected 3 skipped snapshots, got %d", skipped)
	}
	if series.Len() != 1 {
		t.Fatalf("expected the single valid snapshot to survive, got %d", series.Len())
	}
}
