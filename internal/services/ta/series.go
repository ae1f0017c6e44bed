package ta

import (
	"OddsPulse/internal/domain/models"
	"OddsPulse/pkg/oddsmath"
)

// BuildIPSeries derives the implied-probability series from a market's
// snapshot history. Snapshots must already be ordered by timestamp
// (append-only storage guarantees this). Snapshots with a missing side or a
// quote outside vig tolerance are skipped, not zero-filled: an absent
// observation stays absent. Returns the derived series and the number of
// snapshots skipped.
func BuildIPSeries(market models.Market, snaps []models.OddsSnapshot, vigTolerance float64) (models.IPSeries, int) {
	series := models.IPSeries{Market: market, Points: make([]models.IPPoint, 0, len(snaps))}
	skipped := 0
	for _, s := range snaps {
		if s.PriceHome == nil || s.PriceAway == nil {
			skipped++
			continue
		}
		home, err := oddsmath.AmericanToProb(*s.PriceHome)
		if err != nil {
			skipped++
			continue
		}
		away, err := oddsmath.AmericanToProb(*s.PriceAway)
		if err != nil {
			skipped++
			continue
		}
		fair, err := oddsmath.RemoveVig(oddsmath.TwoWay{Home: home, Away: away}, vigTolerance)
		if err != nil {
			skipped++
			continue
		}
		series.Points = append(series.Points, models.IPPoint{
			Timestamp: s.Timestamp,
			IPHome:    fair.Home,
			IPAway:    fair.Away,
			Line:      s.Line,
		})
	}
	return series, skipped
}
