package models

import "time"

// IPPoint is one point of a derived implied-probability series.
// IPHome + IPAway sums to 1 after vig removal.
type IPPoint struct {
	Timestamp time.Time `json:"timestamp"`
	IPHome    float64   `json:"ip_home"`
	IPAway    float64   `json:"ip_away"`
	Line      *float64  `json:"line,omitempty"`
}

// IPSeries is the implied-probability view of a market's snapshot history,
// ordered by timestamp. It is derived on demand and replaced wholesale when
// new snapshots arrive, never mutated in place.
type IPSeries struct {
	Market Market    `json:"market"`
	Points []IPPoint `json:"points"`
}

// Len returns the number of observations.
func (s IPSeries) Len() int { return len(s.Points) }

// HomeValues returns the home-side IP values oldest to newest.
func (s IPSeries) HomeValues() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.IPHome
	}
	return out
}

// LineValues returns the points values (spread/total) for observations that
// carry one, oldest to newest.
func (s IPSeries) LineValues() []float64 {
	out := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Line != nil {
			out = append(out, *p.Line)
		}
	}
	return out
}

// Latest returns the newest point and true, or a zero point and false for an
// empty series.
func (s IPSeries) Latest() (IPPoint, bool) {
	if len(s.Points) == 0 {
		return IPPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}
