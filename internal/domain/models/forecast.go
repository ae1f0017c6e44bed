package models

import "time"

// ForecastUnit is the native unit a projection is expressed in.
type ForecastUnit string

const (
	UnitPoints ForecastUnit = "points"
	UnitOdds   ForecastUnit = "odds"
	UnitIP     ForecastUnit = "ip"
)

// Forecast is a short-horizon projection of a market's line, produced by the
// line movement forecaster. ProjectedIP is the clamped IP-space projection;
// ProjectedValue is the same projection converted to the market's native
// unit (points for spread/total, American odds for moneyline). The confidence
// interval is expressed in the same unit as ProjectedValue and widens with
// horizon (ATR × √h scaling).
type Forecast struct {
	Market        Market       `json:"market"`
	Timestamp     time.Time    `json:"timestamp"`
	Horizon       int          `json:"horizon"`
	Unit          ForecastUnit `json:"unit"`
	ProjectedIP   float64      `json:"projected_ip"`
	ProjectedValue float64     `json:"projected_value"`
	ConfidenceLow  float64     `json:"confidence_low"`
	ConfidenceHigh float64     `json:"confidence_high"`
}

// Direction returns the sign of the projected IP move relative to current:
// +1 toward home, -1 toward away, 0 flat.
func (f Forecast) Direction(currentIP float64) int {
	switch {
	case f.ProjectedIP > currentIP:
		return 1
	case f.ProjectedIP < currentIP:
		return -1
	default:
		return 0
	}
}
