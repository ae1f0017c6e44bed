package models

import (
	"fmt"
	"time"
)

// MarketType identifies the kind of bettable line.
type MarketType string

const (
	MarketSpread    MarketType = "spread"
	MarketTotal     MarketType = "total"
	MarketMoneyline MarketType = "moneyline"
)

// IsValid reports whether mt is a supported market type.
func (mt MarketType) IsValid() bool {
	switch mt {
	case MarketSpread, MarketTotal, MarketMoneyline:
		return true
	default:
		return false
	}
}

// Market identifies a single bettable line at one book.
type Market struct {
	Sport   string     `json:"sport"`
	EventID string     `json:"event_id"`
	Type    MarketType `json:"market_type"`
	Book    string     `json:"book"`
}

// Key returns the storage/cache key for the market.
func (m Market) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", m.Sport, m.EventID, m.Type, m.Book)
}

// OddsSnapshot is one observation of a market at a timestamp. Immutable once
// recorded. Prices are American odds; a nil price means that side was not
// quoted in this observation and must be treated as absent downstream, never
// as probability zero. Line carries spread/total points and is nil for
// moneylines.
type OddsSnapshot struct {
	Market    Market    `json:"market"`
	Timestamp time.Time `json:"timestamp"`
	Line      *float64  `json:"line,omitempty"`
	PriceHome *int      `json:"price_home,omitempty"`
	PriceAway *int      `json:"price_away,omitempty"`
	HomeLabel string    `json:"home_label,omitempty"`
	AwayLabel string    `json:"away_label,omitempty"`
}

// SplitSnapshot is one observation of the public/sharp money split for a
// market. Cadence is independent from OddsSnapshot; association is by
// event + market type. Percentages are the home side's share in [0,100].
type SplitSnapshot struct {
	EventID      string     `json:"event_id"`
	Type         MarketType `json:"market_type"`
	Timestamp    time.Time  `json:"timestamp"`
	BetPctHome   float64    `json:"bet_pct_home"`
	MoneyPctHome float64    `json:"money_pct_home"`
}
