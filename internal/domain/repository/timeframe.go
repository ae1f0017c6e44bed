package repository

import "OddsPulse/internal/domain/models"

// IsValidMarketType returns true if mt is a supported market type.
func IsValidMarketType(mt models.MarketType) bool {
	switch mt {
	case models.MarketSpread, models.MarketTotal, models.MarketMoneyline:
		return true
	default:
		return false
	}
}

// DefaultMarketType returns the default market type for queries.
func DefaultMarketType() models.MarketType { return models.MarketSpread }

// NormalizeMarketType converts a raw string to a valid market type (or default).
func NormalizeMarketType(s string) models.MarketType {
	if s == "" {
		return DefaultMarketType()
	}
	mt := models.MarketType(s)
	if IsValidMarketType(mt) {
		return mt
	}
	return DefaultMarketType()
}

// ClampHorizon bounds a requested forecast horizon to [1, max]; non-positive
// requests fall back to def.
func ClampHorizon(h, def, max int) int {
	if h <= 0 {
		return def
	}
	if h > max {
		return max
	}
	return h
}
