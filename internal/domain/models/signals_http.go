package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type IndicatorsRequest struct {
	Sport   string `query:"sport" json:"sport" default:"nba"`
	EventID string `query:"event_id" json:"event_id" validate:"required"`
	Market  string `query:"market" json:"market" default:"spread" validate:"oneof=spread total moneyline"`
	Book    string `query:"book" json:"book" validate:"required"`
}

type SteamRequest struct {
	Sport   string `query:"sport" json:"sport" default:"nba"`
	EventID string `query:"event_id" json:"event_id" validate:"required"`
	Market  string `query:"market" json:"market" default:"spread" validate:"oneof=spread total moneyline"`
	Book    string `query:"book" json:"book" validate:"required"`
}

type ForecastRequest struct {
	Sport   string `query:"sport" json:"sport" default:"nba"`
	EventID string `query:"event_id" json:"event_id" validate:"required"`
	Market  string `query:"market" json:"market" default:"spread" validate:"oneof=spread total moneyline"`
	Book    string `query:"book" json:"book" validate:"required"`
	Horizon int    `query:"horizon" json:"horizon" default:"6" validate:"gte=1,lte=48"`
}

type RecommendationRequest struct {
	Sport   string `query:"sport" json:"sport" default:"nba"`
	EventID string `query:"event_id" json:"event_id" validate:"required"`
	Market  string `query:"market" json:"market" default:"spread" validate:"oneof=spread total moneyline"`
	Book    string `query:"book" json:"book" validate:"required"`
	Horizon int    `query:"horizon" json:"horizon" default:"6" validate:"gte=1,lte=48"`
}

type EvaluateRequest struct {
	Sport   string `query:"sport" json:"sport" default:"nba"`
	EventID string `query:"event_id" json:"event_id" validate:"required"`
	Market  string `query:"market" json:"market" default:"spread" validate:"oneof=spread total moneyline"`
	Book    string `query:"book" json:"book" validate:"required"`
	Horizon int    `query:"horizon" json:"horizon" default:"6" validate:"gte=1,lte=48"`
}

type SnapshotIngestRequest struct {
	Sport     string   `json:"sport" default:"nba"`
	EventID   string   `json:"event_id" validate:"required"`
	Market    string   `json:"market" default:"spread" validate:"oneof=spread total moneyline"`
	Book      string   `json:"book" validate:"required"`
	Timestamp string   `json:"timestamp"`
	Line      *float64 `json:"line"`
	PriceHome *int     `json:"price_home"`
	PriceAway *int     `json:"price_away"`
	HomeLabel string   `json:"home_label"`
	AwayLabel string   `json:"away_label"`
}

type HistoryRequest struct {
	Sport   string `query:"sport" json:"sport" default:"nba"`
	EventID string `query:"event_id" json:"event_id" validate:"required"`
	Market  string `query:"market" json:"market" default:"spread" validate:"oneof=spread total moneyline"`
	Book    string `query:"book" json:"book" validate:"required"`
	From    string `query:"from" json:"from"`
	To      string `query:"to" json:"to"`
	Limit   int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}
