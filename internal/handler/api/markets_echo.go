package api

import (
	"errors"
	"net/http"
	"time"

	models "OddsPulse/internal/domain/models"
	domrepo "OddsPulse/internal/domain/repository"
	"OddsPulse/internal/services/ta"
	"OddsPulse/internal/usecase"
	pkgcache "OddsPulse/pkg/cache"
	xhttp "OddsPulse/pkg/http"
	xlogger "OddsPulse/pkg/logger"
	"OddsPulse/pkg/oddsmath"
	xutil "OddsPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// MarketsEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type MarketsEchoHandler struct {
	logger      *xlogger.Logger
	eval        *usecase.MarketEvaluator
	evaluate    *usecase.EvaluateUseCase
	history     *usecase.HistoryUseCase
	ingest      *usecase.IngestUseCase
	resultCache pkgcache.Service
}

func NewMarketsEchoHandler(logger *xlogger.Logger, eval *usecase.MarketEvaluator, evaluate *usecase.EvaluateUseCase, history *usecase.HistoryUseCase) *MarketsEchoHandler {
	return &MarketsEchoHandler{logger: logger, eval: eval, evaluate: evaluate, history: history}
}

// SetResultCache enables /api/latest, which serves evaluations written by the
// re-evaluation workers instead of running the pipeline inline.
func (h *MarketsEchoHandler) SetResultCache(c pkgcache.Service) { h.resultCache = c }

// SetIngest enables POST /api/snapshots.
func (h *MarketsEchoHandler) SetIngest(uc *usecase.IngestUseCase) { h.ingest = uc }

func (h *MarketsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)

	g := e.Group("/api")
	g.GET("/indicators", h.Indicators)
	g.GET("/steam", h.Steam)
	g.GET("/forecast", h.Forecast)
	g.GET("/recommendation", h.Recommendation)
	g.GET("/evaluate", h.Evaluate)
	g.GET("/latest", h.Latest)
	g.GET("/history", h.History)
	if h.ingest != nil {
		g.POST("/snapshots", h.IngestSnapshot)
	}
}

// domainErrorResponse maps analysis errors onto API error records; anything
// unrecognized stays a plain 500.
func domainErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ta.ErrInsufficientHistory):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INSUFFICIENT_HISTORY", "", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, oddsmath.ErrInvalidOddsFormat), errors.Is(err, oddsmath.ErrOutOfRangeOdds):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INVALID_ODDS", "", err.Error(), http.StatusBadRequest))
	default:
		return xhttp.AppErrorResponse(c, err)
	}
}

func marketFromRequest(sport, eventID, market, book string) models.Market {
	return models.Market{
		Sport:   sport,
		EventID: eventID,
		Type:    domrepo.NormalizeMarketType(market),
		Book:    book,
	}
}

func (h *MarketsEchoHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	m := marketFromRequest(req.Sport, req.EventID, req.Market, req.Book)

	res, err := h.eval.Indicators(c.Request().Context(), m)
	if err != nil {
		h.logger.Error("indicators usecase error", xlogger.Error(err))
		return domainErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketsEchoHandler) Steam(c echo.Context) error {
	req := &models.SteamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	m := marketFromRequest(req.Sport, req.EventID, req.Market, req.Book)

	res, err := h.eval.Steam(c.Request().Context(), m)
	if err != nil {
		h.logger.Error("steam usecase error", xlogger.Error(err))
		return domainErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketsEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	m := marketFromRequest(req.Sport, req.EventID, req.Market, req.Book)

	res, err := h.eval.Forecast(c.Request().Context(), m, req.Horizon)
	if err != nil {
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return domainErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketsEchoHandler) Recommendation(c echo.Context) error {
	req := &models.RecommendationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	m := marketFromRequest(req.Sport, req.EventID, req.Market, req.Book)

	res, err := h.eval.Recommend(c.Request().Context(), m, req.Horizon)
	if err != nil {
		h.logger.Error("recommendation usecase error", xlogger.Error(err))
		return domainErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketsEchoHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.evaluate.Evaluate(c.Request().Context(), usecase.EvaluateParams{
		Sport:   req.Sport,
		EventID: req.EventID,
		Type:    domrepo.NormalizeMarketType(req.Market),
		Book:    req.Book,
		Horizon: req.Horizon,
	})
	if err != nil {
		h.logger.Error("evaluate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Latest returns the most recent worker-produced evaluation for a market.
// Falls back to an inline evaluation when no result cache is configured.
func (h *MarketsEchoHandler) Latest(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.resultCache == nil {
		return h.Evaluate(c)
	}
	m := marketFromRequest(req.Sport, req.EventID, req.Market, req.Book)

	var res models.MarketEvaluation
	err := h.resultCache.Get(c.Request().Context(), "eval:"+m.Key(), &res)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return xhttp.NotFoundResponse(c, "no evaluation for "+m.Key())
		}
		h.logger.Error("latest cache error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, &res)
}

func (h *MarketsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	m := marketFromRequest(req.Sport, req.EventID, req.Market, req.Book)

	from, to := parseRange(req.From, req.To)
	res, err := h.history.GetHistory(c.Request().Context(), usecase.GetHistoryParams{
		Market: m,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// IngestSnapshot accepts one snapshot over the API. Backfill path; the live
// feed goes through the collector pipeline instead.
func (h *MarketsEchoHandler) IngestSnapshot(c echo.Context) error {
	req := &models.SnapshotIngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ts := time.Now().UTC()
	if req.Timestamp != "" {
		if t, ok := xhttp.ParseTime(req.Timestamp); ok {
			ts = t
		}
	}
	snap := &models.OddsSnapshot{
		Market:    marketFromRequest(req.Sport, req.EventID, req.Market, req.Book),
		Timestamp: ts,
		Line:      req.Line,
		PriceHome: req.PriceHome,
		PriceAway: req.PriceAway,
		HomeLabel: req.HomeLabel,
		AwayLabel: req.AwayLabel,
	}
	if err := h.ingest.Ingest(c.Request().Context(), snap); err != nil {
		h.logger.Error("snapshot ingest error", xlogger.Error(err))
		return domainErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// HealthCheck reports liveness and, when a store is attached, its reachability.
func (h *MarketsEchoHandler) HealthCheck(c echo.Context) error {
	if h.ingest != nil {
		if err := h.ingest.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// parseRange parses RFC3339 or unix-second bounds; empty or malformed bounds
// default to the last 24h, aligned to the minute so cache keys stay stable.
func parseRange(fromStr, toStr string) (time.Time, time.Time) {
	now := time.Now().UTC()
	to := xhttp.ParseTimeDefault(toStr, now)
	from := xhttp.ParseTimeDefault(fromStr, to.Add(-24*time.Hour))
	return xutil.AlignFromTo(from, to, time.Minute)
}
