package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	models "OddsPulse/internal/domain/models"
	domrepo "OddsPulse/internal/domain/repository"
	icache "OddsPulse/internal/service/cache"
	"OddsPulse/internal/service/metrics"
	"OddsPulse/internal/service/ratelimit"
	"OddsPulse/internal/usecase"
	applogger "OddsPulse/pkg/logger"
)

// MarketsHandler serves the analysis endpoints over plain net/http. Used when
// the service runs without the Echo app (collector-only deployments expose
// these on the metrics mux).
type MarketsHandler struct {
	eval  *usecase.MarketEvaluator
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewMarketsHandler(eval *usecase.MarketEvaluator) *MarketsHandler {
	metrics.Register()
	return &MarketsHandler{eval: eval, rl: ratelimit.New()}
}

func (h *MarketsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *MarketsHandler) SetLogger(l *applogger.Logger) { h.l = l }

// produce computes the endpoint's payload for a market.
type produce func(r *http.Request, m models.Market) (interface{}, error)

// serve wraps an endpoint with rate limiting, byte caching, latency and error
// metrics. The market identity comes from query params shared by every
// endpoint.
func (h *MarketsHandler) serve(endpoint string, ttl time.Duration, capacity, refill float64, fn produce) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			metrics.EvaluationLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		}()

		eventID := r.URL.Query().Get("event_id")
		if eventID == "" {
			if h.l != nil {
				h.l.Warn("markets." + endpoint + " missing event_id")
			}
			http.Error(w, "event_id required", http.StatusBadRequest)
			return
		}
		book := r.URL.Query().Get("book")
		if book == "" {
			http.Error(w, "book required", http.StatusBadRequest)
			return
		}
		m := models.Market{
			Sport:   r.URL.Query().Get("sport"),
			EventID: eventID,
			Type:    domrepo.NormalizeMarketType(r.URL.Query().Get("market")),
			Book:    book,
		}

		if !h.rl.Allow(r.RemoteAddr+":"+endpoint, capacity, refill) {
			if h.l != nil {
				h.l.Warn("markets."+endpoint+" rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		cacheKey := endpoint + ":" + m.Key() + ":" + r.URL.Query().Get("horizon")
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("markets."+endpoint+" cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if h.l != nil {
					h.l.Debug("markets."+endpoint+" cache_hit", applogger.String("key", cacheKey))
				}
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("markets."+endpoint+" write_error", applogger.Error(err))
				}
				return
			}
			if h.l != nil {
				h.l.Debug("markets."+endpoint+" cache_miss", applogger.String("key", cacheKey))
			}
		}

		res, err := fn(r, m)
		if err != nil {
			metrics.EvaluationErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("markets."+endpoint+" error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error("markets."+endpoint+" marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, ttl); err != nil && h.l != nil {
				h.l.Warn("markets."+endpoint+" cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("markets."+endpoint+" write_error", applogger.Error(err))
		}
	}
}

func (h *MarketsHandler) Indicators() http.HandlerFunc {
	return h.serve("indicators", 15*time.Second, 5, 2, func(r *http.Request, m models.Market) (interface{}, error) {
		return h.eval.Indicators(r.Context(), m)
	})
}

func (h *MarketsHandler) Steam() http.HandlerFunc {
	return h.serve("steam", 15*time.Second, 5, 2, func(r *http.Request, m models.Market) (interface{}, error) {
		return h.eval.Steam(r.Context(), m)
	})
}

func (h *MarketsHandler) Forecast() http.HandlerFunc {
	return h.serve("forecast", 30*time.Second, 5, 2, func(r *http.Request, m models.Market) (interface{}, error) {
		return h.eval.Forecast(r.Context(), m, parseInt(r.URL.Query().Get("horizon"), 0))
	})
}

func (h *MarketsHandler) Recommendation() http.HandlerFunc {
	return h.serve("recommendation", 30*time.Second, 3, 1, func(r *http.Request, m models.Market) (interface{}, error) {
		return h.eval.Recommend(r.Context(), m, parseInt(r.URL.Query().Get("horizon"), 0))
	})
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
