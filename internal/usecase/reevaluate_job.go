package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "OddsPulse/internal/domain/repository"
	pkgcache "OddsPulse/pkg/cache"
	applogger "OddsPulse/pkg/logger"
	"OddsPulse/pkg/queue"
)

// ReevaluateJob is the queue job that re-runs the evaluation pipeline for a
// market. Producers enqueue one message per market whenever fresh snapshots
// land; workers drain the queue so evaluation load stays off the ingest path.
type ReevaluateJob struct {
	evaluate *EvaluateUseCase
	metrics  domrepo.Metrics
	cache    pkgcache.Service
	ttl      time.Duration
	l        *applogger.Logger
}

func NewReevaluateJob(evaluate *EvaluateUseCase, metrics domrepo.Metrics, l *applogger.Logger) *ReevaluateJob {
	return &ReevaluateJob{evaluate: evaluate, metrics: metrics, l: l}
}

// SetResultCache stores each finished evaluation under eval:<market key> so
// readers can serve the latest result without re-running the pipeline.
func (j *ReevaluateJob) SetResultCache(c pkgcache.Service, ttl time.Duration) {
	j.cache = c
	j.ttl = ttl
}

func (j *ReevaluateJob) Name() string { return "market_reevaluate" }

func (j *ReevaluateJob) Type() string { return "reevaluate" }

// reevaluatePayload mirrors EvaluateParams for queue transport.
type reevaluatePayload struct {
	Sport   string `json:"sport"`
	EventID string `json:"event_id"`
	Market  string `json:"market_type"`
	Book    string `json:"book"`
	Horizon int    `json:"horizon"`
}

func (j *ReevaluateJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[reevaluatePayload](payload)
	if err != nil {
		return fmt.Errorf("reevaluate payload: %w", err)
	}

	res, err := j.evaluate.Evaluate(ctx, EvaluateParams{
		Sport:   p.Sport,
		EventID: p.EventID,
		Type:    domrepo.NormalizeMarketType(p.Market),
		Book:    p.Book,
		Horizon: p.Horizon,
	})
	if err != nil {
		if j.metrics != nil {
			j.metrics.RecordError("reevaluate")
		}
		return err
	}

	if j.metrics != nil {
		j.metrics.RecordEvaluation(string(res.Market.Type))
		if res.Steam != nil && res.Steam.Active {
			j.metrics.RecordSteamFlag(string(res.Market.Type))
		}
	}
	if j.cache != nil {
		if err := j.cache.Set(ctx, "eval:"+res.Market.Key(), res, j.ttl); err != nil && j.l != nil {
			j.l.Warn("evaluation cache set error", applogger.Error(err))
		}
	}
	if j.l != nil && res.Recommendation != nil {
		j.l.Info("market reevaluated",
			applogger.String("market", res.Market.Key()),
			applogger.String("action", string(res.Recommendation.Action)),
			applogger.String("confidence", string(res.Recommendation.Confidence)),
		)
	}
	return nil
}

var _ queue.Job = (*ReevaluateJob)(nil)
