package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"OddsPulse/internal/domain/models"
	domrepo "OddsPulse/internal/domain/repository"
	pkgkafka "OddsPulse/pkg/kafka"
)

// Enqueuer schedules a queue job. Satisfied by queue.RedisQueue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// KafkaSnapshotsHandler consumes odds snapshot messages and writes them to
// storage. It also accepts betting-splits messages on the same topic, keyed
// by the kind field.
type KafkaSnapshotsHandler struct {
	topic        string
	storage      domrepo.Storage
	metrics      domrepo.Metrics
	vigTolerance float64

	enq      Enqueuer
	debounce time.Duration
	mu       sync.Mutex
	lastEnq  map[string]time.Time
}

func NewKafkaSnapshotsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics, vigTolerance float64) *KafkaSnapshotsHandler {
	return &KafkaSnapshotsHandler{topic: topic, storage: storage, metrics: metrics, vigTolerance: vigTolerance}
}

// SetReevaluateQueue makes each stored snapshot schedule a re-evaluation of
// its market, debounced so a burst of snapshots enqueues one job.
func (h *KafkaSnapshotsHandler) SetReevaluateQueue(enq Enqueuer, debounce time.Duration) {
	h.enq = enq
	h.debounce = debounce
	h.lastEnq = make(map[string]time.Time)
}

func (h *KafkaSnapshotsHandler) Topic() string { return h.topic }

// incoming message schema:
//
//	{kind: "odds",   sport, event_id, market_type, book, ts, line?, price_home?, price_away?, home_label?, away_label?}
//	{kind: "splits", event_id, market_type, ts, bet_pct_home, money_pct_home}
//
// ts is unix seconds; millisecond stamps are normalized.
func (h *KafkaSnapshotsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Kind         string   `json:"kind"`
		Sport        string   `json:"sport"`
		EventID      string   `json:"event_id"`
		MarketType   string   `json:"market_type"`
		Book         string   `json:"book"`
		TS           int64    `json:"ts"`
		Line         *float64 `json:"line"`
		PriceHome    *int     `json:"price_home"`
		PriceAway    *int     `json:"price_away"`
		HomeLabel    string   `json:"home_label"`
		AwayLabel    string   `json:"away_label"`
		BetPctHome   float64  `json:"bet_pct_home"`
		MoneyPctHome float64  `json:"money_pct_home"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.TS > 1e11 { // ms
		m.TS = m.TS / 1000
	}
	ts := time.Unix(m.TS, 0).UTC()
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	if m.Kind == "splits" {
		err := h.storage.StoreSplit(ctx, &models.SplitSnapshot{
			EventID:      m.EventID,
			Type:         models.MarketType(m.MarketType),
			Timestamp:    ts,
			BetPctHome:   m.BetPctHome,
			MoneyPctHome: m.MoneyPctHome,
		})
		if err != nil {
			h.metrics.RecordError("consumer_store_split")
			return err
		}
		return nil
	}

	snap := &models.OddsSnapshot{
		Market: models.Market{
			Sport:   m.Sport,
			EventID: m.EventID,
			Type:    models.MarketType(m.MarketType),
			Book:    m.Book,
		},
		Timestamp: ts,
		Line:      m.Line,
		PriceHome: m.PriceHome,
		PriceAway: m.PriceAway,
		HomeLabel: m.HomeLabel,
		AwayLabel: m.AwayLabel,
	}
	if verr := validateSnapshotOdds(snap, h.vigTolerance); verr != nil {
		// Malformed odds stay malformed on redelivery; drop the message and
		// commit instead of retrying.
		h.metrics.RecordSnapshotRejected("invalid_odds")
		return nil
	}

	start := time.Now()
	err := h.storage.Store(ctx, snap)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordSnapshotIngested(m.Book, m.MarketType)
	h.maybeEnqueue(ctx, models.Market{
		Sport:   m.Sport,
		EventID: m.EventID,
		Type:    models.MarketType(m.MarketType),
		Book:    m.Book,
	})
	return nil
}

func (h *KafkaSnapshotsHandler) maybeEnqueue(ctx context.Context, m models.Market) {
	if h.enq == nil {
		return
	}
	key := m.Key()
	now := time.Now()
	h.mu.Lock()
	if t, ok := h.lastEnq[key]; ok && now.Sub(t) < h.debounce {
		h.mu.Unlock()
		return
	}
	h.lastEnq[key] = now
	h.mu.Unlock()

	err := h.enq.Enqueue(ctx, "reevaluate", reevaluatePayload{
		Sport:   m.Sport,
		EventID: m.EventID,
		Market:  string(m.Type),
		Book:    m.Book,
	})
	if err != nil {
		h.metrics.RecordError("reevaluate_enqueue")
	}
}

var _ pkgkafka.MessageHandler = (*KafkaSnapshotsHandler)(nil)
