package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"OddsPulse/internal/domain/models"
	"OddsPulse/internal/domain/repository"
	pkgkafka "OddsPulse/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db          *sql.DB
	table       string
	splitsTable string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table, splitsTable string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table, splitsTable: splitsTable}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, snap *models.OddsSnapshot) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, sport, event_id, market_type, book, line, price_home, price_away, home_label, away_label) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, snapshotArgs(snap)...)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, snaps []*models.OddsSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(snaps); start += chunkSize {
		end := start + chunkSize
		if end > len(snaps) {
			end = len(snaps)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*10)
		for _, snap := range snaps[start:end] {
			if snap == nil || snap.Market.EventID == "" || snap.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, snapshotArgs(snap)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, sport, event_id, market_type, book, line, price_home, price_away, home_label, away_label) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) StoreSplit(ctx context.Context, split *models.SplitSnapshot) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, event_id, market_type, bet_pct_home, money_pct_home) VALUES (?, ?, ?, ?, ?)", s.splitsTable)
	_, err := s.db.ExecContext(ctx, q,
		split.Timestamp,
		split.EventID,
		string(split.Type),
		split.BetPctHome,
		split.MoneyPctHome,
	)
	return err
}

func (s *ClickHouseStorage) Query(ctx context.Context, market models.Market, from, to time.Time, limit int) ([]*models.OddsSnapshot, error) {
	q := fmt.Sprintf("SELECT ts, line, price_home, price_away, home_label, away_label FROM %s WHERE sport = ? AND event_id = ? AND market_type = ? AND book = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, market.Sport, market.EventID, string(market.Type), market.Book, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*models.OddsSnapshot
	for rows.Next() {
		var (
			snap      models.OddsSnapshot
			line      sql.NullFloat64
			priceHome sql.NullInt64
			priceAway sql.NullInt64
		)
		if err := rows.Scan(&snap.Timestamp, &line, &priceHome, &priceAway, &snap.HomeLabel, &snap.AwayLabel); err != nil {
			return nil, err
		}
		snap.Market = market
		if line.Valid {
			v := line.Float64
			snap.Line = &v
		}
		if priceHome.Valid {
			v := int(priceHome.Int64)
			snap.PriceHome = &v
		}
		if priceAway.Valid {
			v := int(priceAway.Int64)
			snap.PriceAway = &v
		}
		snaps = append(snaps, &snap)
	}
	return snaps, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// snapshotArgs flattens a snapshot into insert arguments, preserving nil for
// absent prices and lines so they land as NULLs.
func snapshotArgs(snap *models.OddsSnapshot) []interface{} {
	var line interface{}
	if snap.Line != nil {
		line = *snap.Line
	}
	var priceHome, priceAway interface{}
	if snap.PriceHome != nil {
		priceHome = int32(*snap.PriceHome)
	}
	if snap.PriceAway != nil {
		priceAway = int32(*snap.PriceAway)
	}
	return []interface{}{
		snap.Timestamp,
		snap.Market.Sport,
		snap.Market.EventID,
		string(snap.Market.Type),
		snap.Market.Book,
		line,
		priceHome,
		priceAway,
		snap.HomeLabel,
		snap.AwayLabel,
	}
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func snapshotMessage(snap *models.OddsSnapshot) map[string]interface{} {
	m := map[string]interface{}{
		"kind":        "odds",
		"sport":       snap.Market.Sport,
		"event_id":    snap.Market.EventID,
		"market_type": string(snap.Market.Type),
		"book":        snap.Market.Book,
		"ts":          snap.Timestamp.Unix(),
	}
	if snap.Line != nil {
		m["line"] = *snap.Line
	}
	if snap.PriceHome != nil {
		m["price_home"] = *snap.PriceHome
	}
	if snap.PriceAway != nil {
		m["price_away"] = *snap.PriceAway
	}
	if snap.HomeLabel != "" {
		m["home_label"] = snap.HomeLabel
	}
	if snap.AwayLabel != "" {
		m["away_label"] = snap.AwayLabel
	}
	return m
}

func (p *KafkaPublisher) Publish(ctx context.Context, snap *models.OddsSnapshot) error {
	return p.producer.Publish(ctx, p.topic, []byte(snap.Market.Key()), snapshotMessage(snap))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, snaps []*models.OddsSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(snaps))
	for i, snap := range snaps {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(snap.Market.Key()),
			Value: snapshotMessage(snap),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
