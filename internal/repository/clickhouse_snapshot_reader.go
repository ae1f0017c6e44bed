package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"OddsPulse/internal/domain/models"
	domrepo "OddsPulse/internal/domain/repository"
	pkgch "OddsPulse/pkg/clickhouse"
	applogger "OddsPulse/pkg/logger"
)

// CHSnapshotReader implements SnapshotReader backed by ClickHouse.
type CHSnapshotReader struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSnapshotReader(ch *pkgch.Client) *CHSnapshotReader {
	return &CHSnapshotReader{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotReader) SetLogger(l *applogger.Logger) { s.l = l }

// GetSnapshots returns the latest n snapshots for the market, ordered
// oldest to newest. Nullable columns come back as nil pointers so an absent
// side stays absent.
func (s *CHSnapshotReader) GetSnapshots(ctx context.Context, market models.Market, n int) ([]models.OddsSnapshot, error) {
	start := time.Now()
	const q = `
        SELECT ts, line, price_home, price_away, home_label, away_label
        FROM oddspulse.odds_snapshots
        WHERE sport = ? AND event_id = ? AND market_type = ? AND book = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, market.Sport, market.EventID, string(market.Type), market.Book, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_snapshots query error",
				applogger.String("market", market.Key()),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get snapshots: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.OddsSnapshot, 0, n)
	for rows.Next() {
		var (
			snap      models.OddsSnapshot
			line      sql.NullFloat64
			priceHome sql.NullInt64
			priceAway sql.NullInt64
		)
		if err := rows.Scan(&snap.Timestamp, &line, &priceHome, &priceAway, &snap.HomeLabel, &snap.AwayLabel); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_snapshots scan error",
					applogger.String("market", market.Key()),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan snapshot: %w", err)
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
		tmp = append(tmp, snap)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_snapshots rows error",
				applogger.String("market", market.Key()),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse get_snapshots ok",
			applogger.String("market", market.Key()),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

// GetLatestSplit returns the most recent betting split for the event and
// market type, or nil when none has been recorded.
func (s *CHSnapshotReader) GetLatestSplit(ctx context.Context, eventID string, mt models.MarketType) (*models.SplitSnapshot, error) {
	const q = `
        SELECT ts, bet_pct_home, money_pct_home
        FROM oddspulse.betting_splits
        WHERE event_id = ? AND market_type = ?
        ORDER BY ts DESC
        LIMIT 1
    `
	row := s.db.QueryRowContext(ctx, q, eventID, string(mt))
	split := models.SplitSnapshot{EventID: eventID, Type: mt}
	if err := row.Scan(&split.Timestamp, &split.BetPctHome, &split.MoneyPctHome); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if s.l != nil {
			s.l.Error("clickhouse latest_split query error",
				applogger.String("event_id", eventID),
				applogger.String("market_type", string(mt)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest split: %w", err)
	}
	return &split, nil
}

var _ domrepo.SnapshotReader = (*CHSnapshotReader)(nil)
