// Package splits polls a betting-splits REST provider and records the
// public/sharp money distribution per market. Splits arrive on their own
// cadence, independent of the odds WebSocket feed.
package splits

import (
	"context"
	"fmt"
	"time"

	"OddsPulse/internal/domain/models"
	domrepo "OddsPulse/internal/domain/repository"
	xhttp "OddsPulse/pkg/http"
	applogger "OddsPulse/pkg/logger"
)

// Client fetches betting splits over HTTP and stores them.
type Client struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
	storage domrepo.Storage
	metrics domrepo.Metrics
	l       *applogger.Logger
	poll    time.Duration
}

func New(baseURL, apiKey string, poll time.Duration, storage domrepo.Storage, metrics domrepo.Metrics, l *applogger.Logger) *Client {
	if poll <= 0 {
		poll = time.Minute
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(5 * time.Second)),
		storage: storage,
		metrics: metrics,
		l:       l,
		poll:    poll,
	}
}

type splitRow struct {
	EventID      string  `json:"event_id"`
	MarketType   string  `json:"market_type"`
	TS           int64   `json:"ts"`
	BetPctHome   float64 `json:"bet_pct_home"`
	MoneyPctHome float64 `json:"money_pct_home"`
}

type splitsResp struct {
	Splits []splitRow `json:"splits"`
}

// FetchOnce pulls the provider's current splits for a sport and stores them.
func (c *Client) FetchOnce(ctx context.Context, sport string) (int, error) {
	var resp splitsResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.baseURL + "/splits",
		Headers: map[string]string{"Authorization": "Bearer " + c.apiKey},
		QueryParams: map[string][]string{
			"sport": {sport},
		},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("fetch splits: %w", err)
	}

	stored := 0
	for _, row := range resp.Splits {
		ts := row.TS
		if ts > 1e11 { // ms
			ts = ts / 1000
		}
		split := &models.SplitSnapshot{
			EventID:      row.EventID,
			Type:         models.MarketType(row.MarketType),
			Timestamp:    time.Unix(ts, 0).UTC(),
			BetPctHome:   row.BetPctHome,
			MoneyPctHome: row.MoneyPctHome,
		}
		if !split.Type.IsValid() || split.EventID == "" {
			if c.metrics != nil {
				c.metrics.RecordSnapshotRejected("split_invalid")
			}
			continue
		}
		if err := c.storage.StoreSplit(ctx, split); err != nil {
			if c.metrics != nil {
				c.metrics.RecordError("split_store")
			}
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// Run polls until the context is canceled. Fetch errors are logged and the
// loop keeps going; splits are confirmation data, the pipeline degrades to
// price-only detection without them.
func (c *Client) Run(ctx context.Context, sports []string) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sport := range sports {
				n, err := c.FetchOnce(ctx, sport)
				if err != nil {
					if c.l != nil {
						c.l.Warn("splits fetch error",
							applogger.String("sport", sport),
							applogger.Error(err),
						)
					}
					continue
				}
				if c.l != nil {
					c.l.Debug("splits stored",
						applogger.String("sport", sport),
						applogger.Int("count", n),
					)
				}
			}
		}
	}
}
