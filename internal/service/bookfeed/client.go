package bookfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"OddsPulse/internal/domain/models"
	drepo "OddsPulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by an odds provider WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	books          []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new book feed MarketStream.
func New(apiKey, websocketURL string, books []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		books:          books,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("bookfeed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("bookfeed: connected")
	return nil
}

// Subscribe subscribes to configured books.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("bookfeed not connected")
	}
	for _, b := range c.books {
		msg := map[string]string{"type": "subscribe", "book": b}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", b, err)
		}
		log.Printf("bookfeed: subscribed %s", b)
	}
	return nil
}

type feedOdds struct {
	Sport      string   `json:"sport"`
	EventID    string   `json:"event_id"`
	MarketType string   `json:"market_type"`
	Book       string   `json:"book"`
	T          int64    `json:"t"` // ms
	Line       *float64 `json:"line"`
	PriceHome  *int     `json:"price_home"`
	PriceAway  *int     `json:"price_away"`
	HomeLabel  string   `json:"home_label"`
	AwayLabel  string   `json:"away_label"`
}

type feedMessage struct {
	Type string     `json:"type"`
	Data []feedOdds `json:"data"`
}

// Read streams OddsSnapshot events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.OddsSnapshot, <-chan error) {
	snaps := make(chan *models.OddsSnapshot, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(snaps)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("bookfeed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("bookfeed read: %w", err)
					return
				}
				var m feedMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-odds frames
					continue
				}
				if m.Type != "odds" {
					continue
				}
				for _, d := range m.Data {
					snap := &models.OddsSnapshot{
						Market: models.Market{
							Sport:   d.Sport,
							EventID: d.EventID,
							Type:    models.MarketType(d.MarketType),
							Book:    d.Book,
						},
						Timestamp: time.Unix(0, d.T*int64(time.Millisecond)).UTC(),
						Line:      d.Line,
						PriceHome: d.PriceHome,
						PriceAway: d.PriceAway,
						HomeLabel: d.HomeLabel,
						AwayLabel: d.AwayLabel,
					}
					select {
					case snaps <- snap:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return snaps, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
