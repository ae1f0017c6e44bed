package usecase

import (
	"OddsPulse/internal/domain/models"
	drepo "OddsPulse/internal/domain/repository"
	mid "OddsPulse/internal/middleware"
	"OddsPulse/pkg/oddsmath"
	"context"
)

// FeedCollector collects odds snapshots from the book feed and processes them.
type FeedCollector struct {
	stream  drepo.MarketStream
	proc    *SnapshotProcessor
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewFeedCollector creates a new FeedCollector instance.
func NewFeedCollector(stream drepo.MarketStream, proc *SnapshotProcessor, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *FeedCollector {
	return &FeedCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the book feed is connected.
func (c *FeedCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *FeedCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	snapCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, snapCh, errCh)
	return nil
}

func (c *FeedCollector) consume(ctx context.Context, snapCh <-chan *models.OddsSnapshot, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case s := <-snapCh:
			if s == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, s)
			} else {
				_ = c.proc.Process(ctx, s)
			}
			if s.PriceHome != nil {
				if ip, err := impliedHome(s); err == nil {
					c.metrics.RecordLastIP(s.Market.Key(), ip)
				}
			}
		}
	}
}

func impliedHome(s *models.OddsSnapshot) (float64, error) {
	return oddsmath.AmericanToProb(*s.PriceHome)
}

func (c *FeedCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying SnapshotProcessor for lifecycle management.
func (c *FeedCollector) Processor() *SnapshotProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *FeedCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
