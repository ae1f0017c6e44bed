package di

import (
	"context"
	"fmt"
	"time"

	"OddsPulse/internal/domain/repository"
	mid "OddsPulse/internal/middleware"
	internalrepo "OddsPulse/internal/repository"
	"OddsPulse/internal/service/bookfeed"
	"OddsPulse/internal/usecase"
	pkgch "OddsPulse/pkg/clickhouse"
	"OddsPulse/pkg/config"
	pkgkafka "OddsPulse/pkg/kafka"
	"OddsPulse/pkg/metrics"
	"OddsPulse/pkg/server"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".odds_snapshots (" +
			"ts DateTime64(3), sport LowCardinality(String), event_id String, " +
			"market_type LowCardinality(String), book LowCardinality(String), " +
			"line Nullable(Float64), price_home Nullable(Int32), price_away Nullable(Int32), " +
			"home_label String, away_label String" +
			") ENGINE=MergeTree ORDER BY (sport, event_id, market_type, book, ts)",
		"CREATE TABLE IF NOT EXISTS " + db + ".betting_splits (" +
			"ts DateTime64(3), event_id String, market_type LowCardinality(String), " +
			"bet_pct_home Float64, money_pct_home Float64" +
			") ENGINE=MergeTree ORDER BY (event_id, market_type, ts)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSnapshotStorage creates ClickHouse storage repository.
func ProvideSnapshotStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseStorage(chClient.DB(), db+".odds_snapshots", db+".betting_splits")
}

// ProvideSnapshotPublisher creates Kafka publisher repository.
func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaSnapshotsHandler registers the handler for the snapshots topic.
func ProvideKafkaSnapshotsHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaSnapshotsHandler {
	return usecase.NewKafkaSnapshotsHandler(cfg.Kafka.Topic, store, metrics, cfg.Analysis.VigTolerance)
}

// ProvideBookFeedStream creates the odds provider WebSocket stream.
func ProvideBookFeedStream(cfg *config.Config) repository.MarketStream {
	return bookfeed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Books,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideSnapshotProcessor creates the snapshot processor use case.
func ProvideSnapshotProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.SnapshotProcessor {
	return usecase.NewSnapshotProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideFeedCollector creates the feed collector use case.
func ProvideFeedCollector(
	stream repository.MarketStream,
	processor *usecase.SnapshotProcessor,
	metrics repository.Metrics,
) *usecase.FeedCollector {
	// Build middleware pipeline between the book feed and the backend
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewFeedCollector(stream, processor, metrics, pipe)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.FeedCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSnapshotsHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	metrics repository.Metrics,
) *server.App {
	// Attach hook to consumer: example NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.Metrics = metrics
	app.LogPublisher = producer
	// attach snapshot processor to app for closing resources via collector
	if collector != nil {
		app.SnapProc = collector.Processor()
	}
	return app
}
