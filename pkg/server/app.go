package server

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"OddsPulse/internal/domain/repository"
	"OddsPulse/internal/handler/api"
	internalrepo "OddsPulse/internal/repository"
	icache "OddsPulse/internal/service/cache"
	"OddsPulse/internal/service/splits"
	"OddsPulse/internal/services/forecast"
	"OddsPulse/internal/services/recommend"
	"OddsPulse/internal/services/steam"
	"OddsPulse/internal/services/ta"
	"OddsPulse/internal/usecase"
	pkgcache "OddsPulse/pkg/cache"
	pkgch "OddsPulse/pkg/clickhouse"
	"OddsPulse/pkg/config"
	xhttp "OddsPulse/pkg/http"
	httpmid "OddsPulse/pkg/http/middleware"
	pkgkafka "OddsPulse/pkg/kafka"
	applogger "OddsPulse/pkg/logger"
	"OddsPulse/pkg/queue"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.FeedCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	queue       *queue.RedisQueue
	SnapProc    *usecase.SnapshotProcessor
	Metrics     repository.Metrics
	// LogPublisher, when set, receives aggregated error logs on a side topic.
	LogPublisher applogger.Publisher
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.FeedCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if a.LogPublisher != nil && a.cfg.Kafka.Topic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          a.cfg.Kafka.Topic + ".errlog",
			Publisher:      a.LogPublisher,
		})
		defer l.RemoveCollector()
	}

	// Evaluation cache: Redis when configured, in-process TTL otherwise.
	var evalCache icache.BytesCache
	if a.cfg.Cache.Redis.Enabled {
		evalCache = icache.NewRedisCache(icache.RedisConfig{
			Addr:     a.cfg.Cache.Redis.Addr,
			Password: a.cfg.Cache.Redis.Password,
			DB:       a.cfg.Cache.Redis.DB,
		})
	} else {
		evalCache = icache.NewTTLCache()
	}

	// Result cache holds worker-produced evaluations. L1 memory always; L2
	// Redis layered on top when configured and reachable.
	var resultCache pkgcache.Service = pkgcache.NewMemoryCache()
	if a.cfg.Cache.Redis.Enabled {
		if host, portStr, err := net.SplitHostPort(a.cfg.Cache.Redis.Addr); err == nil {
			port, _ := strconv.Atoi(portStr)
			rc, rerr := pkgcache.NewRedisCache(
				pkgcache.WithRedisHost(host),
				pkgcache.WithRedisPort(port),
				pkgcache.WithRedisPassword(a.cfg.Cache.Redis.Password),
				pkgcache.WithRedisDB(a.cfg.Cache.Redis.DB),
			)
			if rerr != nil {
				l.Warn("result cache redis unavailable, memory only", applogger.Error(rerr))
			} else {
				resultCache = pkgcache.NewLayeredCache(rc)
			}
		}
	}
	resultTTL := a.cfg.Cache.TTL
	if resultTTL <= 0 {
		resultTTL = 5 * time.Minute
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	var httpHandler xhttp.Handler
	var evaluate *usecase.EvaluateUseCase
	var cached *api.MarketsHandler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else if a.chClient != nil {
		store := internalrepo.NewCHSnapshotReader(a.chClient)
		store.SetLogger(l)
		engine := ta.NewEngine(a.cfg.Analysis)
		detector := steam.NewDetector(a.cfg.Analysis)
		forecaster := forecast.NewForecaster(a.cfg.Analysis)
		recommender := recommend.NewEngine(a.cfg.Analysis)
		eval := usecase.NewMarketEvaluator(store, engine, detector, forecaster, recommender, a.cfg.Analysis)
		evaluate = usecase.NewEvaluateUseCase(eval)

		db := a.cfg.ClickHouse.Database
		storage := internalrepo.NewClickHouseStorage(a.chClient.DB(), db+".odds_snapshots", db+".betting_splits")
		history := usecase.NewHistoryUseCase(storage)

		mh := api.NewMarketsEchoHandler(l, eval, evaluate, history)
		mh.SetResultCache(resultCache)
		mh.SetIngest(usecase.NewIngestUseCase(storage, a.Metrics, a.cfg.Analysis.VigTolerance))
		httpHandler = mh

		// Splits arrive over REST on their own cadence.
		if a.cfg.Feed.SplitsURL != "" {
			sp := splits.New(a.cfg.Feed.SplitsURL, a.cfg.Feed.APIKey, a.cfg.Feed.SplitsPoll, storage, a.Metrics, l)
			go sp.Run(ctx, a.cfg.Feed.Sports)
			l.Info("splits poller started", applogger.Strings("sports", a.cfg.Feed.Sports))
		}

		// Cached, rate-limited variant for dashboard polling.
		cached = api.NewMarketsHandler(eval)
		cached.SetCache(evalCache)
		cached.SetLogger(l)
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if cached != nil {
		e := a.httpServer.Echo()
		mw := httpmid.Metrics(l, 500*time.Millisecond)
		g := e.Group("/cached")
		g.GET("/indicators", echo.WrapHandler(mw(cached.Indicators())))
		g.GET("/steam", echo.WrapHandler(mw(cached.Steam())))
		g.GET("/forecast", echo.WrapHandler(mw(cached.Forecast())))
		g.GET("/recommendation", echo.WrapHandler(mw(cached.Recommendation())))
	}

	// Re-evaluation queue: workers drain per-market jobs off the ingest path.
	if a.cfg.Queue.Enabled && evaluate != nil {
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Cache.Redis.Addr,
			Password: a.cfg.Cache.Redis.Password,
			DB:       a.cfg.Cache.Redis.DB,
		})
		a.queue = queue.NewRedisQueue(l,
			&queue.QueueConfig{Workers: a.cfg.Queue.Workers},
			rdb,
			queue.ModeProducerConsumer,
			queue.WithKeyPrefix(a.cfg.Queue.Name),
		)
		job := usecase.NewReevaluateJob(evaluate, a.Metrics, l)
		job.SetResultCache(resultCache, resultTTL)
		a.queue.RegisterJob(job)
		if err := a.queue.Start(); err != nil {
			l.Error("reevaluate queue start error", applogger.Error(err))
		} else {
			a.queue.StartRetryProcessor()
			l.Info("reevaluate queue started", applogger.Int("workers", a.cfg.Queue.Workers))
			// Each stored snapshot schedules its market for re-evaluation.
			if kh, ok := a.kh.(*usecase.KafkaSnapshotsHandler); ok {
				kh.SetReevaluateQueue(a.queue, time.Minute)
			}
		}
	}

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("books", a.cfg.Feed.Books))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// best-effort logging via stdout
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop queue workers before closing their backends
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("reevaluate queue stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close snapshot processor resources (publisher/storage)
	if a.SnapProc != nil {
		a.SnapProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
