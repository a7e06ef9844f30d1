package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/reload"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"corpus_source", cfg.Corpus.Source,
	)

	m := metrics.New()
	checker := health.NewChecker()

	var db *postgres.Client
	if cfg.Corpus.Source == config.CorpusSourcePostgres {
		var err error
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		checker.Register("postgres", health.PingCheck(db.Ping, false))
	}

	loader, err := corpus.NewLoader(cfg.Corpus, db)
	if err != nil {
		return fmt.Errorf("building corpus loader: %w", err)
	}
	snapshot, err := searcher.LoadSnapshot(ctx, loader, cfg.Corpus)
	if err != nil {
		return fmt.Errorf("loading initial corpus: %w", err)
	}

	var remote cache.Remote
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, shared cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			remote = redisClient
			checker.Register("redis", health.PingCheck(redisClient.Ping, false))
			slog.Info("shared search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	queryCache, err := cache.New(cache.Config{
		LocalSize: cfg.Search.LocalCacheSize,
		TTL:       cfg.Redis.CacheTTL,
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold:    5,
			ResetTimeout:        30 * time.Second,
			HalfOpenMaxRequests: 1,
		},
	}, remote, m)
	if err != nil {
		return fmt.Errorf("creating query cache: %w", err)
	}

	s := searcher.New(snapshot, cfg.Search,
		searcher.WithLoader(loader, cfg.Corpus),
		searcher.WithMetrics(m),
		searcher.OnSwap(func(*searcher.View) { queryCache.PurgeLocal() }),
	)
	checker.Register("corpus", health.CorpusCheck(s.Version, func() int {
		return s.Engine().Stats().Sections
	}))

	aggregator := analytics.NewAggregator()
	var tracker analytics.Tracker = aggregator
	stopKafka := func() {}
	if cfg.Kafka.Enabled {
		tracker, stopKafka, err = startKafka(ctx, cfg, s, queryCache, aggregator)
		if err != nil {
			return err
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP(cfg.Server.TrustProxy))
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics(m))
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewLimiter(cfg.Server.RateLimit, time.Minute)
		go limiter.Cleanup(ctx, 5*time.Minute)
		r.Use(middleware.RateLimit(limiter))
	}
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))

	h := handler.New(s, handler.Options{
		Cache:        queryCache,
		Tracker:      tracker,
		Metrics:      m,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	})
	h.Routes(r)
	r.Get("/api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	r.Get("/health/live", checker.LiveHandler())
	r.Get("/health/ready", checker.ReadyHandler())

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	stats := s.Engine().Stats()
	slog.Info("search service listening",
		"addr", server.Addr,
		"version", s.Version(),
		"sections", stats.Sections,
		"terms", stats.Terms,
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stopKafka()
		return fmt.Errorf("serving http: %w", err)
	}
	// ListenAndServe returns as soon as Shutdown starts; wait for in-flight
	// requests before the collector stops accepting their events.
	<-drained
	stopKafka()
	return nil
}

// startKafka wires the analytics pipeline and the corpus reload watcher.
// Search events go to Kafka through the collector and come back into the
// aggregator. Both consumers use a group owned by this instance, so each
// aggregator sees the traffic of every instance and every instance
// rebuilds on a corpus update. The returned stop function flushes the
// collector and must run after the HTTP server has drained.
func startKafka(
	ctx context.Context,
	cfg *config.Config,
	s *searcher.Searcher,
	queryCache *cache.QueryCache,
	aggregator *analytics.Aggregator,
) (analytics.Tracker, func(), error) {
	analyticsGroup, err := kafka.InstanceGroupID(cfg.Kafka.ConsumerGroup, "analytics")
	if err != nil {
		return nil, nil, err
	}
	reloadGroup, err := kafka.InstanceGroupID(cfg.Kafka.ConsumerGroup, "reload")
	if err != nil {
		return nil, nil, err
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	collector := analytics.NewCollector(producer, 10000, 100, time.Second)
	// The collector outlives ctx: requests still draining after the
	// shutdown signal keep tracking until stop runs.
	collector.Start(context.Background())
	stop := func() {
		collector.Close()
		if err := producer.Close(); err != nil {
			slog.Error("closing analytics producer", "error", err)
		}
	}

	analyticsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents,
		analyticsGroup, analytics.HandleEvent(aggregator))
	go func() {
		if err := analyticsConsumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()

	watcher := reload.NewWatcher(s, queryCache)
	reloadConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CorpusUpdates,
		reloadGroup, watcher.Handler())
	go func() {
		if err := reloadConsumer.Start(ctx); err != nil {
			slog.Error("corpus reload consumer error", "error", err)
		}
	}()

	slog.Info("kafka pipelines started",
		"analytics_topic", cfg.Kafka.Topics.AnalyticsEvents,
		"analytics_group", analyticsGroup,
		"corpus_topic", cfg.Kafka.Topics.CorpusUpdates,
		"reload_group", reloadGroup,
	)
	return collector, stop, nil
}
