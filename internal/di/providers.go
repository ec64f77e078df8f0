package di

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"EquityLens/internal/domain/repository"
	"EquityLens/internal/handler/api"
	internalrepo "EquityLens/internal/repository"
	"EquityLens/internal/service/cache"
	"EquityLens/internal/services/search"
	"EquityLens/internal/usecase"
	kv "EquityLens/pkg/cache"
	pkgch "EquityLens/pkg/clickhouse"
	"EquityLens/pkg/config"
	apphttp "EquityLens/pkg/http"
	pkgkafka "EquityLens/pkg/kafka"
	applogger "EquityLens/pkg/logger"
	"EquityLens/pkg/metrics"
	"EquityLens/pkg/queue"
	"EquityLens/pkg/server"
	"EquityLens/pkg/tracing"
)

// ResultSinks is every downstream consumer of fresh analyses.
type ResultSinks []repository.ResultSink

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideTracer returns a no-op tracer unless tracing is enabled.
func ProvideTracer(cfg *config.Config) (*tracing.Tracer, func(), error) {
	t, err := tracing.New(cfg.Tracing)
	if err != nil {
		return nil, nil, fmt.Errorf("tracing: %w", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.Shutdown(ctx)
	}
	return t, cleanup, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideClickHouseClient connects only when the provider or the archive
// needs ClickHouse; otherwise it returns nil.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.NeedsClickHouse() {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
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
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if cfg.ClickHouse.InitSchema && cfg.Provider.Type == "clickhouse" {
		if err := client.InitSchema(ctx, internalrepo.ProviderSchema); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}

	l.Info("clickhouse connected",
		applogger.String("host", cfg.ClickHouse.Host),
		applogger.String("database", cfg.ClickHouse.Database),
	)
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideMarketDataProvider selects the snapshot source.
func ProvideMarketDataProvider(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.MarketDataProvider, error) {
	switch cfg.Provider.Type {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse provider: no client")
		}
		p := internalrepo.NewCHProvider(ch)
		p.SetLogger(l)
		return p, nil
	case "http", "":
		client := apphttp.NewClient(
			apphttp.WithTimeout(cfg.Provider.Timeout),
			apphttp.WithUserAgent("equitylens-analyzer/1.0"),
			apphttp.WithMaxBodySize(4<<20),
		)
		opts := []internalrepo.HTTPProviderOption{
			internalrepo.WithAPIKey(cfg.Provider.APIKey),
			internalrepo.WithHTTPClient(client),
		}
		if cfg.Provider.RatePerSec > 0 {
			opts = append(opts, internalrepo.WithRateLimit(cfg.Provider.RateBurst, cfg.Provider.RatePerSec))
		}
		return internalrepo.NewHTTPProvider(cfg.Provider.URL, opts...), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Provider.Type)
	}
}

// ProvideRedisCache connects when the remote cache or the job queue needs
// Redis; otherwise it returns nil.
func ProvideRedisCache(cfg *config.Config, l *applogger.Logger) (*kv.RedisCache, func(), error) {
	if !cfg.NeedsRedis() {
		return nil, func() {}, nil
	}
	rc, err := kv.NewRedisCache(
		kv.WithRedisAddr(cfg.Cache.Redis.Addr),
		kv.WithRedisPassword(cfg.Cache.Redis.Password),
		kv.WithRedisDB(cfg.Cache.Redis.DB),
		kv.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 30*time.Second),
		kv.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	l.Info("redis connected", applogger.String("addr", cfg.Cache.Redis.Addr))
	// the analysis cache may already have closed it
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideRemoteCache returns the Redis-backed second cache level, or nil.
func ProvideRemoteCache(cfg *config.Config, rc *kv.RedisCache) kv.Service {
	if !cfg.Cache.Redis.Enabled || rc == nil {
		return nil
	}
	return kv.NewLayeredCache(rc,
		kv.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize),
		kv.WithLayeredMemoryTTL(cfg.Cache.MemoryTTL),
	)
}

// ProvideJobQueue returns the Redis job queue, or nil when it is disabled.
func ProvideJobQueue(cfg *config.Config, rc *kv.RedisCache, l *applogger.Logger) *queue.Queue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	return queue.New(queue.NewRedisStore(rc.Client(), cfg.Queue.Prefix),
		queue.WithWorkers(cfg.Queue.Workers),
		queue.WithRetry(cfg.Queue.RetryLimit, cfg.Queue.RetryDelay),
		queue.WithLogger(l),
	)
}

// ProvideRefreshPublisher prefers Kafka over the job queue; nil disables the
// refresh endpoint.
func ProvideRefreshPublisher(cfg *config.Config, producer *pkgkafka.Producer, q *queue.Queue) repository.RefreshPublisher {
	switch {
	case producer != nil:
		return internalrepo.NewKafkaRefreshPublisher(producer, cfg.Kafka.RefreshTopic)
	case q != nil:
		return internalrepo.NewQueueRefreshPublisher(q, usecase.RefreshJobType)
	default:
		return nil
	}
}

// ProvideAnalysisCache builds the result cache; closing it closes the remote level.
func ProvideAnalysisCache(cfg *config.Config, remote kv.Service, m repository.Metrics, l *applogger.Logger) (*cache.AnalysisCache, func()) {
	opts := []cache.Option{
		cache.WithLogger(l),
		cache.WithMetrics(m),
		cache.WithRemoteTimeout(cfg.Cache.RemoteTimeout),
	}
	if remote != nil {
		opts = append(opts, cache.WithRemote(remote))
	}
	c := cache.New(opts...)
	cleanup := func() {
		if err := c.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return c, cleanup
}

// ProvideResultArchive opens the configured archive, or returns nil for "none".
func ProvideResultArchive(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.ResultArchive, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		archive repository.ResultArchive
		err     error
	)
	switch cfg.Archive.Type {
	case "sqlite":
		archive, err = internalrepo.NewSQLiteArchive(ctx, cfg.Archive.SQLitePath, l)
	case "clickhouse":
		if ch == nil {
			return nil, nil, fmt.Errorf("clickhouse archive: no client")
		}
		archive, err = internalrepo.NewClickHouseArchive(ctx, ch, cfg.Archive.Table, l)
	case "none", "":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive type %q", cfg.Archive.Type)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("result archive: %w", err)
	}
	cleanup := func() {
		if err := archive.Close(); err != nil {
			l.Warn("archive close error", applogger.Error(err))
		}
	}
	return archive, cleanup, nil
}

// ProvideKafkaProducer returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	cleanup := func() {
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return producer, cleanup, nil
}

// ProvideResultSinks collects whichever sinks are configured.
func ProvideResultSinks(cfg *config.Config, archive repository.ResultArchive, producer *pkgkafka.Producer) ResultSinks {
	var sinks ResultSinks
	if archive != nil {
		sinks = append(sinks, archive)
	}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ResultsTopic))
	}
	return sinks
}

// ProvideOrchestrator creates the analysis use case.
func ProvideOrchestrator(
	cfg *config.Config,
	provider repository.MarketDataProvider,
	c *cache.AnalysisCache,
	sinks ResultSinks,
	m repository.Metrics,
	tracer *tracing.Tracer,
	l *applogger.Logger,
) *usecase.AnalysisOrchestrator {
	return usecase.NewAnalysisOrchestrator(provider, c,
		usecase.WithIDGenerator(uuid.NewString),
		usecase.WithFetchTimeout(cfg.Analysis.FetchTimeout),
		usecase.WithRetryBackoff(cfg.Analysis.RetryBackoff),
		usecase.WithSinkTimeout(cfg.Analysis.SinkTimeout),
		usecase.WithParallelism(cfg.Analysis.Parallelism),
		usecase.WithRiskFreeRate(cfg.Backtest.RiskFreeRate),
		usecase.WithSinks(sinks...),
		usecase.WithMetrics(m),
		usecase.WithTracer(tracer),
		usecase.WithLogger(l),
	)
}

// ProvideHistoryUseCase works with a nil archive and reports it as disabled.
func ProvideHistoryUseCase(archive repository.ResultArchive) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(archive)
}

// ProvideSymbolSearch loads the configured catalog or the built-in one.
func ProvideSymbolSearch(cfg *config.Config, l *applogger.Logger) (*usecase.SymbolSearchUseCase, error) {
	if cfg.Search.CatalogPath == "" {
		return usecase.NewSymbolSearchUseCase(nil), nil
	}
	c, err := search.LoadCatalog(cfg.Search.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("symbol catalog: %w", err)
	}
	l.Info("symbol catalog loaded", applogger.String("path", cfg.Search.CatalogPath), applogger.Int("symbols", c.Len()))
	return usecase.NewSymbolSearchUseCase(c), nil
}

// ProvideHTTPHandler creates the REST handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.AnalysisOrchestrator,
	history *usecase.HistoryUseCase,
	symbols *usecase.SymbolSearchUseCase,
	refresh repository.RefreshPublisher,
) *api.AnalysisEchoHandler {
	opts := []api.HandlerOption{api.WithBacktester(orch), api.WithSymbolSearch(symbols)}
	if refresh != nil {
		opts = append(opts, api.WithRefreshPublisher(refresh))
	}
	return api.NewAnalysisEchoHandler(l, orch, history, cfg.Analysis.MaxBatch, opts...)
}

// ProvideKafkaConsumer returns nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerHook(pkgkafka.TraceHook{}),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRefreshHandler handles refresh requests from the refresh topic.
func ProvideRefreshHandler(cfg *config.Config, orch *usecase.AnalysisOrchestrator, c *cache.AnalysisCache, m repository.Metrics, l *applogger.Logger) *usecase.RefreshHandler {
	return usecase.NewRefreshHandler(cfg.Kafka.RefreshTopic, orch, c, m, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.AnalysisEchoHandler,
	consumer *pkgkafka.Consumer,
	refresh *usecase.RefreshHandler,
	jobs *queue.Queue,
	orch *usecase.AnalysisOrchestrator,
) *server.App {
	var kh pkgkafka.MessageHandler
	if consumer != nil {
		kh = refresh
	}
	if jobs != nil {
		jobs.RegisterJob(refresh)
	}
	return server.New(cfg, l, handler, consumer, kh, jobs, orch)
}
