package di

import (
	"context"
	"fmt"
	"time"

	"BreadthLab/internal/domain/repository"
	"BreadthLab/internal/handler/api"
	internalrepo "BreadthLab/internal/repository"
	"BreadthLab/internal/scheduler"
	"BreadthLab/internal/services/indicators"
	"BreadthLab/internal/usecase"
	"BreadthLab/pkg/cache"
	pkgch "BreadthLab/pkg/clickhouse"
	"BreadthLab/pkg/config"
	xhttp "BreadthLab/pkg/http"
	pkgkafka "BreadthLab/pkg/kafka"
	applogger "BreadthLab/pkg/logger"
	"BreadthLab/pkg/metrics"
	"BreadthLab/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvidePanelStore creates the ClickHouse panel repository.
func ProvidePanelStore(ch *pkgch.Client, l *applogger.Logger) repository.PanelStore {
	store := internalrepo.NewCHPanelStore(ch)
	store.SetLogger(l)
	return store
}

// ProvideSnapshotStore creates the snapshot repository and initializes its schema.
func ProvideSnapshotStore(ch *pkgch.Client, l *applogger.Logger) (repository.SnapshotStore, error) {
	store := internalrepo.NewCHSnapshotStore(ch)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("snapshot schema: %w", err)
	}
	return store, nil
}

// ProvidePublisher creates the Kafka snapshot publisher, or nil when Kafka is
// disabled in the config.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideCache creates the snapshot cache: layered Redis+memory when Redis is
// enabled, in-process memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvidePipeline creates the indicator pipeline from config.
func ProvidePipeline(cfg *config.Config, m repository.Metrics) (*usecase.IndicatorPipeline, error) {
	ws, err := cfg.WindowSet()
	if err != nil {
		return nil, fmt.Errorf("window set: %w", err)
	}
	return usecase.NewIndicatorPipeline(usecase.PipelineConfig{
		Windows: ws,
		Breadth: indicators.BreadthConfig{
			Epsilon:      cfg.Breadth.Epsilon,
			SmoothWindow: cfg.Breadth.SmoothWindow,
			SmoothCounts: cfg.Breadth.SmoothCounts,
		},
		Oscillator: indicators.OscillatorConfig{
			Mode:       cfg.Oscillator.Mode,
			Lookback:   cfg.Oscillator.Lookback,
			ZMode:      cfg.Oscillator.ZMode,
			ExcludeMax: cfg.Oscillator.ExcludeMax,
		},
		Breakout: indicators.BreakoutConfig{
			Conditions:   cfg.BreakoutConditions(),
			SmoothWindow: cfg.Breakout.SmoothWindow,
			RatioShort:   cfg.Breakout.RatioShort,
			RatioLong:    cfg.Breakout.RatioLong,
		},
	}, m)
}

// ProvideRefresher creates the refresh use case.
func ProvideRefresher(
	cfg *config.Config,
	pipeline *usecase.IndicatorPipeline,
	panels repository.PanelStore,
	snapshots repository.SnapshotStore,
	publisher repository.Publisher,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.RefreshUseCase {
	return usecase.NewRefreshUseCase(
		cfg.Breadth.Index,
		cfg.Breadth.History,
		pipeline,
		panels,
		snapshots,
		publisher,
		c,
		m,
		l,
	)
}

// ProvideQueries creates the read-side use case.
func ProvideQueries(refresher *usecase.RefreshUseCase) *usecase.MarketQueryUseCase {
	return usecase.NewMarketQueryUseCase(refresher)
}

// ProvideHandler creates the Echo HTTP handler.
func ProvideHandler(l *applogger.Logger, queries *usecase.MarketQueryUseCase, panels repository.PanelStore) xhttp.Handler {
	return api.NewBreadthEchoHandler(l, queries, panels)
}

// ProvideScheduler creates the cron scheduler.
func ProvideScheduler(refresher *usecase.RefreshUseCase, l *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(refresher, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	sched *scheduler.Scheduler,
	refresher *usecase.RefreshUseCase,
	panels repository.PanelStore,
	snapshots repository.SnapshotStore,
	publisher repository.Publisher,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, handler, sched, refresher, panels, snapshots, publisher, c)
}
