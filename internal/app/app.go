// Package app wires together all dependencies and runs the sales service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/louvornalaje/distribuidora-sub000/internal/config"
	"github.com/louvornalaje/distribuidora-sub000/internal/contact"
	"github.com/louvornalaje/distribuidora-sub000/internal/event"
	handler "github.com/louvornalaje/distribuidora-sub000/internal/handler/http"
	"github.com/louvornalaje/distribuidora-sub000/internal/repository/postgres"
	"github.com/louvornalaje/distribuidora-sub000/internal/service"
	"github.com/louvornalaje/distribuidora-sub000/migrations"
	"github.com/louvornalaje/distribuidora-sub000/pkg/database"
	"github.com/louvornalaje/distribuidora-sub000/pkg/health"
	"github.com/louvornalaje/distribuidora-sub000/pkg/httpclient"
	pkgkafka "github.com/louvornalaje/distribuidora-sub000/pkg/kafka"
	"github.com/louvornalaje/distribuidora-sub000/pkg/tracing"
)

// App holds the running components of the sales service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "sales",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     1.0,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "sales")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	eventProducer := event.NewProducer(kafkaProducer, logger)

	orderRepo := postgres.NewOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)

	contactClient := newContactClient(cfg, logger)

	reconciler := service.NewStockReconciler(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, reconciler, contactClient, eventProducer, logger)
	catalogService := service.NewCatalogService(productRepo, reconciler, eventProducer, logger)
	metricsService := service.NewMetricsService(orderRepo, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return kafkaProducer.Ping(ctx)
	})

	router := handler.NewRouter(orderService, catalogService, metricsService, healthHandler, logger, cfg.PprofAllowedCIDRs)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       kafkaProducer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newContactClient builds the contact service client, optionally wrapping the
// HTTP client in a circuit breaker.
func newContactClient(cfg *config.Config, logger *slog.Logger) *contact.Client {
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.ContactTimeout,
		MaxRetries:      cfg.ContactMaxRetries,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})

	var doer contact.HTTPDoer = baseClient
	if cfg.ContactBreakerEnabled {
		cbCfg := httpclient.DefaultCircuitBreakerConfig("contact-service")
		cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger)
		logger.Info("circuit breaker initialized", slog.String("name", cbCfg.Name))
		doer = cbClient
	}

	return contact.NewClient(cfg.ContactServiceURL, doer, logger)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown stops all components: drain HTTP, flush tracer spans, close the
// Kafka producer, then the pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
