package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	"github.com/Apurer/marketplace-api/internal/app/stores"
	catalogapp "github.com/Apurer/marketplace-api/internal/domains/catalog/application"
	orderhttp "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/http"
	ordernotifications "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/notifications"
	ordersobs "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/observability"
	orderworkflows "github.com/Apurer/marketplace-api/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/marketplace-api/internal/domains/orders/application"
	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
	platformkafka "github.com/Apurer/marketplace-api/internal/platform/kafka"
	platformmetrics "github.com/Apurer/marketplace-api/internal/platform/metrics"
	platformobservability "github.com/Apurer/marketplace-api/internal/platform/observability"
)

const serviceName = "marketplace-api"

// Run boots the marketplace HTTP API with observability, stores and notification delivery wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	backends, cleanupStores, err := stores.Build(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer cleanupStores()
	logger.Info("order stores configured", slog.String("backend", backends.Backend))

	notifier, closeNotifier := BuildNotifier(cfg, logger)
	defer closeNotifier()
	dispatcher, stopDispatcher := buildDispatcher(ctx, cfg, instruments, backends.Orders, notifier)
	defer stopDispatcher()

	coreService := ordersapp.NewService(
		backends.Orders,
		backends.Catalog,
		backends.Contacts,
		backends.Suppliers,
		ordersapp.WithNotificationDispatcher(dispatcher),
		ordersapp.WithIdempotencyStore(backends.Idempotency),
		ordersapp.WithLogger(logger),
	)
	orderService := ordersobs.New(
		coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	importer := catalogapp.NewImporter(backends.PriceList, logger)
	if err := seedCatalog(ctx, cfg, importer, logger); err != nil {
		return err
	}

	router := NewRouter(orderService, importer, cfg, prometheus.NewRegistry())
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("marketplace API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("marketplace API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("marketplace API shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

// NewRouter assembles the gin engine: tracing, metrics, health and the /api/v1 routes.
func NewRouter(service ports.Service, importer orderhttp.CatalogImporter, cfg Config, registry *prometheus.Registry) *gin.Engine {
	metrics := platformmetrics.NewServerMetrics(registry, "api")
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(metrics.Middleware())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	opts := []orderhttp.Option{orderhttp.WithRateLimiter(orderhttp.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))}
	if importer != nil {
		opts = append(opts, orderhttp.WithImporter(importer))
	}
	orderhttp.NewAPI(service, opts...).Register(router)
	return router
}

// BuildNotifier publishes to Kafka when brokers are configured and logs otherwise.
func BuildNotifier(cfg Config, logger *slog.Logger) (ordernotifications.Notifier, func()) {
	writer, err := platformkafka.NewClient(cfg.KafkaBrokers).NewWriter(cfg.NotificationTopic)
	if err != nil {
		logger.Warn("Kafka unavailable, notifications go to the log", slog.String("error", err.Error()))
		return ordernotifications.NewLogNotifier(logger), func() {}
	}
	logger.Info("notifications published to Kafka", slog.String("topic", cfg.NotificationTopic))
	notifier := ordernotifications.NewKafkaNotifier(writer)
	return notifier, func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("failed to close Kafka writer", slog.String("error", err.Error()))
		}
	}
}

func buildDispatcher(ctx context.Context, cfg Config, instruments *platformobservability.Instruments, orders ports.Repository, notifier ordernotifications.Notifier) (ports.NotificationDispatcher, func()) {
	logger := instruments.Logger
	temporalClient, err := ConnectTemporalClient(cfg, instruments)
	if err == nil {
		dispatcher := orderworkflows.NewTemporalDispatcher(temporalClient, logger)
		logger.Info("Temporal notification workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
		return dispatcher, func() {
			dispatcher.Wait()
			temporalClient.Close()
		}
	}
	logger.Warn("Temporal workflows unavailable, delivering notifications in-process", slog.String("error", err.Error()))
	deliverer := ordernotifications.NewDeliverer(ordernotifications.NewRenderer(orders, cfg.AdminEmail), notifier)
	dispatcher := ordernotifications.NewAsyncDispatcher(deliverer, ordernotifications.WithDispatcherLogger(logger))
	dispatcher.Start(ctx)
	return dispatcher, func() {
		if err := dispatcher.Close(); err != nil {
			logger.Warn("notification dispatcher stopped with error", slog.String("error", err.Error()))
		}
	}
}

func seedCatalog(ctx context.Context, cfg Config, importer *catalogapp.Importer, logger *slog.Logger) error {
	if cfg.CatalogSeedFile == "" {
		return nil
	}
	file, err := os.Open(cfg.CatalogSeedFile)
	if err != nil {
		return fmt.Errorf("open catalog seed: %w", err)
	}
	defer file.Close()
	result, err := importer.Import(ctx, cfg.CatalogSeedOwner, file)
	if err != nil {
		return fmt.Errorf("seed catalog from %s: %w", cfg.CatalogSeedFile, err)
	}
	logger.Info("catalog seeded", slog.String("file", cfg.CatalogSeedFile), slog.Int64("shop.id", result.ShopID))
	return nil
}

// ConnectTemporalClient dials Temporal with tracing and structured logging.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
