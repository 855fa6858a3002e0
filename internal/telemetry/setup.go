package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	sloglogrus "github.com/samber/slog-logrus/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	logglobal "go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	AppName string
	// Endpoint of an OTLP http collector. When empty exporters are picked from
	// the OTEL_*_EXPORTER environment variables.
	Endpoint string
	LogLevel slog.Level
}

type Client struct {
	log *slog.Logger

	tracerProvider *trace.TracerProvider
	metricProvider *metric.MeterProvider
	loggerProvider *log.LoggerProvider
}

func (client *Client) Flush(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.metricProvider.ForceFlush(ctx)
	})
	g.Go(func() error {
		return client.loggerProvider.ForceFlush(ctx)
	})
	g.Go(func() error {
		return client.tracerProvider.ForceFlush(ctx)
	})

	return g.Wait()
}

func (client *Client) Shutdown(ctx context.Context) {
	if err := client.metricProvider.Shutdown(ctx); err != nil {
		client.log.ErrorContext(ctx, "error shutting down metric provider", "error", err.Error())
	}
	if err := client.tracerProvider.Shutdown(ctx); err != nil {
		client.log.ErrorContext(ctx, "error shutting down tracer provider", "error", err.Error())
	}
	if err := client.loggerProvider.Shutdown(ctx); err != nil {
		client.log.ErrorContext(ctx, "error shutting down logger provider", "error", err.Error())
	}
}

func setEnvIfNotSet(key, value string) {
	if _, ok := os.LookupEnv(key); !ok {
		os.Setenv(key, value)
	}
}

// Setup installs the global otel providers and the default slog logger.
// A prometheus reader is always registered so /metrics works without a collector.
func Setup(ctx context.Context, cfg Config) (*Client, error) {
	// otel defaults to an otlp exporter on localhost, none is the saner default
	setEnvIfNotSet("OTEL_TRACES_EXPORTER", "none")
	setEnvIfNotSet("OTEL_LOGS_EXPORTER", "none")
	setEnvIfNotSet("OTEL_METRICS_EXPORTER", "none")

	client := &Client{
		log: slog.With("component", "telemetry"),
	}
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(cause error) {
		client.log.ErrorContext(ctx, "otel error", "error", cause.Error())
	}))

	r, err := newResource(cfg.AppName)
	if err != nil {
		return nil, err
	}

	promExporter, err := prometheus.New(prometheus.WithNamespace(cfg.AppName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	metricReader, err := newMetricReader(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metric exporter: %w", err)
	}
	client.metricProvider = metric.NewMeterProvider(
		metric.WithResource(r),
		metric.WithReader(metricReader),
		metric.WithReader(promExporter),
	)
	otel.SetMeterProvider(client.metricProvider)

	counter, err := otel.Meter(cfg.AppName + "/telemetry").Int64Counter("up")
	if err != nil {
		return nil, err
	}
	counter.Add(ctx, 1)

	spanExporter, err := newSpanExporter(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize trace exporter: %w", err)
	}
	client.tracerProvider = trace.NewTracerProvider(
		trace.WithResource(r),
		trace.WithBatcher(spanExporter, trace.WithExportTimeout(time.Second)),
	)
	otel.SetTracerProvider(client.tracerProvider)

	logExporter, err := newLogExporter(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize log exporter: %w", err)
	}
	client.loggerProvider = log.NewLoggerProvider(
		log.WithResource(r),
		log.WithProcessor(log.NewBatchProcessor(logExporter, log.WithExportInterval(time.Second))),
	)
	logglobal.SetLoggerProvider(client.loggerProvider)

	logrus.SetLevel(logrusLevel(cfg.LogLevel))
	slog.SetDefault(slog.New(slogmulti.Fanout(
		otelslog.NewHandler(cfg.AppName, otelslog.WithLoggerProvider(client.loggerProvider)),
		sloglogrus.Option{Level: cfg.LogLevel, Logger: logrus.StandardLogger()}.NewLogrusHandler(),
	)))

	// recreate telemetry logger
	client.log = slog.With("component", "telemetry")
	client.log.InfoContext(ctx, "telemetry initialized", "endpoint", cfg.Endpoint)

	return client, nil
}

func newResource(appName string) (*resource.Resource, error) {
	hostName, _ := os.Hostname()

	// schemaless, the default resource carries the sdk's own semconv schema
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(appName),
			semconv.HostName(hostName),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
}

func newMetricReader(ctx context.Context, endpoint string) (metric.Reader, error) {
	if endpoint == "" {
		return autoexport.NewMetricReader(ctx)
	}

	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{
			Enabled: false,
		}),
	)
	if err != nil {
		return nil, err
	}
	return metric.NewPeriodicReader(exporter), nil
}

func newSpanExporter(ctx context.Context, endpoint string) (trace.SpanExporter, error) {
	if endpoint == "" {
		return autoexport.NewSpanExporter(ctx)
	}

	return otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
			Enabled: false,
		}),
	)
}

func newLogExporter(ctx context.Context, endpoint string) (log.Exporter, error) {
	if endpoint == "" {
		return autoexport.NewLogExporter(ctx)
	}

	return otlploghttp.New(ctx,
		otlploghttp.WithEndpoint(endpoint),
		otlploghttp.WithRetry(otlploghttp.RetryConfig{
			Enabled: false,
		}),
	)
}

func logrusLevel(level slog.Level) logrus.Level {
	switch {
	case level <= slog.LevelDebug:
		return logrus.DebugLevel
	case level <= slog.LevelInfo:
		return logrus.InfoLevel
	case level <= slog.LevelWarn:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}
