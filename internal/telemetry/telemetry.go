// Package telemetry installs the OpenTelemetry trace and meter providers.
//
// Steps and runs open spans, and the backend client counts attempts and
// failures, through the global otel API. Without [Init] those calls are
// no-ops; with it they are exported over OTLP/gRPC.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultMetricInterval is how often metrics are exported.
const DefaultMetricInterval = 15 * time.Second

// ShutdownFunc flushes and stops the providers.
type ShutdownFunc func(context.Context) error

// Config selects the collector and names the service.
type Config struct {
	// Endpoint is the OTLP/gRPC collector address (host:port). Empty
	// disables export.
	Endpoint    string
	ServiceName string
	Insecure    bool
	Version     string
}

// Init installs global trace and meter providers exporting to cfg.Endpoint.
// With no endpoint it installs nothing and returns a no-op shutdown.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		_ = traceExp.Shutdown(ctx)
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithHost(),
		resource.WithAttributes(attributes(cfg)...),
	)
	if err != nil {
		// Partial resources are still usable.
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(DefaultMetricInterval))),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		mErr := mp.Shutdown(ctx)
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown tracer provider: %w", err)
		}
		if mErr != nil {
			return fmt.Errorf("shutdown meter provider: %w", mErr)
		}
		return nil
	}, nil
}

func attributes(cfg Config) []attribute.KeyValue {
	name := cfg.ServiceName
	if name == "" {
		name = "contentpipe"
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", name)}
	if version := firstNonEmpty(cfg.Version, os.Getenv("APP_VERSION"), os.Getenv("GIT_SHA")); version != "" {
		attrs = append(attrs, attribute.String("service.version", version))
	}
	return attrs
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
