package metrics

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"buswatch/pkg/otel"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var (
	// meterProvider is the global meter provider
	meterProvider *sdkmetric.MeterProvider

	// Meter is the global meter for creating instruments
	Meter metric.Meter

	// lastQueryTimestamp tracks the last successful route query (Unix timestamp)
	lastQueryTimestamp atomic.Int64
)

// InitMetrics initializes OpenTelemetry metrics with the configured exporter.
// Returns a shutdown function that should be called on application exit.
func InitMetrics() (func(), error) {
	if !otel.IsMetricsEnabled() {
		slog.Debug("OpenTelemetry metrics is disabled")
		return func() {}, nil
	}

	ctx := context.Background()

	cfg := otel.GetExporterConfig(otel.SignalMetrics)

	exporter, err := otel.NewMetricExporter(ctx, cfg)
	if err != nil {
		slog.Warn("Failed to create OTLP metric exporter, using noop", "error", err)
		return func() {}, nil
	}

	res, err := otel.NewResource()
	if err != nil {
		slog.Warn("Failed to create resource, using noop", "error", err)
		return func() {}, nil
	}

	// Periodic reader with 60s export interval
	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(60*time.Second),
			),
		),
		sdkmetric.WithResource(res),
	)

	otelapi.SetMeterProvider(meterProvider)

	Meter = meterProvider.Meter("buswatch")

	if err := initializeInstruments(); err != nil {
		slog.Error("Failed to initialize metric instruments", "error", err)
		return func() {}, nil
	}

	if err := registerRuntimeMetrics(); err != nil {
		slog.Warn("Failed to register runtime metrics", "error", err)
	}

	slog.Debug("OpenTelemetry metrics initialized",
		"endpoint", cfg.Endpoint,
		"protocol", cfg.Protocol,
	)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			slog.Error("Error shutting down meter provider", "error", err)
		}
	}, nil
}

// registerRuntimeMetrics registers observable gauges for runtime metrics
func registerRuntimeMetrics() error {
	_, err := Meter.Int64ObservableGauge(
		"runtime.go.goroutines",
		metric.WithDescription("Number of goroutines"),
		metric.WithUnit("{goroutine}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(runtime.NumGoroutine()))
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = Meter.Int64ObservableGauge(
		"query.last_success.timestamp",
		metric.WithDescription("Unix timestamp of the last successful route query"),
		metric.WithUnit("s"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			ts := lastQueryTimestamp.Load()
			if ts > 0 {
				o.Observe(ts)
			}
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = Meter.Int64ObservableGauge(
		"runtime.go.mem.heap_alloc",
		metric.WithDescription("Heap memory allocated"),
		metric.WithUnit("By"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			o.Observe(int64(m.HeapAlloc))
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = Meter.Int64ObservableGauge(
		"runtime.go.mem.sys",
		metric.WithDescription("Total memory obtained from OS"),
		metric.WithUnit("By"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			o.Observe(int64(m.Sys))
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = Meter.Int64ObservableCounter(
		"runtime.go.gc.count",
		metric.WithDescription("Number of completed GC cycles"),
		metric.WithUnit("{gc}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			o.Observe(int64(m.NumGC))
			return nil
		}),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordLastQueryTimestamp records the current time as the last successful query
func RecordLastQueryTimestamp() {
	lastQueryTimestamp.Store(time.Now().Unix())
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Meter != nil
}
