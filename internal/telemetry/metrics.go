package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const metricsInterval = 30 * time.Second

// InitMetrics installs a global meter provider pushing to the same OTLP endpoint as
// traces. With an empty endpoint the global no-op provider stays in place.
func InitMetrics(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricsInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

// AnalysisMetrics holds the service instruments. A nil *AnalysisMetrics records nothing.
type AnalysisMetrics struct {
	pointsProcessed metric.Int64Counter
	pointsAccepted  metric.Int64Counter
	runDuration     metric.Float64Histogram
	catalogLoads    metric.Int64Counter
}

func NewAnalysisMetrics() (*AnalysisMetrics, error) {
	meter := otel.Meter(TracerName)

	processed, err := meter.Int64Counter("agri.points.processed",
		metric.WithDescription("Coordinates scored by batch analyses"),
		metric.WithUnit("{point}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create points processed counter: %w", err)
	}

	accepted, err := meter.Int64Counter("agri.points.productive",
		metric.WithDescription("Coordinates that reached the minimum score"),
		metric.WithUnit("{point}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create productive points counter: %w", err)
	}

	duration, err := meter.Float64Histogram("agri.analysis.duration",
		metric.WithDescription("Wall time of a batch analysis"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis duration histogram: %w", err)
	}

	loads, err := meter.Int64Counter("agri.catalog.loads",
		metric.WithDescription("Water source catalog loads by origin"),
		metric.WithUnit("{load}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog loads counter: %w", err)
	}

	return &AnalysisMetrics{
		pointsProcessed: processed,
		pointsAccepted:  accepted,
		runDuration:     duration,
		catalogLoads:    loads,
	}, nil
}

func (m *AnalysisMetrics) RecordRun(ctx context.Context, processed, productive int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pointsProcessed.Add(ctx, int64(processed))
	m.pointsAccepted.Add(ctx, int64(productive))
	m.runDuration.Record(ctx, elapsed.Seconds())
}

// RecordCatalogLoad counts a catalog load; origin is a store name or "overpass".
func (m *AnalysisMetrics) RecordCatalogLoad(ctx context.Context, origin string, ok bool) {
	if m == nil {
		return
	}
	m.catalogLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("origin", origin),
		attribute.Bool("success", ok),
	))
}
