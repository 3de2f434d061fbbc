// internal/common/observability/metrics.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	assemblyCounter otelmetric.Int64Counter
	stageDuration   otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	assemblyCounter, _ := meter.Int64Counter(
		"context.assemblies",
		otelmetric.WithDescription("Number of context assemblies"),
	)

	stageDuration, _ := meter.Float64Histogram(
		"context.stage.duration",
		otelmetric.WithDescription("Duration of assembly pipeline stages"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		assemblyCounter: assemblyCounter,
		stageDuration:   stageDuration,
	}
}

// RecordAssembly counts one finished assemble call by outcome
// (completed, cached, degraded, failed).
func (o *Observability) RecordAssembly(ctx context.Context, status string) {
	if o.assemblyCounter != nil {
		o.assemblyCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

// RecordStageDuration records how long one pipeline stage took
// (understand, embed, retrieve, rank).
func (o *Observability) RecordStageDuration(ctx context.Context, stage string, duration time.Duration) {
	if o.stageDuration != nil {
		o.stageDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("stage", stage),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
