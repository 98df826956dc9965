// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"admission-checker/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/otlptranslator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	checkCounter  otelmetric.Int64Counter
	checkDuration otelmetric.Float64Histogram
}

// New wires an OTel meter provider to a prometheus exporter registered on reg.
// A nil reg uses the default registerer.
func New(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	opts := []prometheus.Option{
		prometheus.WithTranslationStrategy(otlptranslator.UnderscoreEscapingWithSuffixes),
	}
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Warn("failed to create prometheus exporter, otel metrics disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	checkCounter, _ := meter.Int64Counter(
		"admission.engine.checks",
		otelmetric.WithDescription("Number of admission checks processed"),
	)

	checkDuration, _ := meter.Float64Histogram(
		"admission.engine.check.duration",
		otelmetric.WithDescription("Admission check duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		checkCounter:  checkCounter,
		checkDuration: checkDuration,
	}
}

// RecordCheck records one finished check.
func (o *Observability) RecordCheck(ctx context.Context, university, outcome, source string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("university", university),
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	)
	if o.checkCounter != nil {
		o.checkCounter.Add(ctx, 1, attrs)
	}
	if o.checkDuration != nil {
		o.checkDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
