package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/df07/go-sequential-optics/pkg/trace"
)

// Package-level tracer and meter for analysis batches.
var (
	tracer = otel.Tracer("seqoptics.analysis")
	meter  = otel.Meter("seqoptics.analysis")
)

var (
	raysTraced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seqoptics_rays_traced_total",
		Help: "Rays traced by analysis batches, by outcome",
	}, []string{"outcome"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seqoptics_batch_duration_seconds",
		Help:    "Wall time of analysis batches",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"operation"})
)

var (
	batchTotal metric.Int64Counter
	batchRays  metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the otel instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		batchTotal, err = meter.Int64Counter(
			"seqoptics_batches_total",
			metric.WithDescription("Total number of analysis batches"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		batchRays, err = meter.Int64Histogram(
			"seqoptics_batch_rays",
			metric.WithDescription("Number of rays per analysis batch"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startBatchSpan creates a span for one analysis operation
func startBatchSpan(ctx context.Context, operation string, rays int) (context.Context, oteltrace.Span) {
	return tracer.Start(ctx, "analysis."+operation,
		oteltrace.WithAttributes(
			attribute.String("analysis.operation", operation),
			attribute.Int("analysis.rays", rays),
		),
	)
}

// endBatchSpan records the outcome on the span and ends it
func endBatchSpan(span oteltrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// recordBatchMetrics records duration and size of a finished batch
func recordBatchMetrics(ctx context.Context, operation string, rays int, duration time.Duration, err error) {
	batchDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	)
	batchTotal.Add(ctx, 1, attrs)
	batchRays.Record(ctx, int64(rays), attrs)
}

// recordRay counts one traced ray by outcome
func recordRay(err error) {
	raysTraced.WithLabelValues(trace.Outcome(err)).Inc()
}
