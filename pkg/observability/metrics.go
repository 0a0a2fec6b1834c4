package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "partexpand.requests.total"
	metricRequestDuration  = "partexpand.request.duration.seconds"
	metricErrorsTotal      = "partexpand.errors.total"
	metricInflightRequests = "partexpand.inflight.requests"

	metricRecordsTotal     = "partexpand.conversion.records.total"
	metricIntervalsTotal   = "partexpand.conversion.intervals.total"
	metricPartitionsTotal  = "partexpand.conversion.partitions.total"
	metricConversionErrors = "partexpand.conversion.errors.total"
	metricConversionTime   = "partexpand.conversion.duration.seconds"

	attrOp       = "op"
	attrStatus   = "status"
	attrStrategy = "strategy"
	attrStage    = "stage"

	// StatusOK labels a successful request.
	StatusOK = "ok"
	// StatusError labels a failed request.
	StatusError = "error"
)

// durationBucketBoundaries spans sub-millisecond parses of small maps to
// multi-minute expansions of billions of records.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}

// REDMetrics holds the OTel instruments for Rate, Error, Duration metrics.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of failed requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request with its operation, status, and duration.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// ConversionMetrics holds the instruments for one expansion run.
type ConversionMetrics struct {
	records    metric.Int64Counter
	intervals  metric.Int64Counter
	partitions metric.Int64Counter
	errors     metric.Int64Counter
	duration   metric.Float64Histogram
}

// ConversionStats is the outcome of a single expansion.
type ConversionStats struct {
	Strategy   string
	Partitions int
	Intervals  int
	Records    int64
	Duration   time.Duration
}

// NewConversionMetrics creates conversion instruments from the given meter.
func NewConversionMetrics(mt metric.Meter) (*ConversionMetrics, error) {
	records, err := mt.Int64Counter(metricRecordsTotal,
		metric.WithDescription("Partition id records emitted"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRecordsTotal, err)
	}

	intervals, err := mt.Int64Counter(metricIntervalsTotal,
		metric.WithDescription("Intervals consumed by the merge"),
		metric.WithUnit("{interval}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricIntervalsTotal, err)
	}

	partitions, err := mt.Int64Counter(metricPartitionsTotal,
		metric.WithDescription("Partitions parsed"),
		metric.WithUnit("{partition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPartitionsTotal, err)
	}

	errs, err := mt.Int64Counter(metricConversionErrors,
		metric.WithDescription("Failed conversions by stage"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricConversionErrors, err)
	}

	duration, err := mt.Float64Histogram(metricConversionTime,
		metric.WithDescription("Expansion duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricConversionTime, err)
	}

	return &ConversionMetrics{
		records:    records,
		intervals:  intervals,
		partitions: partitions,
		errors:     errs,
		duration:   duration,
	}, nil
}

// RecordRun records a completed expansion. Safe to call on a nil receiver.
func (cm *ConversionMetrics) RecordRun(ctx context.Context, stats ConversionStats) {
	if cm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStrategy, stats.Strategy))

	cm.records.Add(ctx, stats.Records, attrs)
	cm.intervals.Add(ctx, int64(stats.Intervals), attrs)
	cm.partitions.Add(ctx, int64(stats.Partitions), attrs)
	cm.duration.Record(ctx, stats.Duration.Seconds(), attrs)
}

// RecordError counts a failure at stage ("read", "parse", "validate", "merge", "write").
// Safe to call on a nil receiver.
func (cm *ConversionMetrics) RecordError(ctx context.Context, stage string) {
	if cm == nil {
		return
	}

	cm.errors.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStage, stage)))
}
