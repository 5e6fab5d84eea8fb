package metrics

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments this service records. All Record* methods are
// nil-safe so tests can pass a zero-value NewMock() instance.
type Metrics struct {
	scansProcessed   metric.Int64Counter
	entriesParsed    metric.Int64Counter
	recordsInserted  metric.Int64Counter
	recordsUpdated   metric.Int64Counter
	reportsGenerated metric.Int64Counter
	queryDuration    metric.Float64Histogram
	queryErrors      metric.Int64Counter
	logger           *slog.Logger
}

func New(serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	m := &Metrics{logger: logger}

	var err error

	m.scansProcessed, err = meter.Int64Counter(
		"attendance.scans.processed",
		metric.WithDescription("OCR scans processed"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return nil, err
	}

	m.entriesParsed, err = meter.Int64Counter(
		"attendance.entries.parsed",
		metric.WithDescription("Attendance entries extracted from OCR text"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	m.recordsInserted, err = meter.Int64Counter(
		"attendance.records.inserted",
		metric.WithDescription("Attendance records inserted"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	m.recordsUpdated, err = meter.Int64Counter(
		"attendance.records.updated",
		metric.WithDescription("Attendance records updated in place"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	m.reportsGenerated, err = meter.Int64Counter(
		"attendance.reports.generated",
		metric.WithDescription("CSV attendance reports generated"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		return nil, err
	}

	// Query duration with custom buckets optimized for database operations
	m.queryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, // 1ms
			0.005, // 5ms
			0.01,  // 10ms
			0.025, // 25ms
			0.05,  // 50ms
			0.1,   // 100ms
			0.25,  // 250ms
			0.5,   // 500ms
			1.0,   // 1s
			2.5,   // 2.5s
			5.0,   // 5s
		),
	)
	if err != nil {
		return nil, err
	}

	m.queryErrors, err = meter.Int64Counter(
		"db.query.errors",
		metric.WithDescription("Database query errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("metrics collectors initialized successfully")

	return m, nil
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordScanProcessed(ctx context.Context, source string) {
	if m == nil || m.scansProcessed == nil {
		return
	}
	m.scansProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

func (m *Metrics) RecordEntriesParsed(ctx context.Context, count int) {
	if m == nil || m.entriesParsed == nil {
		return
	}
	m.entriesParsed.Add(ctx, int64(count))
}

func (m *Metrics) RecordReconciliation(ctx context.Context, source string, inserted, updated int) {
	if m == nil || m.recordsInserted == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.recordsInserted.Add(ctx, int64(inserted), attrs)
	m.recordsUpdated.Add(ctx, int64(updated), attrs)
}

func (m *Metrics) RecordReportGenerated(ctx context.Context) {
	if m == nil || m.reportsGenerated == nil {
		return
	}
	m.reportsGenerated.Add(ctx, 1)
}

func (m *Metrics) RecordQuery(ctx context.Context, operation string, table string, duration time.Duration, err error) {
	if m == nil || m.queryDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("table", table),
	}

	m.queryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if err != nil && m.queryErrors != nil {
		errAttrs := append(attrs, attribute.String("error", err.Error()))
		m.queryErrors.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}
}
