package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records telemetry for outbound calls and the resilience layer
// around them.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one outbound call with duration and error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordRetry records one retry of an outbound call.
	RecordRetry(ctx context.Context, meta CallMeta, attempt int)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, resource, from, to string)

	// RecordCacheAccess records a hit or miss against a named cache.
	RecordCacheAccess(ctx context.Context, cacheName string, hit bool)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter         metric.Meter
	totalCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	durationHist  metric.Float64Histogram
	retryCount    metric.Int64Counter
	breakerCount  metric.Int64Counter
	cacheRequests metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"outbound.calls.total",
		metric.WithDescription("Total number of outbound provider calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"outbound.calls.errors",
		metric.WithDescription("Total number of failed outbound provider calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"outbound.call.duration_ms",
		metric.WithDescription("Outbound call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"resilience.retry.attempts",
		metric.WithDescription("Total number of retries of outbound calls"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	breakerCount, err := meter.Int64Counter(
		"resilience.breaker.transitions",
		metric.WithDescription("Total number of circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	cacheRequests, err := meter.Int64Counter(
		"cache.requests",
		metric.WithDescription("Total number of cache lookups, labeled hit or miss"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:         meter,
		totalCount:    totalCount,
		errorCount:    errorCount,
		durationHist:  durationHist,
		retryCount:    retryCount,
		breakerCount:  breakerCount,
		cacheRequests: cacheRequests,
	}, nil
}

// RecordCall records metrics for one outbound call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(m.callAttrs(meta)...)

	// Always increment total counter
	m.totalCount.Add(ctx, 1, opt)

	// Increment error counter on failure
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	// Record duration in milliseconds
	durationMs := float64(duration.Milliseconds())
	m.durationHist.Record(ctx, durationMs, opt)
}

// RecordRetry records one retry of an outbound call.
func (m *metricsImpl) RecordRetry(ctx context.Context, meta CallMeta, attempt int) {
	attrs := append(m.callAttrs(meta), attribute.Int("retry.attempt", attempt))
	m.retryCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBreakerTransition records a circuit breaker state change.
func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, resource, from, to string) {
	m.breakerCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("call.resource", resource),
		attribute.String("breaker.from", from),
		attribute.String("breaker.to", to),
	))
}

// RecordCacheAccess records a lookup against a named cache.
func (m *metricsImpl) RecordCacheAccess(ctx context.Context, cacheName string, hit bool) {
	m.cacheRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.name", cacheName),
		attribute.Bool("cache.hit", hit),
	))
}

func (m *metricsImpl) callAttrs(meta CallMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("call.resource", meta.Resource),
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("call.operation", meta.Operation))
	}
	if meta.Provider != "" {
		attrs = append(attrs, attribute.String("call.provider", meta.Provider))
	}
	return attrs
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordRetry(ctx context.Context, meta CallMeta, attempt int)            {}
func (m *noopMetrics) RecordBreakerTransition(ctx context.Context, resource, from, to string) {}
func (m *noopMetrics) RecordCacheAccess(ctx context.Context, cacheName string, hit bool)      {}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics {
	return &noopMetrics{}
}
