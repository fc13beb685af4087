// Package observe holds the OpenTelemetry instruments for the gold-price
// tool. Metrics are exported for Prometheus scraping through [InitProvider];
// tests should build their own [Metrics] with [NewMetrics] and a manual
// reader.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xhad/giavang"

// Tool call outcomes, used as the "status" attribute.
const (
	StatusOK         = "ok"
	StatusFetchError = "fetch_error"
	StatusFallback   = "fallback"
)

type Metrics struct {
	// FetchDuration tracks the upstream GET latency, attribute "outcome".
	FetchDuration metric.Float64Histogram

	// ToolCalls counts tool invocations, attribute "status".
	ToolCalls metric.Int64Counter
}

var fetchBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FetchDuration, err = m.Float64Histogram("giavang.fetch.duration",
		metric.WithDescription("Latency of the upstream gold-price page fetch."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(fetchBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("giavang.tool.calls",
		metric.WithDescription("Total tool invocations by status."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

func (m *Metrics) RecordFetch(ctx context.Context, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordToolCall(ctx context.Context, status string) {
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// DefaultMetrics lazily builds a [Metrics] on the global meter provider. Call
// [InitProvider] first if the values should reach /metrics.
func DefaultMetrics() *Metrics {
	defaultOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}
