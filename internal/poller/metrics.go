package poller

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/fd1az/arbitrage-dashboard/internal/poller"

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// pollerMetrics holds OTEL metric instruments shared by every poller.
type pollerMetrics struct {
	polls     metric.Int64Counter
	duration  metric.Float64Histogram
	discarded metric.Int64Counter
}

var (
	metricsOnce sync.Once
	instruments *pollerMetrics
)

func getMetrics() *pollerMetrics {
	metricsOnce.Do(func() {
		m, err := initMetrics(otel.Meter(meterName))
		if err != nil {
			m, _ = initMetrics(noop.NewMeterProvider().Meter(meterName))
		}
		instruments = m
	})
	return instruments
}

func initMetrics(meter metric.Meter) (*pollerMetrics, error) {
	var err error
	m := &pollerMetrics{}

	m.polls, err = meter.Int64Counter(
		"dashboard_polls_total",
		metric.WithDescription("Poll cycles delivered, by outcome"),
		metric.WithUnit("{poll}"),
	)
	if err != nil {
		return nil, err
	}

	m.duration, err = meter.Float64Histogram(
		"dashboard_poll_duration_ms",
		metric.WithDescription("Fetch latency per poll cycle"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.discarded, err = meter.Int64Counter(
		"dashboard_polls_discarded_total",
		metric.WithDescription("Poll results dropped because a newer cycle already resolved"),
		metric.WithUnit("{poll}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func recordPoll(ctx context.Context, resource, outcome string, took time.Duration) {
	m := getMetrics()
	m.polls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("outcome", outcome),
	))
	m.duration.Record(ctx, float64(took.Microseconds())/1000, metric.WithAttributes(
		attribute.String("resource", resource),
	))
}

func recordDiscard(ctx context.Context, resource string) {
	getMetrics().discarded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
	))
}
