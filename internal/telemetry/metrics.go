package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/fortressi/orgmanager"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Saga metrics
	SagaExecutionsTotal    metric.Int64Counter
	SagaCompensationsTotal metric.Int64Counter
	SagaDuration           metric.Float64Histogram

	// CRUD client metrics
	CrudCallsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.SagaExecutionsTotal, _ = meter.Int64Counter(
		"orgmanager.saga.executions.total",
		metric.WithDescription("Total number of saga executions by outcome"),
		metric.WithUnit("{saga}"),
	)

	m.SagaCompensationsTotal, _ = meter.Int64Counter(
		"orgmanager.saga.compensations.total",
		metric.WithDescription("Total number of compensations attempted by status"),
		metric.WithUnit("{compensation}"),
	)

	m.SagaDuration, _ = meter.Float64Histogram(
		"orgmanager.saga.duration",
		metric.WithDescription("Duration of saga executions including compensation"),
		metric.WithUnit("ms"),
	)

	m.CrudCallsTotal, _ = meter.Int64Counter(
		"orgmanager.crud.calls.total",
		metric.WithDescription("Total number of CRUD service calls by operation and status"),
		metric.WithUnit("{call}"),
	)

	return m
}
