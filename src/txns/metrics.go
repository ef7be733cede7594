package txns

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Blackdeer1524/rcmock/src/pkg/assert"
)

const meterName = "github.com/Blackdeer1524/rcmock/src/txns"

type lockMetrics struct {
	grants        metric.Int64Counter
	waits         metric.Int64Counter
	timeouts      metric.Int64Counter
	cancellations metric.Int64Counter
	waitDuration  metric.Float64Histogram
}

func newLockMetrics(provider metric.MeterProvider) *lockMetrics {
	meter := provider.Meter(meterName)

	var (
		m   lockMetrics
		err error
	)

	m.grants, err = meter.Int64Counter(
		"rcmock.lock.grants",
		metric.WithDescription("Lock requests that were granted"),
	)
	assert.NoError(err)

	m.waits, err = meter.Int64Counter(
		"rcmock.lock.waits",
		metric.WithDescription("Lock requests that had to be queued"),
	)
	assert.NoError(err)

	m.timeouts, err = meter.Int64Counter(
		"rcmock.lock.timeouts",
		metric.WithDescription("Queued lock requests that timed out"),
	)
	assert.NoError(err)

	m.cancellations, err = meter.Int64Counter(
		"rcmock.lock.cancellations",
		metric.WithDescription("Queued lock requests whose context was done"),
	)
	assert.NoError(err)

	m.waitDuration, err = meter.Float64Histogram(
		"rcmock.lock.wait_duration",
		metric.WithDescription("Time spent in the wait queue"),
		metric.WithUnit("ms"),
	)
	assert.NoError(err)

	return &m
}

func modeAttr(lockMode LockMode) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("lock.mode", lockMode.String()))
}

func (m *lockMetrics) granted(ctx context.Context, lockMode LockMode, waited time.Duration) {
	m.grants.Add(ctx, 1, modeAttr(lockMode))
	if waited > 0 {
		m.waitDuration.Record(ctx, float64(waited)/float64(time.Millisecond), modeAttr(lockMode))
	}
}

func (m *lockMetrics) queued(ctx context.Context, lockMode LockMode) {
	m.waits.Add(ctx, 1, modeAttr(lockMode))
}

func (m *lockMetrics) gaveUp(ctx context.Context, lockMode LockMode, cause error, waited time.Duration) {
	// ctx may already be done here; the instruments don't care.
	if cause == ErrLockTimeout {
		m.timeouts.Add(ctx, 1, modeAttr(lockMode))
	} else {
		m.cancellations.Add(ctx, 1, modeAttr(lockMode))
	}
	m.waitDuration.Record(ctx, float64(waited)/float64(time.Millisecond), modeAttr(lockMode))
}
