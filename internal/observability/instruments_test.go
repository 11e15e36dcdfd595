package observability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

var errMeterDown = errors.New("meter unavailable")

// failingMeter rejects counters and accepts every other instrument.
type failingMeter struct {
	noopmetric.Meter
}

func (failingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return noopmetric.Int64Counter{}, errMeterDown
}

func TestInstrumentSet_Creates(t *testing.T) {
	t.Parallel()

	set := &instrumentSet{meter: noopmetric.NewMeterProvider().Meter("test")}

	assert.NotNil(t, set.count("test.count", "count", "{op}"))
	assert.NotNil(t, set.level("test.level", "level", "{op}"))
	assert.NotNil(t, set.seconds("test.seconds", "seconds", operationBuckets))
	require.NoError(t, set.err())
}

func TestInstrumentSet_JoinsFailures(t *testing.T) {
	t.Parallel()

	set := &instrumentSet{meter: failingMeter{}}

	set.count("first.count", "", "")
	set.level("fine.level", "", "")
	set.count("second.count", "", "")

	err := set.err()
	require.ErrorIs(t, err, errMeterDown)
	assert.Contains(t, err.Error(), "first.count")
	assert.Contains(t, err.Error(), "second.count")
	assert.NotContains(t, err.Error(), "fine.level")
}

func TestNewOperationMetrics_MeterFailure(t *testing.T) {
	t.Parallel()

	om, err := NewOperationMetrics(failingMeter{})
	require.ErrorIs(t, err, errMeterDown)
	assert.Nil(t, om)

	rm, err := NewRewriteMetrics(failingMeter{})
	require.ErrorIs(t, err, errMeterDown)
	assert.Nil(t, rm)
}
