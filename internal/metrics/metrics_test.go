package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	collector := NewCollector()

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.recordsValidatedOK)
	assert.NotNil(t, collector.recordsValidatedRejected)
	assert.NotNil(t, collector.walAppendsOK)
	assert.NotNil(t, collector.walAppendsError)
	assert.NotNil(t, collector.flushesOK)
	assert.NotNil(t, collector.flushesError)
	assert.NotNil(t, collector.retentionDeletes)
	assert.NotNil(t, collector.flushDuration)
	assert.NotNil(t, collector.bufferSize)
	assert.NotNil(t, collector.recoverySeconds)
}

func TestRecordValidation(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.RecordValidation(true)
		collector.RecordValidation(false)
	})
}

func TestRecordWALAppend(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		for i := 0; i < 5; i++ {
			collector.RecordWALAppend(true)
		}
		collector.RecordWALAppend(false)
	})
}

func TestRecordFlush(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	durations := []time.Duration{time.Millisecond, 50 * time.Millisecond, time.Second}
	for _, d := range durations {
		assert.NotPanics(t, func() {
			collector.RecordFlush(true, d, 10)
		}, "RecordFlush should not panic with duration %s", d)
	}
	assert.NotPanics(t, func() { collector.RecordFlush(false, time.Millisecond, 0) })
}

func TestRecordRetentionDelete(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.RecordRetentionDelete(0)
		collector.RecordRetentionDelete(42)
	})
}

func TestSetBufferSize(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	for _, n := range []int{0, 10, 1000} {
		assert.NotPanics(t, func() { collector.SetBufferSize(n) })
	}
}

func TestSetRecoveryDuration(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	for _, d := range []time.Duration{0, 500 * time.Millisecond, 3 * time.Second} {
		assert.NotPanics(t, func() { collector.SetRecoveryDuration(d) })
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	done := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func() {
			collector.RecordValidation(true)
			collector.RecordWALAppend(true)
			collector.RecordFlush(true, time.Millisecond, 1)
			collector.SetBufferSize(10)
			done <- true
		}()
	}
	for i := 0; i < 100; i++ {
		<-done
	}
}

func TestCollectorIsolation(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	collector1 := NewCollector()
	require.NotNil(t, collector1)

	// A second collector registering the same metric names against the
	// same registry is expected to panic: a process should construct
	// exactly one Collector.
	assert.Panics(t, func() {
		NewCollector()
	})
}

func TestMetricOperationSequence(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.RecordValidation(true)
		collector.SetBufferSize(1)
		collector.RecordWALAppend(true)
		collector.RecordFlush(true, 10*time.Millisecond, 1)
		collector.SetBufferSize(0)
	})
}

func TestMetricOperationWithFailure(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.RecordValidation(true)
		collector.RecordWALAppend(false)
		collector.RecordFlush(false, 5*time.Millisecond, 3)
	})
}

func TestRecoveryScenario(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.SetRecoveryDuration(2500 * time.Millisecond)
		collector.SetBufferSize(50)
		collector.RecordFlush(true, 100*time.Millisecond, 50)
	})
}

func TestZeroValues(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	assert.NotPanics(t, func() {
		collector.RecordFlush(true, 0, 0)
		collector.SetRecoveryDuration(0)
		collector.SetBufferSize(0)
		collector.RecordRetentionDelete(0)
	})
}
