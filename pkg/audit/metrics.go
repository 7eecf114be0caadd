package audit

import "time"

// MetricsRecorder is the narrow surface the engine needs from an
// observability backend. internal/metrics.Collector implements this
// against Prometheus; tests may supply a fake or rely on noopMetrics.
type MetricsRecorder interface {
	RecordValidation(ok bool)
	RecordWALAppend(ok bool)
	RecordFlush(ok bool, duration time.Duration, count int)
	RecordRetentionDelete(count int)
	SetBufferSize(n int)
	SetRecoveryDuration(d time.Duration)
}

// NoopMetrics returns a MetricsRecorder that discards every observation,
// for callers (such as one-shot CLI subcommands) that have no collector
// to wire in.
func NoopMetrics() MetricsRecorder {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordValidation(ok bool)                           {}
func (noopMetrics) RecordWALAppend(ok bool)                            {}
func (noopMetrics) RecordFlush(ok bool, duration time.Duration, n int) {}
func (noopMetrics) RecordRetentionDelete(n int)                        {}
func (noopMetrics) SetBufferSize(n int)                                {}
func (noopMetrics) SetRecoveryDuration(d time.Duration)                {}
