// ============================================================================
// Audit Service Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Collect and expose audit-ingestion metrics for Prometheus
//
// Monitoring Philosophy:
//   Based on RED (Rate, Errors, Duration) and USE (Utilization, Saturation,
//   Errors). Covers the five stages an audit record passes through:
//   validation, WAL append, buffering, flush, and retention sweep.
//
// Metric Categories:
//
//   1. Counters - cumulative, monotonically increasing:
//      - audit_records_validated_total{result="ok"|"rejected"}
//      - audit_wal_appends_total{result="ok"|"error"}
//      - audit_flushes_total{result="ok"|"error"}
//      - audit_retention_deletes_total
//
//   2. Histogram - distribution stats:
//      - audit_flush_duration_seconds (prometheus.DefBuckets)
//
//   3. Gauges - instantaneous values:
//      - audit_buffer_size
//      - audit_wal_recovery_seconds
//
// Prometheus Query Examples:
//
//   # Flush success rate
//   rate(audit_flushes_total{result="ok"}[5m]) / rate(audit_flushes_total[5m])
//
//   # Flush p95 latency
//   histogram_quantile(0.95, audit_flush_duration_seconds_bucket)
//
//   # Validation rejection rate
//   rate(audit_records_validated_total{result="rejected"}[5m])
//
// HTTP Endpoint:
//   Exposed via /metrics, scraped by Prometheus. Default port: 9090.
// ============================================================================

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements pkg/audit.MetricsRecorder against Prometheus.
type Collector struct {
	recordsValidatedOK       prometheus.Counter
	recordsValidatedRejected prometheus.Counter
	walAppendsOK             prometheus.Counter
	walAppendsError          prometheus.Counter
	flushesOK                prometheus.Counter
	flushesError             prometheus.Counter
	retentionDeletes         prometheus.Counter

	flushDuration prometheus.Histogram

	bufferSize      prometheus.Gauge
	recoverySeconds prometheus.Gauge

	server *http.Server
}

// NewCollector creates and registers a Collector against the default
// Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		recordsValidatedOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "audit_records_validated_total",
			Help:        "Total number of audit records validated",
			ConstLabels: prometheus.Labels{"result": "ok"},
		}),
		recordsValidatedRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "audit_records_validated_total",
			Help:        "Total number of audit records validated",
			ConstLabels: prometheus.Labels{"result": "rejected"},
		}),
		walAppendsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "audit_wal_appends_total",
			Help:        "Total number of WAL append attempts",
			ConstLabels: prometheus.Labels{"result": "ok"},
		}),
		walAppendsError: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "audit_wal_appends_total",
			Help:        "Total number of WAL append attempts",
			ConstLabels: prometheus.Labels{"result": "error"},
		}),
		flushesOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "audit_flushes_total",
			Help:        "Total number of flush attempts",
			ConstLabels: prometheus.Labels{"result": "ok"},
		}),
		flushesError: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "audit_flushes_total",
			Help:        "Total number of flush attempts",
			ConstLabels: prometheus.Labels{"result": "error"},
		}),
		retentionDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_retention_deletes_total",
			Help: "Total number of records deleted by the retention sweeper",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "audit_flush_duration_seconds",
			Help:    "Duration of flush attempts in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		bufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "audit_buffer_size",
			Help: "Current number of records held in the in-memory buffer",
		}),
		recoverySeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "audit_wal_recovery_seconds",
			Help: "Time taken to replay the WAL at the last startup",
		}),
	}

	prometheus.MustRegister(
		c.recordsValidatedOK, c.recordsValidatedRejected,
		c.walAppendsOK, c.walAppendsError,
		c.flushesOK, c.flushesError, c.retentionDeletes,
		c.flushDuration, c.bufferSize, c.recoverySeconds,
	)

	return c
}

// RecordValidation implements pkg/audit.MetricsRecorder.
func (c *Collector) RecordValidation(ok bool) {
	if ok {
		c.recordsValidatedOK.Inc()
	} else {
		c.recordsValidatedRejected.Inc()
	}
}

// RecordWALAppend implements pkg/audit.MetricsRecorder.
func (c *Collector) RecordWALAppend(ok bool) {
	if ok {
		c.walAppendsOK.Inc()
	} else {
		c.walAppendsError.Inc()
	}
}

// RecordFlush implements pkg/audit.MetricsRecorder.
func (c *Collector) RecordFlush(ok bool, duration time.Duration, count int) {
	if ok {
		c.flushesOK.Inc()
	} else {
		c.flushesError.Inc()
	}
	c.flushDuration.Observe(duration.Seconds())
}

// RecordRetentionDelete implements pkg/audit.MetricsRecorder.
func (c *Collector) RecordRetentionDelete(count int) {
	c.retentionDeletes.Add(float64(count))
}

// SetBufferSize implements pkg/audit.MetricsRecorder.
func (c *Collector) SetBufferSize(n int) {
	c.bufferSize.Set(float64(n))
}

// SetRecoveryDuration implements pkg/audit.MetricsRecorder.
func (c *Collector) SetRecoveryDuration(d time.Duration) {
	c.recoverySeconds.Set(d.Seconds())
}

// StartServer starts the Prometheus /metrics HTTP server in the
// background. Call Shutdown to stop it gracefully.
func (c *Collector) StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	c.server = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Shutdown gracefully stops the metrics HTTP server.
func (c *Collector) Shutdown(ctx context.Context) error {
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}
