// ============================================================================
// Engine — startup recovery, shutdown, and component wiring (Lifecycle)
// ============================================================================
//
// Startup: open/create the WAL, replay it into the Buffer, start the
// Flusher and Sweeper schedulers, start the ingestion executor.
//
// Shutdown: stop accepting new async submissions, await executor
// termination (bounded by awaitTerminationSeconds), run one final flush,
// close the WAL.
//
// Modeled on the teacher's internal/controller.Controller, whose Start
// does loadSnapshot -> replayWAL -> requeue -> start pool -> start loops,
// and whose Stop follows a documented precise ordering to avoid races
// between in-flight work and the final persistence step.
// ============================================================================

package audit

import (
	"context"
	"log/slog"
	"time"
)

// Config collects every tunable named in SPEC_FULL.md §6.
type Config struct {
	BufferSize             int
	FlushInterval          time.Duration
	WALFilePath            string
	WALFsyncOnAppend       bool
	RetentionPeriod        time.Duration
	ClearCron              string
	ExecutorCorePoolSize   int
	ExecutorMaxPoolSize    int
	ExecutorQueueCapacity  int
	ExecutorKeepAlive      time.Duration
	ExecutorAwaitTerminate time.Duration
}

// DefaultConfig returns the configuration surface's documented defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:             1000,
		FlushInterval:          60 * time.Second,
		WALFilePath:            "./audit-wal.log",
		WALFsyncOnAppend:       false,
		RetentionPeriod:        30 * 24 * time.Hour,
		ClearCron:              "0 0 3 * * *",
		ExecutorCorePoolSize:   8,
		ExecutorMaxPoolSize:    12,
		ExecutorQueueCapacity:  500,
		ExecutorKeepAlive:      60 * time.Second,
		ExecutorAwaitTerminate: 30 * time.Second,
	}
}

// Engine assembles the Validator, WAL Writer, Buffer, Flusher, Retention
// Sweeper, Ingestion API, and Ingestion Executor, and owns their startup
// and shutdown ordering.
type Engine struct {
	cfg     Config
	log     *slog.Logger
	store   AuditStore
	metrics MetricsRecorder

	wal      *WAL
	buffer   *Buffer
	flusher  *Flusher
	sweeper  *Sweeper
	executor *Executor
	service  *Service
}

// NewEngine constructs an Engine against the given AuditStore. It does
// not open the WAL or start any goroutines — call Start for that.
func NewEngine(cfg Config, store AuditStore, metrics MetricsRecorder, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	buffer := NewBuffer()
	executor := NewExecutor(cfg.ExecutorCorePoolSize, cfg.ExecutorMaxPoolSize, cfg.ExecutorQueueCapacity, cfg.ExecutorKeepAlive)

	return &Engine{
		cfg:      cfg,
		log:      log,
		store:    store,
		metrics:  metrics,
		buffer:   buffer,
		executor: executor,
		sweeper:  NewSweeper(store, metrics, log, cfg.RetentionPeriod),
	}
}

// Service returns the Ingestion API, ready for use only after Start.
func (e *Engine) Service() *Service { return e.service }

// Start performs Lifecycle startup: open/create the WAL, replay it into
// the Buffer, start the Flusher and Sweeper schedulers, and start the
// ingestion executor.
func (e *Engine) Start() error {
	wal, err := NewWAL(e.cfg.WALFilePath, e.cfg.WALFsyncOnAppend)
	if err != nil {
		e.log.Error("wal unavailable, engine degrades to in-memory buffering only", "path", e.cfg.WALFilePath, "error", err)
		e.wal = nil
	} else {
		e.wal = wal
	}

	if e.wal != nil {
		recoveryStart := time.Now()
		result, err := e.wal.Replay()
		if err != nil {
			e.log.Error("wal replay failed", "error", err)
		}
		if result != nil {
			e.buffer.AddAll(result.Records)
			for _, skipped := range result.Skipped {
				e.log.Warn("skipped malformed wal line during recovery", "line", skipped.LineNumber, "error", skipped.Cause)
			}
			if len(result.Records) > 0 {
				e.log.Info("recovered audit records from wal", "count", len(result.Records))
			}
		}
		e.metrics.SetRecoveryDuration(time.Since(recoveryStart))
	}

	e.flusher = NewFlusher(e.buffer, e.wal, e.store, e.metrics, e.log, e.cfg.FlushInterval)
	e.flusher.Start()

	if err := e.sweeper.Start(e.cfg.ClearCron); err != nil {
		e.log.Error("retention sweeper failed to start", "error", err)
	}

	e.executor.Start()

	e.service = NewService(e.store, e.wal, e.buffer, e.flusher, e.executor, e.metrics, e.log, e.cfg.BufferSize)

	return nil
}

// Stop performs Lifecycle shutdown: stop accepting new async submissions
// (the Executor's workers exit and tasks already queued are run), await executor
// termination bounded by ExecutorAwaitTerminate, run one final flush, and
// close the WAL.
func (e *Engine) Stop() {
	if !e.executor.Stop(e.cfg.ExecutorAwaitTerminate) {
		e.log.Warn("executor did not terminate within await-termination window", "timeout", e.cfg.ExecutorAwaitTerminate)
	}

	e.sweeper.Stop()
	e.flusher.Stop()
	e.flusher.Flush(context.Background())

	if e.wal != nil {
		if err := e.wal.Close(); err != nil {
			e.log.Error("wal close failed", "error", err)
		}
	}
}

// BufferSize exposes the current Buffer size for CLI/status diagnostics.
func (e *Engine) BufferSize() int {
	return e.buffer.Size()
}

// WALSize exposes the current WAL file size in bytes. It reports 0 with no
// error when the engine runs without a WAL; an error comes only from
// reading the size of an open WAL.
func (e *Engine) WALSize() (int64, error) {
	if e.wal == nil {
		return 0, nil
	}
	return e.wal.Size()
}
