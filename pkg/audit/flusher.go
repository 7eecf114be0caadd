package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Flusher drains the Buffer into AuditStore.AddAudits in batches and
// truncates the WAL on success. It is not reentrant: a tryLock-style guard
// ensures two flushes never run concurrently — a scheduler tick that finds
// a flush already in progress simply skips that tick.
type Flusher struct {
	buffer  *Buffer
	wal     *WAL
	store   AuditStore
	metrics MetricsRecorder
	log     *slog.Logger

	running sync.Mutex // acts as the non-reentrancy guard (TryLock)

	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFlusher constructs a Flusher. interval is the scheduled flush cadence
// (flush-interval-millis); it is not started until Start is called.
func NewFlusher(buffer *Buffer, wal *WAL, store AuditStore, metrics MetricsRecorder, log *slog.Logger, interval time.Duration) *Flusher {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Flusher{
		buffer:   buffer,
		wal:      wal,
		store:    store,
		metrics:  metrics,
		log:      log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the scheduled-flush goroutine. Call Stop to terminate it.
func (f *Flusher) Start() {
	f.wg.Add(1)
	go f.scheduleLoop()
}

func (f *Flusher) scheduleLoop() {
	defer f.wg.Done()
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.Flush(context.Background())
		case <-f.stopCh:
			return
		}
	}
}

// Stop terminates the scheduled-flush goroutine. It does not itself flush;
// callers performing a shutdown should call Flush explicitly afterward
// (see Engine.Stop).
func (f *Flusher) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
	f.wg.Wait()
}

// Flush executes one flush attempt: snapshot the Buffer, hand it to the
// store, and on success remove the drained entries and truncate the WAL.
// If a flush is already in progress, Flush returns immediately without
// doing any work (non-reentrancy, §4.4).
func (f *Flusher) Flush(ctx context.Context) {
	if !f.running.TryLock() {
		f.log.Debug("flush skipped: already in progress")
		return
	}
	defer f.running.Unlock()

	snapshot := f.buffer.Snapshot()
	if len(snapshot) == 0 {
		return
	}

	start := time.Now()
	ok, err := f.store.AddAudits(ctx, snapshot)
	elapsed := time.Since(start)

	if err != nil || !ok {
		f.metrics.RecordFlush(false, elapsed, len(snapshot))
		f.log.Error("flush failed, retaining buffer and wal",
			"count", len(snapshot), "error", err)
		return
	}

	f.buffer.RemoveDrained(snapshot)
	if f.wal != nil {
		if err := f.wal.Truncate(); err != nil {
			f.log.Error("wal truncate after successful flush failed", "error", err)
		}
	}
	f.metrics.RecordFlush(true, elapsed, len(snapshot))
	f.metrics.SetBufferSize(f.buffer.Size())
	f.log.Info("flush succeeded", "count", len(snapshot), "elapsed", elapsed)
}
