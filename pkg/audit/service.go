package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Service is the Ingestion API: synchronous entry points that bypass the
// Buffer and WAL (delegating directly to AuditStore), and asynchronous
// entry points that are buffered and WAL-durable, scheduled onto an
// Executor for caller-runs back-pressure.
type Service struct {
	store      AuditStore
	wal        *WAL
	buffer     *Buffer
	flusher    *Flusher
	executor   *Executor
	metrics    MetricsRecorder
	log        *slog.Logger
	bufferSize int
}

// NewService wires the Ingestion API. bufferSize is the capacity-flush
// trigger threshold (buffer-size, default 1000).
func NewService(store AuditStore, wal *WAL, buffer *Buffer, flusher *Flusher, executor *Executor, metrics MetricsRecorder, log *slog.Logger, bufferSize int) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		store:      store,
		wal:        wal,
		buffer:     buffer,
		flusher:    flusher,
		executor:   executor,
		metrics:    metrics,
		log:        log,
		bufferSize: bufferSize,
	}
}

// Result is the caller-visible outcome of a synchronous Ingestion API
// call. Async calls return nothing (see SPEC_FULL.md §6 — failures are
// observable only via logs and metrics on that path).
type Result struct {
	OK bool
}

// newCorrelationID generates a fresh per-call correlation ID, attached to
// every log line an Ingestion API call emits so a producer's request can
// be traced across validation, store, and (on the async path) the
// capacity-trigger and WAL-append logging without the caller having to
// supply one itself. The Flusher's own log lines do not carry it.
func newCorrelationID() string {
	return uuid.NewString()
}

// AddAudit validates then persists one record directly via AuditStore,
// bypassing the Buffer and WAL.
func (s *Service) AddAudit(ctx context.Context, record *AuditRecord) Result {
	log := s.log.With("correlationId", newCorrelationID())
	if verr := Validate(record); verr != nil {
		s.metrics.RecordValidation(false)
		log.Warn("addAudit rejected: validation failed", "eventId", record.EventID, "errors", verr.FieldErrors)
		return Result{OK: false}
	}
	s.metrics.RecordValidation(true)
	ok, err := s.store.AddAudit(ctx, record)
	if err != nil {
		log.Error("addAudit store call failed", "eventId", record.EventID, "error", err)
		return Result{OK: false}
	}
	return Result{OK: ok}
}

// AddAudits validates every record then persists the batch directly via
// AuditStore. The whole batch is rejected if any record is invalid.
func (s *Service) AddAudits(ctx context.Context, records []*AuditRecord) Result {
	log := s.log.With("correlationId", newCorrelationID())
	for _, r := range records {
		if verr := Validate(r); verr != nil {
			s.metrics.RecordValidation(false)
			log.Warn("addAudits rejected: validation failed", "eventId", r.EventID, "errors", verr.FieldErrors)
			return Result{OK: false}
		}
	}
	s.metrics.RecordValidation(true)
	ok, err := s.store.AddAudits(ctx, records)
	if err != nil {
		log.Error("addAudits store call failed", "count", len(records), "error", err)
		return Result{OK: false}
	}
	return Result{OK: ok}
}

// UpdateAudits validates then updates the given records directly via
// AuditStore, keyed on EventID.
func (s *Service) UpdateAudits(ctx context.Context, records []*AuditRecord) Result {
	log := s.log.With("correlationId", newCorrelationID())
	for _, r := range records {
		if verr := Validate(r); verr != nil {
			s.metrics.RecordValidation(false)
			log.Warn("updateAudits rejected: validation failed", "eventId", r.EventID, "errors", verr.FieldErrors)
			return Result{OK: false}
		}
	}
	s.metrics.RecordValidation(true)
	ok, err := s.store.UpdateAudits(ctx, records)
	if err != nil {
		log.Error("updateAudits store call failed", "count", len(records), "error", err)
		return Result{OK: false}
	}
	return Result{OK: ok}
}

// AddAuditAsync validates record; invalid records are logged and dropped
// (never reaching the WAL or Buffer, preventing WAL pollution). Valid
// records are scheduled onto the Executor, which appends to the WAL and
// then the Buffer, triggering an immediate flush first if the Buffer is
// at or above bufferSize.
func (s *Service) AddAuditAsync(record *AuditRecord) {
	log := s.log.With("correlationId", newCorrelationID())
	if verr := Validate(record); verr != nil {
		s.metrics.RecordValidation(false)
		log.Warn("addAuditAsync dropped: validation failed", "eventId", record.EventID, "errors", verr.FieldErrors)
		return
	}
	s.metrics.RecordValidation(true)
	s.executor.Submit(func() {
		s.ingestAsync(log, []*AuditRecord{record}, 0)
	})
}

// AddAuditsAsync is the batch form of AddAuditAsync.
func (s *Service) AddAuditsAsync(records []*AuditRecord) {
	log := s.log.With("correlationId", newCorrelationID())
	valid := s.filterValid(log, records, "addAuditsAsync")
	if len(valid) == 0 {
		return
	}
	s.executor.Submit(func() {
		s.ingestAsync(log, valid, len(valid))
	})
}

// UpdateAuditsAsync has the same shape as AddAuditsAsync: the WAL does
// not distinguish inserts from updates on this path (the store
// interprets the JSON at flush time).
func (s *Service) UpdateAuditsAsync(records []*AuditRecord) {
	log := s.log.With("correlationId", newCorrelationID())
	valid := s.filterValid(log, records, "updateAuditsAsync")
	if len(valid) == 0 {
		return
	}
	s.executor.Submit(func() {
		s.ingestAsync(log, valid, len(valid))
	})
}

func (s *Service) filterValid(log *slog.Logger, records []*AuditRecord, op string) []*AuditRecord {
	valid := make([]*AuditRecord, 0, len(records))
	for _, r := range records {
		if verr := Validate(r); verr != nil {
			s.metrics.RecordValidation(false)
			log.Warn(op+" dropped record: validation failed", "eventId", r.EventID, "errors", verr.FieldErrors)
			continue
		}
		s.metrics.RecordValidation(true)
		valid = append(valid, r)
	}
	return valid
}

// ingestAsync runs on the Executor (or the caller, under caller-runs): it
// triggers a capacity flush if needed, appends to the WAL, then adds to
// the Buffer, in that order (write-ahead before the record is visible in
// memory for the next flush). log carries the originating call's
// correlation ID so the capacity-trigger and WAL-append log lines can be
// traced back to it. incoming is added to the current Buffer size when
// checking the capacity trigger: 0 on the single-record path (flush when
// the Buffer already holds bufferSize records), the batch length on the
// batch paths.
func (s *Service) ingestAsync(log *slog.Logger, records []*AuditRecord, incoming int) {
	if s.buffer.Size()+incoming >= s.bufferSize {
		log.Warn("buffer capacity reached, triggering immediate flush", "size", s.buffer.Size(), "incoming", len(records))
		s.flusher.Flush(context.Background())
	}

	if s.wal == nil {
		s.metrics.RecordWALAppend(false)
	} else if err := s.wal.AppendMany(records); err != nil {
		for _, r := range records {
			log.Error("wal append failed, record buffered in-memory only", "eventId", r.EventID, "error", err)
		}
		s.metrics.RecordWALAppend(false)
	} else {
		s.metrics.RecordWALAppend(true)
	}

	s.buffer.AddAll(records)
	s.metrics.SetBufferSize(s.buffer.Size())
}
