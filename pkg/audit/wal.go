// ============================================================================
// Audit WAL — append-only, line-delimited JSON log
// ============================================================================
//
// Responsibilities:
//   - Append one or many AuditRecords as JSON lines, flushing to OS buffers
//     before returning.
//   - Replay the file at startup, decoding one record per line and skipping
//     (not aborting on) malformed lines.
//   - Truncate the file to zero bytes once a flush to AuditStore succeeds.
//
// All four operations serialize against a single mutex; WAL replay only
// happens at startup, before concurrent producers exist.
// ============================================================================

package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// WAL is a crash-safe, append-only record of audits not yet confirmed
// durable in the backing AuditStore.
type WAL struct {
	mu         sync.Mutex
	path       string
	file       *os.File
	fsyncEvery bool // wal-fsync-on-append: fsync after every append; when false the WAL is never fsynced
}

// NewWAL opens (creating if necessary) the WAL file at path for append and
// read. fsyncOnAppend, when true, calls fsync after every append instead of
// relying on the OS write-back cache — see SPEC_FULL.md §9 for the
// durability/throughput trade-off this toggle controls.
func NewWAL(path string, fsyncOnAppend bool) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, &FatalInitError{Reason: "open wal file " + path, Cause: err}
	}
	return &WAL{path: path, file: f, fsyncEvery: fsyncOnAppend}, nil
}

// AppendOne serializes record as one JSON line and appends it, flushing to
// OS buffers before returning. A flush failure is logged by the caller (the
// WAL itself has no logger); the producer path must continue regardless —
// see DurabilityWarning in errors.go.
func (w *WAL) AppendOne(record *AuditRecord) error {
	return w.appendLines([]*AuditRecord{record})
}

// AppendMany serializes every record and appends all lines under a single
// lock acquisition, flushing once at the end.
func (w *WAL) AppendMany(records []*AuditRecord) error {
	if len(records) == 0 {
		return nil
	}
	return w.appendLines(records)
}

func (w *WAL) appendLines(records []*AuditRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return &FatalInitError{Reason: "wal not initialized", Cause: fmt.Errorf("wal closed or never opened")}
	}

	bufw := bufio.NewWriter(w.file)
	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal audit record %s: %w", r.EventID, err)
		}
		if _, err := bufw.Write(line); err != nil {
			return fmt.Errorf("write wal line: %w", err)
		}
		if err := bufw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write wal newline: %w", err)
		}
	}
	if err := bufw.Flush(); err != nil {
		return fmt.Errorf("flush wal writer: %w", err)
	}
	if w.fsyncEvery {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("fsync wal: %w", err)
		}
	}
	return nil
}

// Truncate atomically replaces the WAL file contents with zero bytes. It is
// called by the Flusher only after AuditStore confirms the corresponding
// snapshot was persisted.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return fmt.Errorf("wal not initialized")
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate wal: %w", err)
	}
	if _, err := w.file.Seek(0, 0); err != nil {
		return fmt.Errorf("seek wal after truncate: %w", err)
	}
	return nil
}

// ReplayResult carries the records recovered from the WAL plus one
// RecoveryWarning for each line that was skipped because it failed to
// decode.
type ReplayResult struct {
	Records []*AuditRecord
	Skipped []*RecoveryWarning
}

// Replay reads the entire WAL file line by line, decoding each line as an
// AuditRecord. A malformed line never invalidates subsequent well-formed
// lines — it is recorded as a RecoveryWarning and skipped.
func (w *WAL) Replay() (*ReplayResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("seek wal for replay: %w", err)
	}

	result := &ReplayResult{}
	scanner := bufio.NewScanner(w.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec AuditRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			result.Skipped = append(result.Skipped, &RecoveryWarning{LineNumber: lineNo, Cause: err})
			continue
		}
		result.Records = append(result.Records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("scan wal: %w", err)
	}

	if _, err := w.file.Seek(0, 2); err != nil {
		return result, fmt.Errorf("seek wal to end after replay: %w", err)
	}
	return result, nil
}

// Close closes the underlying WAL file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Size returns the current WAL file size in bytes, used for CLI diagnostics.
func (w *WAL) Size() (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return 0, fmt.Errorf("wal not initialized")
	}
	info, err := w.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
