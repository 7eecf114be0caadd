package audit

import "fmt"

// ValidationError reports one or more field violations found while
// validating an AuditRecord. FieldErrors is keyed by the record's JSON
// field name so callers can render per-field messages without parsing
// the Error() string.
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("audit record failed validation: %d field error(s)", len(e.FieldErrors))
}

func newValidationError() *ValidationError {
	return &ValidationError{FieldErrors: make(map[string]string)}
}

func (e *ValidationError) add(field, reason string) {
	e.FieldErrors[field] = reason
}

func (e *ValidationError) any() bool {
	return len(e.FieldErrors) > 0
}

// DurabilityWarning indicates a record was accepted into the Buffer but
// the WAL append could not be confirmed durable. The record is not lost
// from the in-memory Buffer, but a crash before the next successful
// flush would lose it.
type DurabilityWarning struct {
	EventID string
	Cause   error
}

func (e *DurabilityWarning) Error() string {
	return fmt.Sprintf("wal append for event %s not confirmed durable: %v", e.EventID, e.Cause)
}

func (e *DurabilityWarning) Unwrap() error { return e.Cause }

// StoreError wraps a failure returned by the backing AuditStore during a
// flush or retention sweep.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("audit store operation %q failed: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// RecoveryWarning indicates a WAL line was skipped during startup replay
// because it could not be decoded as an AuditRecord.
type RecoveryWarning struct {
	LineNumber int
	Cause      error
}

func (e *RecoveryWarning) Error() string {
	return fmt.Sprintf("wal line %d skipped during recovery: %v", e.LineNumber, e.Cause)
}

func (e *RecoveryWarning) Unwrap() error { return e.Cause }

// FatalInitError indicates the WAL could not be initialized — the file
// could not be opened or created, or the WAL was used after Close.
// Engine.Start logs it and continues without WAL durability.
type FatalInitError struct {
	Reason string
	Cause  error
}

func (e *FatalInitError) Error() string {
	return fmt.Sprintf("audit engine failed to initialize: %s: %v", e.Reason, e.Cause)
}

func (e *FatalInitError) Unwrap() error { return e.Cause }
