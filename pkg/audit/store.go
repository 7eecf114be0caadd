package audit

import (
	"context"
	"time"
)

// AuditStore is the external persistence collaborator. The engine never
// opens a database connection or defines a schema itself — it only calls
// through this interface. See internal/datastore for a Postgres-backed
// reference implementation.
type AuditStore interface {
	// AddAudit persists a single record, reporting success as a bool
	// rather than solely via error so the Flusher/Service can treat a
	// reported false the same as a returned error (StoreError).
	AddAudit(ctx context.Context, record *AuditRecord) (bool, error)

	// AddAudits persists a batch. Implementations must make this
	// idempotent on EventID so at-least-once re-delivery after a
	// partial failure does not create duplicates.
	AddAudits(ctx context.Context, records []*AuditRecord) (bool, error)

	// UpdateAudits updates existing rows keyed by EventID (the true
	// primary key — see SPEC_FULL.md §9 on the source system's bug of
	// keying updates on the optional, non-unique business id field).
	UpdateAudits(ctx context.Context, records []*AuditRecord) (bool, error)

	// DeleteOlderThan deletes all records with CreatedAt before cutoff
	// and returns the count removed (always >= 0).
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
