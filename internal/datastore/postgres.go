// Package datastore provides a Postgres-backed reference implementation
// of pkg/audit.AuditStore. The engine package never imports this package
// directly — only internal/cli (run by cmd/auditd) wires the two
// together — keeping the SQL
// schema, connection pooling, and driver choice out of the engine's
// scope, per SPEC_FULL.md §1/§11.
package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/mosip/audit-manager/internal/apierrors"
	"github.com/mosip/audit-manager/pkg/audit"
)

const uniqueViolationCode = "23505"

// Schema is the DDL for the audit_event table. event_id is the primary
// key — fixing the source system's documented bug of keying updates on
// the optional, non-unique business id field (SPEC_FULL.md §9).
const Schema = `
CREATE TABLE IF NOT EXISTS audit_event (
	event_id          TEXT PRIMARY KEY,
	event_name        TEXT NOT NULL,
	event_type        TEXT NOT NULL,
	action_time_stamp TIMESTAMPTZ NOT NULL,
	host_name         TEXT NOT NULL,
	host_ip           TEXT NOT NULL,
	application_id    TEXT NOT NULL,
	application_name  TEXT NOT NULL,
	session_user_id   TEXT NOT NULL,
	session_user_name TEXT,
	created_by        TEXT NOT NULL,
	subject_id        TEXT,
	id_type           TEXT,
	module_name       TEXT,
	module_id         TEXT,
	description       TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_audit_event_created_at ON audit_event (created_at);
`

// Store is a Postgres-backed audit.AuditStore.
type Store struct {
	db *sql.DB
}

// Open connects to dsn using the pgx stdlib driver and returns a Store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrorTypeDatabase, "open database connection")
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already-open *sql.DB, used by tests to inject a
// sqlmock connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// AddAudit implements audit.AuditStore.
func (s *Store) AddAudit(ctx context.Context, r *audit.AuditRecord) (bool, error) {
	ok, err := s.AddAudits(ctx, []*audit.AuditRecord{r})
	return ok, err
}

// AddAudits implements audit.AuditStore. Insertion is idempotent on
// event_id via ON CONFLICT DO NOTHING, satisfying the at-least-once
// delivery contract the Flusher relies on (SPEC_FULL.md §4.4).
func (s *Store) AddAudits(ctx context.Context, records []*audit.AuditRecord) (bool, error) {
	if len(records) == 0 {
		return true, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, translateError("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO audit_event (
			event_id, event_name, event_type, action_time_stamp, host_name, host_ip,
			application_id, application_name, session_user_id, session_user_name,
			created_by, subject_id, id_type, module_name, module_id, description
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (event_id) DO NOTHING`)
	if err != nil {
		return false, translateError("prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.EventID, r.EventName, r.EventType, r.ActionTimeStamp, r.HostName, r.HostIP,
			r.ApplicationID, r.ApplicationName, r.SessionUserID, nullable(r.SessionUserName),
			r.CreatedBy, nullable(r.ID), nullable(r.IDType), nullable(r.ModuleName), nullable(r.ModuleID), nullable(r.Description),
		)
		if err != nil {
			return false, translateError("insert audit record "+r.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, translateError("commit transaction", err)
	}
	return true, nil
}

// UpdateAudits implements audit.AuditStore, keying updates on EventID —
// the true primary key (see the Open Question in SPEC_FULL.md §9).
func (s *Store) UpdateAudits(ctx context.Context, records []*audit.AuditRecord) (bool, error) {
	if len(records) == 0 {
		return true, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, translateError("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE audit_event SET
			event_name = $2, event_type = $3, action_time_stamp = $4, host_name = $5,
			host_ip = $6, application_id = $7, application_name = $8, session_user_id = $9,
			session_user_name = $10, created_by = $11, subject_id = $12, id_type = $13,
			module_name = $14, module_id = $15, description = $16
		WHERE event_id = $1`)
	if err != nil {
		return false, translateError("prepare update", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.EventID, r.EventName, r.EventType, r.ActionTimeStamp, r.HostName, r.HostIP,
			r.ApplicationID, r.ApplicationName, r.SessionUserID, nullable(r.SessionUserName),
			r.CreatedBy, nullable(r.ID), nullable(r.IDType), nullable(r.ModuleName), nullable(r.ModuleID), nullable(r.Description),
		)
		if err != nil {
			return false, translateError("update audit record "+r.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, translateError("commit transaction", err)
	}
	return true, nil
}

// DeleteOlderThan implements audit.AuditStore.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_event WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, translateError("delete older than "+cutoff.String(), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, translateError("read rows affected", err)
	}
	return int(affected), nil
}

func translateError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return apierrors.Wrap(err, apierrors.ErrorTypeConflict, op).WithDetails("unique constraint violated")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apierrors.Wrap(err, apierrors.ErrorTypeNotFound, op)
	}
	return apierrors.Wrap(err, apierrors.ErrorTypeDatabase, op)
}
