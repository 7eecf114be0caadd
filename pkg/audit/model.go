// Package audit implements the durable audit-event ingestion engine:
// validation, write-ahead logging, in-memory buffering, scheduled
// flushing to a backing AuditStore, retention sweeping, and crash
// recovery on startup.
package audit

import (
	"encoding/json"
	"time"
)

// AuditRecord is a single audit event as submitted by a producer.
//
// EventID is the true primary key of a record and is what update
// operations key on (see Open Questions in SPEC_FULL.md §9 —
// the source system keyed updates on the business ID field, which is
// optional and non-unique; this implementation keys on EventID instead).
type AuditRecord struct {
	EventID         string    `json:"eventId"`
	EventName       string    `json:"eventName"`
	EventType       string    `json:"eventType"`
	ActionTimeStamp time.Time `json:"actionTimeStamp"`
	HostName        string    `json:"hostName"`
	HostIP          string    `json:"hostIp"`
	ApplicationID   string    `json:"applicationId"`
	ApplicationName string    `json:"applicationName"`
	SessionUserID   string    `json:"sessionUserId"`
	SessionUserName string    `json:"sessionUserName,omitempty"`
	CreatedBy       string    `json:"createdBy"`
	ID              string    `json:"id,omitempty"`
	IDType          string    `json:"idType,omitempty"`
	ModuleName      string    `json:"moduleName,omitempty"`
	ModuleID        string    `json:"moduleId,omitempty"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// auditRecordWire is the JSON-on-the-wire shape of AuditRecord. Timestamps
// are rendered with nanosecond precision and a literal "Z" suffix so they
// round-trip through the WAL without truncation, matching the example in
// SPEC_FULL.md §3 (2025-08-19T07:40:49.966588424Z).
type auditRecordWire struct {
	EventID         string  `json:"eventId"`
	EventName       string  `json:"eventName"`
	EventType       string  `json:"eventType"`
	ActionTimeStamp string  `json:"actionTimeStamp"`
	HostName        string  `json:"hostName"`
	HostIP          string  `json:"hostIp"`
	ApplicationID   string  `json:"applicationId"`
	ApplicationName string  `json:"applicationName"`
	SessionUserID   string  `json:"sessionUserId"`
	SessionUserName string  `json:"sessionUserName,omitempty"`
	CreatedBy       string  `json:"createdBy"`
	ID              string  `json:"id,omitempty"`
	IDType          string  `json:"idType,omitempty"`
	ModuleName      string  `json:"moduleName,omitempty"`
	ModuleID        string  `json:"moduleId,omitempty"`
	Description     string  `json:"description,omitempty"`
	CreatedAt       *string `json:"createdAt,omitempty"`
}

const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// MarshalJSON renders timestamps with nanosecond precision and a UTC "Z"
// suffix regardless of the time.Time's original location or precision.
func (r AuditRecord) MarshalJSON() ([]byte, error) {
	w := auditRecordWire{
		EventID:         r.EventID,
		EventName:       r.EventName,
		EventType:       r.EventType,
		ActionTimeStamp: formatTimestamp(r.ActionTimeStamp),
		HostName:        r.HostName,
		HostIP:          r.HostIP,
		ApplicationID:   r.ApplicationID,
		ApplicationName: r.ApplicationName,
		SessionUserID:   r.SessionUserID,
		SessionUserName: r.SessionUserName,
		CreatedBy:       r.CreatedBy,
		ID:              r.ID,
		IDType:          r.IDType,
		ModuleName:      r.ModuleName,
		ModuleID:        r.ModuleID,
		Description:     r.Description,
	}
	if !r.CreatedAt.IsZero() {
		ts := formatTimestamp(r.CreatedAt)
		w.CreatedAt = &ts
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the wire format produced by MarshalJSON, including
// legacy timestamps that omit sub-second precision.
func (r *AuditRecord) UnmarshalJSON(data []byte) error {
	var w auditRecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339Nano, w.ActionTimeStamp)
	if err != nil {
		return err
	}
	r.EventID = w.EventID
	r.EventName = w.EventName
	r.EventType = w.EventType
	r.ActionTimeStamp = ts.UTC()
	r.HostName = w.HostName
	r.HostIP = w.HostIP
	r.ApplicationID = w.ApplicationID
	r.ApplicationName = w.ApplicationName
	r.SessionUserID = w.SessionUserID
	r.SessionUserName = w.SessionUserName
	r.CreatedBy = w.CreatedBy
	r.ID = w.ID
	r.IDType = w.IDType
	r.ModuleName = w.ModuleName
	r.ModuleID = w.ModuleID
	r.Description = w.Description
	if w.CreatedAt != nil {
		ca, err := time.Parse(time.RFC3339Nano, *w.CreatedAt)
		if err != nil {
			return err
		}
		r.CreatedAt = ca.UTC()
	}
	return nil
}
