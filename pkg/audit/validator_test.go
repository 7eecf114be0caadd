package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() *AuditRecord {
	return &AuditRecord{
		EventID:         "E1",
		EventName:       "LOGIN",
		EventType:       "SECURITY",
		ActionTimeStamp: time.Date(2025, 8, 19, 7, 40, 49, 966588424, time.UTC),
		HostName:        "host-01",
		HostIP:          "10.0.0.1",
		ApplicationID:   "app-1",
		ApplicationName: "MyApp",
		SessionUserID:   "user-1",
		CreatedBy:       "system",
	}
}

func TestValidate_AcceptsWellFormedRecord(t *testing.T) {
	require.Nil(t, Validate(validRecord()))
}

func TestValidate_RequiredFieldsMissing(t *testing.T) {
	r := validRecord()
	r.EventID = ""
	r.HostName = ""

	verr := Validate(r)
	require.NotNil(t, verr)
	assert.Contains(t, verr.FieldErrors, "eventId")
	assert.Contains(t, verr.FieldErrors, "hostName")
	assert.Len(t, verr.FieldErrors, 2)
}

func TestValidate_ReportsAllViolationsNotJustFirst(t *testing.T) {
	r := &AuditRecord{}
	verr := Validate(r)
	require.NotNil(t, verr)
	assert.GreaterOrEqual(t, len(verr.FieldErrors), 9)
}

func TestValidate_LengthBounds(t *testing.T) {
	r := validRecord()
	r.Description = strings.Repeat("x", 2049)
	verr := Validate(r)
	require.NotNil(t, verr)
	assert.Contains(t, verr.FieldErrors, "description")
}

func TestValidate_OptionalFieldsMayBeEmpty(t *testing.T) {
	r := validRecord()
	r.SessionUserName = ""
	r.Description = ""
	require.Nil(t, Validate(r))
}

func TestValidate_MissingTimestamp(t *testing.T) {
	r := validRecord()
	r.ActionTimeStamp = time.Time{}
	verr := Validate(r)
	require.NotNil(t, verr)
	assert.Contains(t, verr.FieldErrors, "actionTimeStamp")
}

// Exercises every field in the data model table: the valid baseline record
// passes, and a value one past the field's maximum length fails (S7 in
// SPEC_FULL.md §8).
func TestValidate_FieldExhaustiveness(t *testing.T) {
	cases := []struct {
		field   string
		mutate  func(r *AuditRecord, v string)
		invalid string
	}{
		{"eventId", func(r *AuditRecord, v string) { r.EventID = v }, strings.Repeat("x", 65)},
		{"eventName", func(r *AuditRecord, v string) { r.EventName = v }, strings.Repeat("x", 129)},
		{"eventType", func(r *AuditRecord, v string) { r.EventType = v }, strings.Repeat("x", 65)},
		{"hostName", func(r *AuditRecord, v string) { r.HostName = v }, strings.Repeat("x", 129)},
		{"hostIp", func(r *AuditRecord, v string) { r.HostIP = v }, strings.Repeat("x", 257)},
		{"applicationId", func(r *AuditRecord, v string) { r.ApplicationID = v }, strings.Repeat("x", 65)},
		{"applicationName", func(r *AuditRecord, v string) { r.ApplicationName = v }, strings.Repeat("x", 129)},
		{"sessionUserId", func(r *AuditRecord, v string) { r.SessionUserID = v }, strings.Repeat("x", 257)},
		{"createdBy", func(r *AuditRecord, v string) { r.CreatedBy = v }, strings.Repeat("x", 257)},
		{"sessionUserName", func(r *AuditRecord, v string) { r.SessionUserName = v }, strings.Repeat("x", 129)},
		{"id", func(r *AuditRecord, v string) { r.ID = v }, strings.Repeat("x", 65)},
		{"idType", func(r *AuditRecord, v string) { r.IDType = v }, strings.Repeat("x", 65)},
		{"moduleName", func(r *AuditRecord, v string) { r.ModuleName = v }, strings.Repeat("x", 129)},
		{"moduleId", func(r *AuditRecord, v string) { r.ModuleID = v }, strings.Repeat("x", 65)},
		{"description", func(r *AuditRecord, v string) { r.Description = v }, strings.Repeat("x", 2049)},
	}

	for _, c := range cases {
		t.Run(c.field, func(t *testing.T) {
			r := validRecord()
			verr := Validate(r)
			assert.Nil(t, verr, "expected baseline record to pass before mutating %s", c.field)

			c.mutate(r, c.invalid)
			verr = Validate(r)
			require.NotNil(t, verr, "expected %s overlength value to fail", c.field)
			assert.Contains(t, verr.FieldErrors, c.field)
		})
	}
}
