package audit

// fieldConstraint describes the presence/length rule for one AuditRecord
// field. required=false with maxLen>0 means "optional, at most maxLen".
type fieldConstraint struct {
	name     string
	required bool
	minLen   int
	maxLen   int
	value    func(r *AuditRecord) string
}

var fieldConstraints = []fieldConstraint{
	{"eventId", true, 1, 64, func(r *AuditRecord) string { return r.EventID }},
	{"eventName", true, 1, 128, func(r *AuditRecord) string { return r.EventName }},
	{"eventType", true, 1, 64, func(r *AuditRecord) string { return r.EventType }},
	{"hostName", true, 1, 128, func(r *AuditRecord) string { return r.HostName }},
	{"hostIp", true, 1, 256, func(r *AuditRecord) string { return r.HostIP }},
	{"applicationId", true, 1, 64, func(r *AuditRecord) string { return r.ApplicationID }},
	{"applicationName", true, 1, 128, func(r *AuditRecord) string { return r.ApplicationName }},
	{"sessionUserId", true, 1, 256, func(r *AuditRecord) string { return r.SessionUserID }},
	{"createdBy", true, 1, 256, func(r *AuditRecord) string { return r.CreatedBy }},
	{"sessionUserName", false, 0, 128, func(r *AuditRecord) string { return r.SessionUserName }},
	{"id", false, 0, 64, func(r *AuditRecord) string { return r.ID }},
	{"idType", false, 0, 64, func(r *AuditRecord) string { return r.IDType }},
	{"moduleName", false, 0, 128, func(r *AuditRecord) string { return r.ModuleName }},
	{"moduleId", false, 0, 64, func(r *AuditRecord) string { return r.ModuleID }},
	{"description", false, 0, 2048, func(r *AuditRecord) string { return r.Description }},
}

// Validate checks an AuditRecord's fields against the presence and length
// rules of the data model. It returns nil on success, or a *ValidationError
// carrying one FieldErrors entry per violated field (not just the first).
// Validate has no side effects and never panics on well-formed input.
func Validate(r *AuditRecord) *ValidationError {
	verr := newValidationError()

	for _, c := range fieldConstraints {
		v := c.value(r)
		if v == "" {
			if c.required {
				verr.add(c.name, "required field is empty")
			}
			continue
		}
		if len(v) < c.minLen {
			verr.add(c.name, "value shorter than minimum length")
		}
		if c.maxLen > 0 && len(v) > c.maxLen {
			verr.add(c.name, "value exceeds maximum length")
		}
	}

	if r.ActionTimeStamp.IsZero() {
		verr.add("actionTimeStamp", "required field is empty")
	}

	if !verr.any() {
		return nil
	}
	return verr
}
