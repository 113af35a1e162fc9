package audit

import "fmt"

// QuotaEvent records a storage quota change.
type QuotaEvent struct {
	Username     string
	ClientIP     string
	Database     string
	QuotaGB      float64
	Success      bool
	ErrorMessage string
}

func (e QuotaEvent) MessageID() string {
	return "quota"
}

func (e QuotaEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s set a %gGB quota on database %s", e.Username, e.QuotaGB, e.Database)
	}
	msg := fmt.Sprintf("%s tried to set a %gGB quota on database %s", e.Username, e.QuotaGB, e.Database)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e QuotaEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e QuotaEvent) Facility() int {
	return FacilityAuth
}

func (e QuotaEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDSubject: {
			"database": e.Database,
			"quota_gb": fmt.Sprintf("%g", e.QuotaGB),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "set-quota",
			"result":    resultString(e.Success),
		},
	}
}
