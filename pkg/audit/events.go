package audit

import "fmt"

// AuthenticateEvent records a login attempt against the management API.
type AuthenticateEvent struct {
	Username     string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated", e.Username)
	}
	msg := fmt.Sprintf("%s failed to authenticate", e.Username)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "login",
			"result":    resultString(e.Success),
		},
	}
}

func resultString(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
