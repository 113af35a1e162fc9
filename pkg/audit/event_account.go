package audit

import "fmt"

// AccountEvent records provisioning or deprovisioning of a directory
// account.
type AccountEvent struct {
	Username     string
	ClientIP     string
	Operation    string // "provision" or "deprovision"
	Account      string
	Department   string
	Success      bool
	ErrorMessage string
}

func (e AccountEvent) MessageID() string {
	return "account"
}

func (e AccountEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %sed account %s", e.Username, e.Operation, e.Account)
	}
	msg := fmt.Sprintf("%s tried to %s account %s", e.Username, e.Operation, e.Account)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AccountEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e AccountEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AccountEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDSubject: {
			"account": e.Account,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    resultString(e.Success),
		},
	}
	if e.Department != "" {
		sd[SDIDSubject]["department"] = e.Department
	}
	return sd
}
