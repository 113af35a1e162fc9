package audit

import "fmt"

// PermissionEvent records a grant or revocation of a data-access rule.
type PermissionEvent struct {
	Username     string
	ClientIP     string
	Operation    string // "grant" or "revoke"
	Kind         string // "table", "column" or "row"
	Database     string
	Table        string
	Subject      string // masked column or filter expression, if any
	Principal    string
	Success      bool
	ErrorMessage string
}

func (e PermissionEvent) MessageID() string {
	return "permission"
}

func (e PermissionEvent) Message() string {
	target := e.Database + "." + e.Table
	if e.Subject != "" {
		target += " (" + e.Subject + ")"
	}
	if e.Success {
		return fmt.Sprintf("%s %s %s permission on %s for %s", e.Username, pastTense(e.Operation), e.Kind, target, e.Principal)
	}
	msg := fmt.Sprintf("%s tried to %s %s permission on %s for %s", e.Username, e.Operation, e.Kind, target, e.Principal)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func pastTense(operation string) string {
	switch operation {
	case "grant":
		return "granted"
	case "revoke":
		return "revoked"
	default:
		return operation
	}
}

func (e PermissionEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e PermissionEvent) Facility() int {
	return FacilityAuth
}

func (e PermissionEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDSubject: {
			"kind":      e.Kind,
			"database":  e.Database,
			"table":     e.Table,
			"principal": e.Principal,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    resultString(e.Success),
		},
	}
	if e.Subject != "" {
		sd[SDIDSubject]["subject"] = e.Subject
	}
	return sd
}
