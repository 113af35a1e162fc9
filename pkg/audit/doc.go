// Package audit emits an audit trail of every administrative action:
// logins, permission grants and revocations, account provisioning and
// quota changes.
//
// Events are written as RFC5424 syslog lines to stdout so they can be
// shipped by the host's log collector, and optionally persisted to a
// dedicated audit database when AUDIT_DATABASE_URL is set. Auditing can
// be switched off entirely with PERMHUB_AUDIT_ENABLED=false.
package audit
