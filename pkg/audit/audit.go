package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Structured data IDs carry our private enterprise number. The number
// must stay stable across releases so log consumers can key on it.
const (
	PermhubPEN  = 61642
	SDIDAuth    = "auth@61642"
	SDIDSubject = "subject@61642"
	SDIDAction  = "action@61642"
	SDIDClient  = "client@61642"
)

// Syslog facilities used by the event types.
const (
	FacilityAuth     = 4
	FacilityAuthPriv = 10
)

// Severity is a syslog severity level.
type Severity int

const (
	SeverityEmergency Severity = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

// Event is anything the audit trail can record.
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Logger emits events as RFC 5424 syslog lines.
type Logger struct {
	writer   io.Writer
	hostname string
	appName  string
	pid      int
}

func NewLogger() *Logger {
	hostname, _ := os.Hostname()
	return &Logger{
		writer:   os.Stdout,
		hostname: hostname,
		appName:  "permission-hub",
		pid:      os.Getpid(),
	}
}

// SetWriter redirects output, mainly for tests.
func (l *Logger) SetWriter(w io.Writer) {
	l.writer = w
}

// Log writes one event as
// <PRI>1 TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG.
func (l *Logger) Log(event Event) {
	_, _ = io.WriteString(l.writer, l.line(event))
}

func (l *Logger) line(event Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<%d>1 ", event.Facility()*8+int(event.Severity()))
	b.WriteString(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteByte(' ')
	if l.hostname != "" {
		b.WriteString(l.hostname)
	} else {
		b.WriteByte('-')
	}
	fmt.Fprintf(&b, " %s %d %s ", l.appName, l.pid, event.MessageID())

	if sd := encodeStructuredData(event.StructuredData()); sd != "" {
		b.WriteString(sd)
	} else {
		b.WriteByte('-')
	}
	b.WriteByte(' ')
	b.WriteString(event.Message())
	b.WriteByte('\n')

	return b.String()
}

// encodeStructuredData renders [sdid k="v" ...] elements. Keys are
// sorted so the output is stable.
func encodeStructuredData(sd map[string]map[string]string) string {
	if len(sd) == 0 {
		return ""
	}

	sdids := make([]string, 0, len(sd))
	for sdid := range sd {
		sdids = append(sdids, sdid)
	}
	sort.Strings(sdids)

	var b strings.Builder
	for _, sdid := range sdids {
		params := sd[sdid]
		keys := make([]string, 0, len(params))
		for key := range params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		b.WriteByte('[')
		b.WriteString(sdid)
		for _, key := range keys {
			fmt.Fprintf(&b, " %s=%s", key, escapeSDValue(params[key]))
		}
		b.WriteByte(']')
	}
	return b.String()
}

// escapeSDValue quotes a parameter value, escaping the three characters
// RFC 5424 section 6.3.3 requires.
func escapeSDValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	value = strings.ReplaceAll(value, "]", `\]`)
	return `"` + value + `"`
}

var (
	DefaultLogger = NewLogger()

	// DefaultStore is nil until the first Log call, and stays nil when
	// AUDIT_DATABASE_URL is unset.
	DefaultStore *Store

	auditEnabled     = true
	auditEnabledOnce sync.Once
	storeInitOnce    sync.Once
)

// IsEnabled reports whether the audit trail is on. It is on unless
// PERMHUB_AUDIT_ENABLED is set to false, 0 or no.
func IsEnabled() bool {
	auditEnabledOnce.Do(func() {
		if env := os.Getenv("PERMHUB_AUDIT_ENABLED"); env != "" {
			auditEnabled = env != "false" && env != "0" && env != "no"
		}
	})
	return auditEnabled
}

// SetEnabled overrides the environment toggle. Call it before the first
// Log for consistent behavior.
func SetEnabled(enabled bool) {
	auditEnabled = enabled
}

// Log emits an event through the default logger and, when configured,
// the audit store. Store failures are reported on stderr but never
// block the operation being audited.
func Log(event Event) {
	if !IsEnabled() {
		return
	}
	DefaultLogger.Log(event)

	storeInitOnce.Do(func() {
		var err error
		DefaultStore, err = NewStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "audit: cannot open audit database: %v\n", err)
		}
	})
	if err := DefaultStore.Save(event); err != nil {
		fmt.Fprintf(os.Stderr, "audit: save failed: %v\n", err)
	}
}
