package reconcile

//go:generate go run github.com/dmarkham/enumer -type Op -trimprefix Op -transform lower -output op.gen.go

// Op is the direction of an intent: grant adds access, revoke removes it.
type Op int

const (
	OpGrant Op = iota
	OpRevoke
)
