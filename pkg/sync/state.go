package sync

//go:generate go run github.com/dmarkham/enumer -type State -trimprefix State -transform snake-upper -output state.gen.go

// State is the lifecycle state of a sync job.
type State int

const (
	// StatePending means the job has been accepted but not started.
	StatePending State = iota
	// StateInFlight means an attempt is currently running.
	StateInFlight
	// StateRetrying means the last attempt failed transiently and the job
	// is waiting out the retry delay.
	StateRetrying
	// StateSucceeded is terminal.
	StateSucceeded
	// StateFailed is terminal: attempts are exhausted or the failure was
	// permanent.
	StateFailed
)

// Terminal reports whether the job is finished.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
