package sync

import (
	"github.com/youcash/permission-hub/pkg/reconcile"
)

// Job tracks one record's trip through the orchestrator. Jobs live for
// the duration of a sync call; they are not persisted.
type Job struct {
	Name     string
	Op       reconcile.Op
	Kind     reconcile.Kind
	Attempts int
	State    State
	LastErr  error
}

func newJob(name string, op reconcile.Op, kind reconcile.Kind) *Job {
	return &Job{Name: name, Op: op, Kind: kind, State: StatePending}
}

// Record pairs an intent with the compensation that undoes its local
// persistence. Rollback may be nil when there is nothing local to undo.
type Record struct {
	// Name identifies the record in logs and batch error reports.
	Name string
	// Intent is what gets reconciled remotely.
	Intent reconcile.Intent
	// Rollback deletes the locally persisted record. It is invoked when
	// the remote sync fails terminally, so the local store never keeps a
	// record the authority does not reflect.
	Rollback func() error
}
