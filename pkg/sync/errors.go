package sync

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// SyncFailedError is returned when a job exhausts its attempts, or fails
// permanently before that.
type SyncFailedError struct {
	Name     string
	Attempts int
	Err      error
}

func (e *SyncFailedError) Error() string {
	return fmt.Sprintf("sync of %s failed after %d attempt(s): %v", e.Name, e.Attempts, e.Err)
}

func (e *SyncFailedError) Unwrap() error {
	return e.Err
}

// PartialBatchError aggregates the failed items of a batch. The batch's
// local records have already been rolled back when this is returned.
type PartialBatchError struct {
	Failed []string
	Errs   *multierror.Error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%d of the batch items failed to sync: %v", len(e.Failed), e.Errs)
}

func (e *PartialBatchError) Unwrap() error {
	return e.Errs
}
