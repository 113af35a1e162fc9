package sync

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/reconcile"
)

// Applier reconciles one intent. *reconcile.Reconciler satisfies it.
type Applier interface {
	Apply(ctx context.Context, op reconcile.Op, intent reconcile.Intent) (reconcile.Results, error)
}

// Orchestrator pushes locally persisted permission records to the policy
// authority. The local database is the source of intent, the authority is
// the source of enforcement; the orchestrator's job is to never leave the
// two quietly out of step. A record whose sync fails terminally gets its
// local persistence rolled back.
type Orchestrator struct {
	applier  Applier
	attempts int
	delay    time.Duration
	locks    *keyedMutex
	logger   hclog.Logger
}

func NewOrchestrator(applier Applier, cfg *config.Config, logger hclog.Logger) *Orchestrator {
	return &Orchestrator{
		applier:  applier,
		attempts: cfg.SyncAttempts,
		delay:    cfg.SyncRetryDelay(),
		locks:    newKeyedMutex(),
		logger:   logger.Named("sync"),
	}
}

// SyncOne reconciles a single record. On terminal failure the record's
// rollback runs before the error is returned, so an interactive caller
// never leaves a phantom record behind. ErrNothingToRevoke passes
// through without rollback: the local record was removed by the caller
// and there was simply nothing remote to undo.
func (o *Orchestrator) SyncOne(ctx context.Context, op reconcile.Op, rec Record) error {
	err := o.runJob(ctx, op, rec)
	if err == nil || errors.Is(err, reconcile.ErrNothingToRevoke) {
		return err
	}
	if rec.Rollback != nil {
		if rbErr := rec.Rollback(); rbErr != nil {
			o.logger.Error("rollback of local record failed", "record", rec.Name, "error", rbErr)
			err = multierror.Append(err, rbErr)
		}
	}
	return err
}

// SyncBatch reconciles a group of records as a unit: every record is
// attempted, and if any fails, the local persistence of the whole batch
// is rolled back and a PartialBatchError names the failed items. A batch
// is either fully reflected on the authority or not kept locally at all.
func (o *Orchestrator) SyncBatch(ctx context.Context, op reconcile.Op, recs []Record) error {
	var failed []string
	var errs *multierror.Error
	for _, rec := range recs {
		if err := o.runJob(ctx, op, rec); err != nil && !errors.Is(err, reconcile.ErrNothingToRevoke) {
			failed = append(failed, rec.Name)
			errs = multierror.Append(errs, err)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	for _, rec := range recs {
		if rec.Rollback == nil {
			continue
		}
		if rbErr := rec.Rollback(); rbErr != nil {
			o.logger.Error("batch rollback of local record failed", "record", rec.Name, "error", rbErr)
		}
	}
	return &PartialBatchError{Failed: failed, Errs: errs}
}

// runJob drives one record through the retry loop while holding the
// per-document lock, so two jobs against the same policy name cannot
// interleave their read-merge-write cycles.
func (o *Orchestrator) runJob(ctx context.Context, op reconcile.Op, rec Record) error {
	job := newJob(rec.Name, op, rec.Intent.Kind())

	unlock := o.locks.lock(lockKey(rec.Intent))
	defer unlock()

	nothingToRevoke := false
	err := withRetry(ctx, o.attempts, o.delay,
		func(attempt int, attemptErr error) {
			job.State = StateRetrying
			job.LastErr = attemptErr
			o.logger.Warn("transient sync failure, retrying",
				"record", rec.Name, "op", op.String(), "attempt", attempt, "error", attemptErr)
		},
		func(ctx context.Context) error {
			job.State = StateInFlight
			job.Attempts++
			results, err := o.applier.Apply(ctx, op, rec.Intent)
			if err != nil {
				return err
			}
			if err := results.Err(); err != nil {
				return err
			}
			nothingToRevoke = op == reconcile.OpRevoke && !results.Changed() && allNothingToRevoke(results)
			return nil
		})

	if err != nil {
		job.State = StateFailed
		job.LastErr = err
		o.logger.Error("sync failed", "record", rec.Name, "op", op.String(),
			"attempts", job.Attempts, "error", err)
		return &SyncFailedError{Name: rec.Name, Attempts: job.Attempts, Err: err}
	}

	job.State = StateSucceeded
	o.logger.Debug("sync succeeded", "record", rec.Name, "op", op.String(), "attempts", job.Attempts)
	if nothingToRevoke {
		return reconcile.ErrNothingToRevoke
	}
	return nil
}

func allNothingToRevoke(results reconcile.Results) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !errors.Is(r.Err, reconcile.ErrNothingToRevoke) {
			return false
		}
	}
	return true
}

// lockKey buckets intents by the table they touch. Coarser than the full
// document name, which is fine: correctness needs at-least document
// granularity and a table groups every document an intent can fan out to.
func lockKey(intent reconcile.Intent) string {
	switch in := intent.(type) {
	case reconcile.AccessIntent:
		return "access/" + in.Database + "/" + in.Table
	case reconcile.MaskIntent:
		return "mask/" + in.Database + "/" + in.Table
	case reconcile.RowFilterIntent:
		return "filter/" + in.Database + "/" + in.Table
	default:
		return "other"
	}
}
