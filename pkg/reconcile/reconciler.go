package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/ranger"
)

// Reconciler converges remote policy documents to the state an intent
// declares. It never caches remote documents: every call re-reads the
// document it is about to mutate. There is no optimistic-concurrency
// guard on the document itself; callers that need serialization should
// serialize per (service, policy name), which the sync orchestrator does.
type Reconciler struct {
	client   ranger.Client
	services []string
	catalogs []string
	logger   hclog.Logger
}

// New builds a Reconciler fanning out to the configured services and
// catalogs.
func New(client ranger.Client, cfg config.Ranger, logger hclog.Logger) *Reconciler {
	return &Reconciler{
		client:   client,
		services: cfg.Services,
		catalogs: cfg.Catalogs,
		logger:   logger.Named("reconcile"),
	}
}

// TargetResult is the outcome of reconciling one fan-out target. Targets
// are independent: one failing does not roll back the others.
type TargetResult struct {
	Target  Target
	Changed bool
	Err     error
}

// Results is the per-target outcome of one intent.
type Results []TargetResult

// Err aggregates the target errors, ignoring nothing-to-revoke outcomes.
func (rs Results) Err() error {
	var merr *multierror.Error
	for _, r := range rs {
		if r.Err != nil && r.Err != ErrNothingToRevoke {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.Target, r.Err))
		}
	}
	return merr.ErrorOrNil()
}

// Changed reports whether any target issued a remote write.
func (rs Results) Changed() bool {
	for _, r := range rs {
		if r.Changed {
			return true
		}
	}
	return false
}

// Apply validates the intent and reconciles every fan-out target for the
// given operation. Validation failures abort before any remote call;
// per-target remote failures are reported in the results.
func (r *Reconciler) Apply(ctx context.Context, op Op, intent Intent) (Results, error) {
	if err := intent.Validate(op); err != nil {
		return nil, err
	}
	targets, err := ExpandTargets(intent, r.services, r.catalogs)
	if err != nil {
		return nil, err
	}

	results := make(Results, 0, len(targets))
	for _, target := range targets {
		var changed bool
		var targetErr error
		switch op {
		case OpGrant:
			changed, targetErr = r.grantTarget(ctx, intent, target)
		case OpRevoke:
			changed, targetErr = r.revokeTarget(ctx, intent, target)
		default:
			targetErr = fmt.Errorf("unsupported operation %v", op)
		}
		if targetErr != nil && targetErr != ErrNothingToRevoke {
			r.logger.Error("target reconciliation failed",
				"op", op.String(), "target", target.String(), "error", targetErr)
		}
		results = append(results, TargetResult{Target: target, Changed: changed, Err: targetErr})
	}
	return results, nil
}

// Grant converges the targets toward containing the intent's grants.
func (r *Reconciler) Grant(ctx context.Context, intent Intent) (Results, error) {
	return r.Apply(ctx, OpGrant, intent)
}

// Revoke converges the targets toward not containing the intent's grants.
func (r *Reconciler) Revoke(ctx context.Context, intent Intent) (Results, error) {
	return r.Apply(ctx, OpRevoke, intent)
}

func (r *Reconciler) grantTarget(ctx context.Context, intent Intent, target Target) (bool, error) {
	existing, err := r.client.GetPolicy(ctx, target.Service, target.PolicyName)
	if err != nil {
		return false, err
	}

	if existing == nil {
		policy, err := buildPolicy(intent, target)
		if err != nil {
			return false, err
		}
		if _, err := r.client.CreatePolicy(ctx, policy); err != nil {
			return false, err
		}
		return true, nil
	}

	changed, err := mergeIntent(existing, intent, target)
	if err != nil {
		return false, err
	}
	if !changed {
		r.logger.Debug("grant already covered, nothing to do", "target", target.String())
		return false, nil
	}
	if err := r.client.UpdatePolicy(ctx, existing.ID, existing); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Reconciler) revokeTarget(ctx context.Context, intent Intent, target Target) (bool, error) {
	existing, err := r.client.GetPolicy(ctx, target.Service, target.PolicyName)
	if err != nil {
		return false, err
	}
	if existing == nil {
		r.logger.Warn("no policy found to revoke from", "target", target.String())
		return false, ErrNothingToRevoke
	}

	var outcome RevokeOutcome
	switch in := intent.(type) {
	case AccessIntent:
		accesses := itemAccesses(serviceAccesses(target.Service, in.Accesses))
		outcome = revokeAccessItems(existing, accesses, in.Principals)
	case MaskIntent:
		outcome = revokeMaskItems(existing, in.MaskType, in.Principals)
	case RowFilterIntent:
		outcome = revokeRowFilterItems(existing, trimmedFilter(in.FilterExpr), in.Principals)
	default:
		return false, fmt.Errorf("unsupported intent type %T", intent)
	}

	switch outcome {
	case RevokeNothing:
		return false, ErrNothingToRevoke
	case RevokeDelete:
		r.logger.Info("all rule items emptied, deleting policy",
			"target", target.String(), "id", existing.ID)
		if err := r.client.DeletePolicy(ctx, existing.ID); err != nil {
			return false, err
		}
		return true, nil
	default:
		if err := r.client.UpdatePolicy(ctx, existing.ID, existing); err != nil {
			return false, err
		}
		return true, nil
	}
}

// mergeIntent folds the intent's grant into an existing document.
func mergeIntent(policy *ranger.Policy, intent Intent, target Target) (bool, error) {
	switch in := intent.(type) {
	case AccessIntent:
		return mergeAccessGrant(policy, buildAccessItem(in, target)), nil
	case MaskIntent:
		return mergeMaskGrant(policy, buildMaskItem(in, target)), nil
	case RowFilterIntent:
		return mergeRowFilterGrant(policy, buildRowFilterItem(in, target)), nil
	default:
		return false, fmt.Errorf("unsupported intent type %T", intent)
	}
}

// buildPolicy assembles a fresh document for a target with no existing
// policy.
func buildPolicy(intent Intent, target Target) (*ranger.Policy, error) {
	switch in := intent.(type) {
	case AccessIntent:
		policy := newPolicyShell(target, KindAccess, in.Database, in.Table)
		policy.Resources["column"] = ranger.PolicyResource{Values: []string{target.Column}}
		policy.PolicyItems = []ranger.PolicyItem{buildAccessItem(in, target)}
		return policy, nil
	case MaskIntent:
		// An initial mask document with MASK_NONE would grant unmasked
		// reads on a column nobody has masked yet.
		if in.MaskType != "MASK_HASH" && in.MaskType != "CUSTOM" {
			return nil, validationErrorf(
				"initial mask policy for %s must be MASK_HASH or CUSTOM, got %s", target.PolicyName, in.MaskType)
		}
		policy := newPolicyShell(target, KindMask, in.Database, in.Table)
		policy.Resources["column"] = ranger.PolicyResource{Values: []string{target.Column}}
		policy.DataMaskPolicyItems = []ranger.DataMaskPolicyItem{buildMaskItem(in, target)}
		return policy, nil
	case RowFilterIntent:
		policy := newPolicyShell(target, KindRowFilter, in.Database, in.Table)
		policy.RowFilterPolicyItems = []ranger.RowFilterPolicyItem{buildRowFilterItem(in, target)}
		return policy, nil
	default:
		return nil, fmt.Errorf("unsupported intent type %T", intent)
	}
}

func newPolicyShell(target Target, kind Kind, database, table string) *ranger.Policy {
	policy := &ranger.Policy{
		Service:     target.Service,
		Name:        target.PolicyName,
		PolicyType:  kind.PolicyType(),
		Description: fmt.Sprintf("Created %s policy %s automatically", kind, target.PolicyName),
		Resources: map[string]ranger.PolicyResource{
			"database": {Values: []string{database}},
			"table":    {Values: []string{table}},
		},
	}
	if target.Catalog != "" {
		policy.Resources["catalog"] = ranger.PolicyResource{Values: []string{target.Catalog}}
	}
	return policy
}

func buildAccessItem(in AccessIntent, target Target) ranger.PolicyItem {
	return ranger.PolicyItem{
		Accesses: itemAccesses(serviceAccesses(target.Service, in.Accesses)),
		Users:    in.Principals.Users,
		Groups:   in.Principals.Groups,
		Roles:    in.Principals.Roles,
	}
}

func buildMaskItem(in MaskIntent, target Target) ranger.DataMaskPolicyItem {
	return ranger.DataMaskPolicyItem{
		PolicyItem: ranger.PolicyItem{
			Accesses: itemAccesses(serviceAccesses(target.Service, []string{"select"})),
			Users:    in.Principals.Users,
			Groups:   in.Principals.Groups,
			Roles:    in.Principals.Roles,
		},
		DataMaskInfo: ranger.DataMaskInfo{
			DataMaskType: in.MaskType,
			ValueExpr:    maskValueExpr(target.Service, in.MaskType, target.Column),
		},
	}
}

func buildRowFilterItem(in RowFilterIntent, target Target) ranger.RowFilterPolicyItem {
	accesses := in.Accesses
	if len(accesses) == 0 {
		accesses = []string{"select"}
	}
	return ranger.RowFilterPolicyItem{
		PolicyItem: ranger.PolicyItem{
			Accesses: itemAccesses(serviceAccesses(target.Service, accesses)),
			Users:    in.Principals.Users,
			Groups:   in.Principals.Groups,
			Roles:    in.Principals.Roles,
		},
		RowFilterInfo: ranger.RowFilterInfo{FilterExpr: trimmedFilter(in.FilterExpr)},
	}
}

func trimmedFilter(expr string) string {
	return strings.TrimSpace(expr)
}

// maskValueExpr is the masking expression recorded with a mask item.
// doris evaluates the expression itself; hive-style services call a UDF
// for custom masks and leave the expression empty otherwise.
func maskValueExpr(service, maskType, column string) string {
	if service == "doris" {
		return fmt.Sprintf("upper(md5(`%s`))", column)
	}
	if maskType == "CUSTOM" {
		return fmt.Sprintf("default.uppermd5(`%s`)", column)
	}
	return ""
}
