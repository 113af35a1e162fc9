package reconcile

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/youcash/permission-hub/pkg/ranger"
)

// PurgePrincipal removes a principal from every policy document that
// references it, across all configured services. Documents left with no
// rule items are deleted. Kind is one of "user", "group", "role".
func (r *Reconciler) PurgePrincipal(ctx context.Context, kind, value string) error {
	var merr *multierror.Error
	for _, service := range r.services {
		policies, err := r.client.FindPoliciesByPrincipal(ctx, service, kind, value)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		for i := range policies {
			policy := &policies[i]
			if !stripPrincipalEverywhere(policy, kind, value) {
				continue
			}
			if policy.ItemCount() == 0 {
				r.logger.Info("purging principal emptied policy, deleting",
					"service", service, "policy", policy.Name, "principal", value)
				if err := r.client.DeletePolicy(ctx, policy.ID); err != nil {
					merr = multierror.Append(merr, err)
				}
				continue
			}
			if err := r.client.UpdatePolicy(ctx, policy.ID, policy); err != nil {
				merr = multierror.Append(merr, err)
			}
		}
	}
	return merr.ErrorOrNil()
}

// stripPrincipalEverywhere drops the principal from every rule item of
// the document and prunes items left empty. Reports whether anything
// changed.
func stripPrincipalEverywhere(policy *ranger.Policy, kind, value string) bool {
	principals := PrincipalSet{}
	switch kind {
	case "group":
		principals.Groups = []string{value}
	case "role":
		principals.Roles = []string{value}
	default:
		principals.Users = []string{value}
	}

	changed := false

	kept := policy.PolicyItems[:0:0]
	for _, item := range policy.PolicyItems {
		if stripPrincipals(&item, principals) {
			changed = true
			if itemEmpty(item) {
				continue
			}
		}
		kept = append(kept, item)
	}
	policy.PolicyItems = kept

	keptMasks := policy.DataMaskPolicyItems[:0:0]
	for _, item := range policy.DataMaskPolicyItems {
		if stripPrincipals(&item.PolicyItem, principals) {
			changed = true
			if itemEmpty(item.PolicyItem) {
				continue
			}
		}
		keptMasks = append(keptMasks, item)
	}
	policy.DataMaskPolicyItems = keptMasks

	keptFilters := policy.RowFilterPolicyItems[:0:0]
	for _, item := range policy.RowFilterPolicyItems {
		if stripPrincipals(&item.PolicyItem, principals) {
			changed = true
			if itemEmpty(item.PolicyItem) {
				continue
			}
		}
		keptFilters = append(keptFilters, item)
	}
	policy.RowFilterPolicyItems = keptFilters

	return changed
}
