package reconcile

import (
	"github.com/youcash/permission-hub/pkg/ranger"
)

// RevokeOutcome is the result of removing principals from a document.
type RevokeOutcome int

const (
	// RevokeNothing means no rule item contained any requested principal.
	RevokeNothing RevokeOutcome = iota
	// RevokeUpdate means the document changed and must be written back.
	RevokeUpdate
	// RevokeDelete means every rule item was emptied: the document must be
	// deleted remotely, never updated to an empty shell.
	RevokeDelete
)

func itemPrincipals(item ranger.PolicyItem) PrincipalSet {
	return PrincipalSet{Users: item.Users, Groups: item.Groups, Roles: item.Roles}
}

// stripPrincipals removes the principals from the item's member lists and
// reports whether anything was removed.
func stripPrincipals(item *ranger.PolicyItem, principals PrincipalSet) bool {
	var removed bool
	var ok bool
	item.Users, ok = removeAll(item.Users, principals.Users)
	removed = removed || ok
	item.Groups, ok = removeAll(item.Groups, principals.Groups)
	removed = removed || ok
	item.Roles, ok = removeAll(item.Roles, principals.Roles)
	removed = removed || ok
	return removed
}

func itemEmpty(item ranger.PolicyItem) bool {
	return len(item.Users) == 0 && len(item.Groups) == 0 && len(item.Roles) == 0
}

// mergeAccessGrant folds the requested item into an access document.
// When an existing item with the same access set already contains every
// requested principal the grant is a no-op. Otherwise a new item carrying
// the full requested principal sets is inserted at the front when an item
// with a matching access set exists (older grants are never widened in
// place), or appended when none does. Reports whether the document
// changed.
func mergeAccessGrant(policy *ranger.Policy, item ranger.PolicyItem) bool {
	payloadMatch := false
	for _, existing := range policy.PolicyItems {
		if !accessSetEqual(existing.Accesses, item.Accesses) {
			continue
		}
		payloadMatch = true
		if itemPrincipals(item).CoveredBy(existing.Users, existing.Groups, existing.Roles) {
			return false
		}
	}
	if payloadMatch {
		policy.PolicyItems = append([]ranger.PolicyItem{item}, policy.PolicyItems...)
	} else {
		policy.PolicyItems = append(policy.PolicyItems, item)
	}
	return true
}

// mergeMaskGrant is mergeAccessGrant for data-mask documents; the
// kind-specific payload compared is the mask type.
func mergeMaskGrant(policy *ranger.Policy, item ranger.DataMaskPolicyItem) bool {
	payloadMatch := false
	for _, existing := range policy.DataMaskPolicyItems {
		if existing.DataMaskInfo.DataMaskType != item.DataMaskInfo.DataMaskType {
			continue
		}
		payloadMatch = true
		if itemPrincipals(item.PolicyItem).CoveredBy(existing.Users, existing.Groups, existing.Roles) {
			return false
		}
	}
	if payloadMatch {
		policy.DataMaskPolicyItems = append([]ranger.DataMaskPolicyItem{item}, policy.DataMaskPolicyItems...)
	} else {
		policy.DataMaskPolicyItems = append(policy.DataMaskPolicyItems, item)
	}
	return true
}

// mergeRowFilterGrant is mergeAccessGrant for row-filter documents; the
// kind-specific payload compared is the filter expression.
func mergeRowFilterGrant(policy *ranger.Policy, item ranger.RowFilterPolicyItem) bool {
	payloadMatch := false
	for _, existing := range policy.RowFilterPolicyItems {
		if existing.RowFilterInfo.FilterExpr != item.RowFilterInfo.FilterExpr {
			continue
		}
		payloadMatch = true
		if itemPrincipals(item.PolicyItem).CoveredBy(existing.Users, existing.Groups, existing.Roles) {
			return false
		}
	}
	if payloadMatch {
		policy.RowFilterPolicyItems = append([]ranger.RowFilterPolicyItem{item}, policy.RowFilterPolicyItems...)
	} else {
		policy.RowFilterPolicyItems = append(policy.RowFilterPolicyItems, item)
	}
	return true
}

// revokeAccessItems removes the principals from every item whose access
// set matches. Items emptied of all principals are pruned; a document
// with no items left must be deleted by the caller, never written back
// empty.
func revokeAccessItems(policy *ranger.Policy, accesses []ranger.ItemAccess, principals PrincipalSet) RevokeOutcome {
	found := false
	kept := policy.PolicyItems[:0:0]
	for _, item := range policy.PolicyItems {
		if !accessSetEqual(item.Accesses, accesses) {
			kept = append(kept, item)
			continue
		}
		if stripPrincipals(&item, principals) {
			found = true
			if itemEmpty(item) {
				continue
			}
		}
		kept = append(kept, item)
	}
	if !found {
		return RevokeNothing
	}
	policy.PolicyItems = kept
	if len(kept) == 0 {
		return RevokeDelete
	}
	return RevokeUpdate
}

// revokeMaskItems is revokeAccessItems for data-mask documents.
func revokeMaskItems(policy *ranger.Policy, maskType string, principals PrincipalSet) RevokeOutcome {
	found := false
	kept := policy.DataMaskPolicyItems[:0:0]
	for _, item := range policy.DataMaskPolicyItems {
		if item.DataMaskInfo.DataMaskType != maskType {
			kept = append(kept, item)
			continue
		}
		if stripPrincipals(&item.PolicyItem, principals) {
			found = true
			if itemEmpty(item.PolicyItem) {
				continue
			}
		}
		kept = append(kept, item)
	}
	if !found {
		return RevokeNothing
	}
	policy.DataMaskPolicyItems = kept
	if len(kept) == 0 {
		return RevokeDelete
	}
	return RevokeUpdate
}

// revokeRowFilterItems is revokeAccessItems for row-filter documents.
func revokeRowFilterItems(policy *ranger.Policy, filterExpr string, principals PrincipalSet) RevokeOutcome {
	found := false
	kept := policy.RowFilterPolicyItems[:0:0]
	for _, item := range policy.RowFilterPolicyItems {
		if item.RowFilterInfo.FilterExpr != filterExpr {
			kept = append(kept, item)
			continue
		}
		if stripPrincipals(&item.PolicyItem, principals) {
			found = true
			if itemEmpty(item.PolicyItem) {
				continue
			}
		}
		kept = append(kept, item)
	}
	if !found {
		return RevokeNothing
	}
	policy.RowFilterPolicyItems = kept
	if len(kept) == 0 {
		return RevokeDelete
	}
	return RevokeUpdate
}
