// Package reconcile converges remote policy documents toward declared
// permission intents.
//
// An Intent describes a desired grant or revocation: which database
// objects, which accesses, which principals. Reconciliation fans the
// intent out across the configured services and catalogs (ExpandTargets),
// reads each target's current policy document, and issues the minimal
// remote write: create when absent, merge a rule item when present, or
// nothing at all when the principals are already covered.
//
// Merging never widens an existing rule item. When a payload-matching
// item exists but lacks the requested principals, a fresh item carrying
// just those principals is inserted at the front of the item list, so
// an earlier broad grant cannot silently absorb a narrow one.
//
// Revocation strips principals from payload-matching items, prunes items
// left with no principals, and deletes the document outright once no
// rule items remain. Revoking something never granted yields
// ErrNothingToRevoke and no remote write.
package reconcile
