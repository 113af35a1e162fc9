// Package ranger is a client for the policy authority's public v2 REST API.
//
// It carries the wire representation of policy and role documents and a
// small HTTP client for the subset of operations the reconciler needs:
// lookup/create/update/delete of policies, lookup/create/update of roles,
// and principal-based searches.
//
// The client holds no state beyond its connection settings; policy and
// role documents are owned by the authority and are never cached across
// reconciliation calls.
package ranger
