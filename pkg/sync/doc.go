// Package sync drives permission records from the local store out to the
// policy authority.
//
// Writes land locally first, then the orchestrator reconciles them
// remotely with a bounded, fixed-delay retry of transient authority
// failures. When the remote side cannot be converged the local record is
// rolled back, in per-record mode individually and in batch mode for the
// whole group, so the store never holds permissions the authority does
// not enforce.
package sync
