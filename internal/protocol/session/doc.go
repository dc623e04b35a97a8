// Package session owns client-side duplex call correlation primitives.
//
// Ownership boundary:
// - call identifier generation
// - the pending-call table mapping identifiers to completion slots
// - session reliability configuration (timeouts, reconnect delay)
//
// The table guarantees at most one resolution per identifier: whichever of
// resolve, reject, or expire removes the entry first delivers the outcome,
// and every later action on the same identifier is a no-op.
package session
