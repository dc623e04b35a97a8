// Package protocol owns the duplex-channel wire contract with the interop
// broker.
//
// Ownership boundary:
// - the tagged frame shape exchanged over the duplex channel
// - JSON encode/decode with per-tag validation
// - the frame-level error taxonomy
//
// Correlation and transport concerns live elsewhere: the pending-call table
// is internal/protocol/session, the websocket session is internal/interop.
package protocol
