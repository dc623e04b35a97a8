// Package interop is the client for the polyglot interop broker.
//
// The broker is reachable over two channels: a JSON request/reply channel
// (register, rpc, queue, modules, health) and a persistent duplex websocket
// carrying multiplexed call/response/broadcast frames. The Client owns one
// of each, correlates duplex responses back to their callers through a
// pending-call table, and redials the duplex channel at a fixed interval
// when it drops.
//
// Ownership boundary:
// - request/reply operations (Register, Call, Send, Queue, Modules, Health)
// - duplex operations (CallDuplex, Subscribe, OnBroadcast)
// - the receive loop, reconnection controller, and lifecycle teardown
package interop
