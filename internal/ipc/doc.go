// Package ipc provides the typed message channel between a bridgelet child
// process and its parent orchestrator.
//
// The parent speaks a small envelope protocol: each message is a kind tag
// plus an optional kind-specific payload. Two transports are supported, a
// newline-delimited JSON stream over a unix socket and a websocket
// connection to a parent hub. Both feed inbound envelopes to a single
// dispatch callback and drop outbound sends silently once the channel is
// gone — an orphaned child is reaped by the liveness monitor, not by send
// failures.
package ipc
