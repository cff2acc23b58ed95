package ipc

// Handler receives each inbound envelope from the parent.
// Handlers run on the channel's read goroutine and must not block for long.
type Handler func(Envelope)

// Channel is a duplex conduit of envelopes between child and parent.
type Channel interface {
	// Start begins reading inbound envelopes, dispatching each to handler.
	Start(handler Handler)

	// Send transmits an envelope to the parent. Sends are best-effort:
	// when the channel is disconnected the envelope is silently dropped.
	Send(kind MessageKind, data any)

	// Connected reports whether the channel to the parent is still alive.
	Connected() bool

	// Close tears down the channel. Safe to call more than once.
	Close() error
}
