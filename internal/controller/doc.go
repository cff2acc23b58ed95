// Package controller implements the child-process lifecycle state machine.
//
// The parent drives a bridgelet through exactly one pass of
// Uninitialized -> Loaded -> Running, after which the process stays up
// until a signal, an orphan detection, or an explicit shutdown moves it
// through ShuttingDown -> Terminated. Envelopes arriving outside the
// state they are valid in are ignored without protocol errors.
package controller
