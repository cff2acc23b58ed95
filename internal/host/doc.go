// Package host covers process-level supervision for the bridgelet child:
// signal-driven shutdown with a forced-exit deadline, orphan detection
// against the parent channel, and the process-title rename.
package host
