// Package lua wraps gopher-lua for extension execution.
//
// Each loaded extension owns exactly one State for the lifetime of the
// process. Only safe standard libraries are opened; extensions reach the
// outside world solely through the host API the plugin package registers.
package lua
