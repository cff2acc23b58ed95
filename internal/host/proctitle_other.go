//go:build !linux

package host

// SetProcessTitle is a no-op on platforms without prctl.
func SetProcessTitle(string) {}
