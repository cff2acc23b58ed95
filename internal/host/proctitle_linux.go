//go:build linux

package host

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// SetProcessTitle renames the process as seen by ps and /proc. The
// kernel truncates the name to 15 bytes; errors are ignored, the title
// is cosmetic.
func SetProcessTitle(title string) {
	name, err := unix.BytePtrFromString(title)
	if err != nil {
		return
	}
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(name)), 0, 0, 0)
}
