//go:build linux

package tactile

import "syscall"

// Maxrss is reported in kilobytes on Linux.
func maxRSSBytes(r *syscall.Rusage) int64 {
	return r.Maxrss * 1024
}
