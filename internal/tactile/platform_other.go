//go:build !linux && !windows

package tactile

import "syscall"

// Maxrss is reported in bytes on Darwin and the BSDs.
func maxRSSBytes(r *syscall.Rusage) int64 {
	return int64(r.Maxrss)
}
