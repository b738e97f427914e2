//go:build !windows

package storage

import "golang.org/x/sys/unix"

// canReadWrite asks the kernel whether the process may read and write dir.
func canReadWrite(dir string) bool {
	return unix.Access(dir, unix.R_OK|unix.W_OK) == nil
}
