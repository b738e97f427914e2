//go:build windows

package storage

import (
	"os"
)

// canReadWrite probes dir by creating and removing a temporary file.
func canReadWrite(dir string) bool {
	f, err := os.CreateTemp(dir, ".marksafe-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name) == nil
}
