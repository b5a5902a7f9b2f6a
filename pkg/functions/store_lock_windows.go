//go:build windows

package functions

import (
	"os"
	"time"
)

// acquireDirLock is a no-op on Windows. Cross-process file locking is not
// supported in this package; the store's mutex provides in-process safety.
func acquireDirLock(lockPath string, timeout time.Duration) (*os.File, error) {
	return nil, nil
}

// releaseDirLock is a no-op on Windows.
func releaseDirLock(lockFile *os.File) {
}
