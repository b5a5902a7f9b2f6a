//go:build !windows

package functions

import (
	"os"
	"syscall"
	"time"

	"github.com/metahuman-os/workflow-memory/pkg/errors"
)

// acquireDirLock takes an exclusive advisory flock on the given lock file,
// polling with a non-blocking lock until the timeout so a stuck holder
// surfaces as LockTimeout instead of blocking the caller forever.
func acquireDirLock(lockPath string, timeout time.Duration) (*os.File, error) {
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to open lock file")
	}

	deadline := time.Now().Add(timeout)
	for {
		err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return lockFile, nil
		}
		if err != syscall.EWOULDBLOCK && err != syscall.EAGAIN {
			lockFile.Close()
			return nil, errors.Wrap(err, errors.StorageFailed, "failed to lock drafts directory")
		}
		if time.Now().After(deadline) {
			lockFile.Close()
			return nil, errors.WithFields(
				errors.New(errors.LockTimeout, "timed out acquiring drafts lock"),
				errors.Fields{"lock": lockPath, "timeout": timeout},
			)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// releaseDirLock releases a lock acquired by acquireDirLock.
func releaseDirLock(lockFile *os.File) {
	if lockFile != nil {
		_ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
		lockFile.Close()
	}
}
