package storagefs

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// LockTimeout is the default time [Real.Lock] waits to acquire a lock
// before giving up.
const LockTimeout = 5 * time.Second

const lockPerms = 0o644

// Real implements [FS] over the real filesystem.
type Real struct {
	// Timeout bounds how long Lock waits. Zero means [LockTimeout].
	Timeout time.Duration
}

// NewReal returns an [FS] backed by the os package with the default lock
// timeout.
func NewReal() *Real {
	return &Real{}
}

func (r *Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm) //nolint:gosec // path is caller-controlled by design
}

func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (r *Real) Remove(path string) error {
	return os.Remove(path)
}

// realLock holds an exclusive flock(2) lock on a sibling ".lock" file
// kept next to the data file.
type realLock struct {
	file *os.File
}

func (l *realLock) Close() error {
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)

	return l.file.Close()
}

// Lock acquires an exclusive, non-blocking flock on path+".lock", retrying
// until acquired or the timeout elapses.
func (r *Real) Lock(path string) (Locker, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = LockTimeout
	}

	lockPath := path + ".lock"

	file, openErr := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, lockPerms) //nolint:gosec
	if openErr != nil {
		return nil, fmt.Errorf("open lock file: %w", openErr)
	}

	deadline := time.Now().Add(timeout)

	const retryInterval = 10 * time.Millisecond

	for {
		flockErr := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if flockErr == nil {
			return &realLock{file: file}, nil
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, fmt.Errorf("lock %s: timed out after %s", filepath.Base(path), timeout)
		}

		time.Sleep(retryInterval)
	}
}

var _ FS = (*Real)(nil)
