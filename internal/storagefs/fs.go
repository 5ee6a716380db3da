// Package storagefs provides the filesystem abstraction the file-backed
// store is built against, instead of *os.File directly.
//
// The main types are:
//   - [File]: interface for an open, seekable, syncable file handle
//   - [FS]: interface for opening and locking files
//   - [Real]: production implementation backed by the os package
//   - [Mem]: in-memory implementation for fast unit tests
//   - [Fault]: wraps any [FS] to inject write/sync/read failures for
//     durability tests
package storagefs

import (
	"io"
	"os"
)

// File is the subset of *os.File the store needs: a seekable stream plus
// the two operations ([File.Truncate], [File.Sync]) *os.File exposes beyond
// [io.ReadWriteSeeker], and [File.Fd].
type File interface {
	io.ReadWriteSeeker
	io.Closer

	// Truncate changes the size of the file. See [os.File.Truncate].
	Truncate(size int64) error

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error

	// Fd returns the file descriptor. Locking does not use it: [FS.Lock]
	// locks a separate lock file. Implementations not backed by a real
	// descriptor (e.g. [Mem]) return 0.
	Fd() uintptr
}

// Locker represents a held advisory file lock. Close releases it.
type Locker interface {
	io.Closer
}

// FS opens and locks the single data file the store operates on.
//
// Two implementations are provided: [Real] for production, [Mem] for tests
// that don't want to touch disk. [Fault] wraps either to inject failures.
type FS interface {
	// OpenFile opens a file with the given flags and permissions, creating
	// it if os.O_CREATE is set. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// Stat returns file metadata. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Remove deletes a file. See [os.Remove]. Releasing a lock does not
	// call it: [Real]'s lock files stay on disk.
	Remove(path string) error

	// Lock acquires an exclusive advisory lock on path, creating the lock
	// file if necessary. Blocks until acquired or the deadline in the
	// implementation is exceeded.
	Lock(path string) (Locker, error)
}
