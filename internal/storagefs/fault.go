package storagefs

import (
	"errors"
	"os"
)

// InjectedError marks an error as intentionally injected by [Fault], so
// tests can assert a failure was the one they asked for and not a genuine
// bug.
type InjectedError struct {
	Err error
}

func (e *InjectedError) Error() string { return e.Err.Error() }
func (e *InjectedError) Unwrap() error { return e.Err }

// IsInjected reports whether err was produced by [Fault].
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Fault wraps an [FS] and fails specific calls on demand: "the Nth write
// to this file fails" / "the next Sync fails" / "the next Read fails".
// Size banding and the three-valued field update make partial-success
// failures (some bytes written, then an error) the interesting case, so
// Fault supports those too instead of only all-or-nothing failures.
type Fault struct {
	FS

	// FailWriteAfter, if >0, makes the FailWriteAfter-th Write call on any
	// open file (1-indexed, counting only calls made while it is set) fail
	// instead of succeeding. Setting it to 1 fails the very next Write.
	FailWriteAfter int
	// FailWriteAtByte, if >0, makes the triggering write succeed for only
	// this many bytes before returning an error (simulates a torn write).
	FailWriteAtByte int

	// FailNextSync, if true, makes the next Sync call fail, then resets.
	FailNextSync bool

	// FailNextRead, if true, makes the next Read call fail, then resets.
	FailNextRead bool

	writeCalls int
}

// NewFault wraps fsys so tests can trigger specific write/sync/read
// failures.
func NewFault(fsys FS) *Fault {
	return &Fault{FS: fsys}
}

func (f *Fault) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &faultFile{File: file, parent: f}, nil
}

type faultFile struct {
	File
	parent *Fault
}

func (f *faultFile) Write(p []byte) (int, error) {
	if f.parent.FailWriteAfter > 0 {
		f.parent.writeCalls++
	}

	if f.parent.FailWriteAfter > 0 && f.parent.writeCalls == f.parent.FailWriteAfter {
		f.parent.FailWriteAfter = 0 // one-shot
		f.parent.writeCalls = 0

		if f.parent.FailWriteAtByte > 0 && f.parent.FailWriteAtByte < len(p) {
			n, _ := f.File.Write(p[:f.parent.FailWriteAtByte])

			return n, &InjectedError{Err: errors.New("injected: short write")}
		}

		return 0, &InjectedError{Err: errors.New("injected: write failed")}
	}

	return f.File.Write(p)
}

func (f *faultFile) Sync() error {
	if f.parent.FailNextSync {
		f.parent.FailNextSync = false

		return &InjectedError{Err: errors.New("injected: fsync failed")}
	}

	return f.File.Sync()
}

func (f *faultFile) Read(p []byte) (int, error) {
	if f.parent.FailNextRead {
		f.parent.FailNextRead = false

		return 0, &InjectedError{Err: errors.New("injected: read failed")}
	}

	return f.File.Read(p)
}

var _ FS = (*Fault)(nil)
