package storagefs

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Mem implements [FS] entirely in memory. Every path maps to a shared
// []byte buffer; multiple OpenFile calls on the same path see the same
// data, mirroring how multiple *os.File handles on one path behave.
//
// Used by filestore's unit tests so the bulk of the suite doesn't touch
// disk; [Real] is exercised separately by a smaller set of on-disk tests.
type Mem struct {
	mu    sync.Mutex
	files map[string]*memData
	locks map[string]bool
}

// NewMem returns a new empty in-memory filesystem.
func NewMem() *Mem {
	return &Mem{
		files: make(map[string]*memData),
		locks: make(map[string]bool),
	}
}

type memData struct {
	mu   sync.Mutex
	data []byte
}

func (m *Mem) OpenFile(path string, flag int, _ os.FileMode) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.files[path]
	if !ok {
		if flag&os.O_CREATE == 0 {
			return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
		}

		d = &memData{}
		m.files[path] = d
	}

	if flag&os.O_TRUNC != 0 {
		d.mu.Lock()
		d.data = nil
		d.mu.Unlock()
	}

	return &memFile{data: d}, nil
}

func (m *Mem) Stat(path string) (os.FileInfo, error) {
	m.mu.Lock()
	d, ok := m.files[path]
	m.mu.Unlock()

	if !ok {
		return nil, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}

	d.mu.Lock()
	size := int64(len(d.data))
	d.mu.Unlock()

	return memFileInfo{name: path, size: size}, nil
}

func (m *Mem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; !ok {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
	}

	delete(m.files, path)

	return nil
}

func (m *Mem) Lock(path string) (Locker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locks[path] {
		return nil, fmt.Errorf("lock %s: already held", path)
	}

	m.locks[path] = true

	return &memLock{fs: m, path: path}, nil
}

type memLock struct {
	fs   *Mem
	path string
}

func (l *memLock) Close() error {
	l.fs.mu.Lock()
	delete(l.fs.locks, l.path)
	l.fs.mu.Unlock()

	return nil
}

// memFile is a per-handle cursor over a shared [memData] buffer.
type memFile struct {
	data *memData
	pos  int64
}

func (f *memFile) Read(p []byte) (int, error) {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()

	if f.pos >= int64(len(f.data.data)) {
		return 0, io.EOF
	}

	n := copy(p, f.data.data[f.pos:])
	f.pos += int64(n)

	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()

	end := f.pos + int64(len(p))
	if end > int64(len(f.data.data)) {
		grown := make([]byte, end)
		copy(grown, f.data.data)
		f.data.data = grown
	}

	n := copy(f.data.data[f.pos:end], p)
	f.pos += int64(n)

	return n, nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	f.data.mu.Lock()
	size := int64(len(f.data.data))
	f.data.mu.Unlock()

	var newPos int64

	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = f.pos + offset
	case io.SeekEnd:
		newPos = size + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}

	if newPos < 0 {
		return 0, fmt.Errorf("seek: negative position %d", newPos)
	}

	f.pos = newPos

	return newPos, nil
}

func (f *memFile) Truncate(size int64) error {
	f.data.mu.Lock()
	defer f.data.mu.Unlock()

	switch {
	case size < int64(len(f.data.data)):
		f.data.data = f.data.data[:size]
	case size > int64(len(f.data.data)):
		grown := make([]byte, size)
		copy(grown, f.data.data)
		f.data.data = grown
	}

	return nil
}

func (f *memFile) Sync() error { return nil }
func (f *memFile) Close() error { return nil }
func (f *memFile) Fd() uintptr  { return 0 }

type memFileInfo struct {
	name string
	size int64
}

func (i memFileInfo) Name() string        { return i.name }
func (i memFileInfo) Size() int64         { return i.size }
func (i memFileInfo) Mode() os.FileMode   { return 0o644 }
func (i memFileInfo) ModTime() time.Time  { return time.Time{} }
func (i memFileInfo) IsDir() bool         { return false }
func (i memFileInfo) Sys() any            { return nil }

var _ FS = (*Mem)(nil)
