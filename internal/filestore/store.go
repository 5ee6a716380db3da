package filestore

import (
	"fmt"
	"os"
	"sync"

	"github.com/kvshelf/kvshelf/internal/storagefs"
)

// DefaultIndexSize is the index region size used when a new file is
// created without an explicit override: 65536 slots of 4 bytes each.
const DefaultIndexSize = 65536 * 4

// Options configures [Open].
type Options struct {
	// IndexSize is the number of bytes in the index region of a newly
	// created file. Must be a positive multiple of 4. Ignored when
	// reopening an existing file unless Truncate is set: the index size
	// an existing file was created with always wins.
	IndexSize uint32

	// Truncate discards any existing file content and reinitializes it
	// with IndexSize.
	Truncate bool
}

// Store is a single open handle on one data file. All operations are
// safe for concurrent use: a process-local mutex serializes them, and an
// OS advisory lock excludes other processes.
type Store struct {
	mu sync.Mutex

	fsys storagefs.FS
	file storagefs.File
	lock storagefs.Locker
	path string

	indexSize uint32
	closed    bool
}

// Open opens or creates the data file at path on fsys.
func Open(fsys storagefs.FS, path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, ErrMissingPath
	}

	indexSize := opts.IndexSize
	if indexSize == 0 {
		indexSize = DefaultIndexSize
	}

	if indexSize == 0 || indexSize%4 != 0 {
		return nil, ErrInvalidAddressSpaceSize
	}

	lock, err := fsys.Lock(path)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	file, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		_ = lock.Close()

		return nil, fmt.Errorf("open data file: %w", err)
	}

	s := &Store{fsys: fsys, file: file, lock: lock, path: path}

	if err := s.init(indexSize, opts.Truncate); err != nil {
		_ = file.Close()
		_ = lock.Close()

		return nil, err
	}

	return s, nil
}

// init establishes the file's header, either by reading one already
// present or by writing a fresh one.
func (s *Store) init(requestedIndexSize uint32, truncate bool) error {
	size, err := s.fileSize()
	if err != nil {
		return fmt.Errorf("stat data file: %w", err)
	}

	if !truncate && size >= headerLen {
		h, err := s.readHeader()
		if err != nil {
			return err
		}

		if h.indexSize == 0 || h.indexSize%4 != 0 {
			return fmt.Errorf("%w: stored index_size %d", ErrCorrupt, h.indexSize)
		}

		s.indexSize = h.indexSize

		return nil
	}

	if err := s.truncateToEmpty(requestedIndexSize); err != nil {
		return err
	}

	s.indexSize = requestedIndexSize

	return nil
}

// Close releases the file handle and the advisory lock. The Store must
// not be used afterward.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	fileErr := s.file.Close()
	lockErr := s.lock.Close()

	if fileErr != nil {
		return fmt.Errorf("close data file: %w", fileErr)
	}

	if lockErr != nil {
		return fmt.Errorf("release lock: %w", lockErr)
	}

	return nil
}

// IndexSize returns the size in bytes of this store's index region, as
// determined when the file was created.
func (s *Store) IndexSize() uint32 {
	return s.indexSize
}

func (s *Store) checkKey(key []byte) error {
	if len(key) == 0 || len(key) > maxKeyLen {
		return ErrKeyTooLong
	}

	return nil
}

// withLock serializes fn against every other call on s, validates key,
// rejects use after Close, and fsyncs the data file after any call that
// mutated it.
func (s *Store) withLock(key []byte, mutate bool, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if err := s.checkKey(key); err != nil {
		return err
	}

	if err := fn(); err != nil {
		return err
	}

	if mutate {
		if err := s.file.Sync(); err != nil {
			return fmt.Errorf("fsync: %w", err)
		}
	}

	return nil
}

// Put stores key/value as a string, overwriting any prior value,
// including an existing list.
func (s *Store) Put(key, value []byte) error {
	return s.withLock(key, true, func() error { return s.putString(key, value) })
}

// Get returns the string value for key. It returns [ErrNotFound] if key
// is absent, or if it currently holds a list.
func (s *Store) Get(key []byte) (value []byte, err error) {
	err = s.withLock(key, false, func() error {
		var innerErr error
		value, innerErr = s.getString(key)

		return innerErr
	})

	return value, err
}

// Remove deletes key's string value. It is a no-op returning
// [ErrNotFound] if key is absent or holds a list.
func (s *Store) Remove(key []byte) error {
	return s.withLock(key, true, func() error { return s.removeString(key) })
}

// FetchRemove deletes key's string value and returns it.
func (s *Store) FetchRemove(key []byte) (value []byte, err error) {
	err = s.withLock(key, true, func() error {
		var innerErr error
		value, innerErr = s.fetchRemoveString(key)

		return innerErr
	})

	return value, err
}

// Append pushes value onto the tail of key's list, creating the list if
// necessary. A string, or an emptied list, held by key is replaced by a
// fresh singleton list head written at end of file.
func (s *Store) Append(key, value []byte) error {
	return s.withLock(key, true, func() error { return s.appendList(key, value) })
}

// Prepend pushes value onto the head of key's list, creating the list if
// necessary. A string, or an emptied list, held by key is replaced by a
// fresh singleton list head written at end of file.
func (s *Store) Prepend(key, value []byte) error {
	return s.withLock(key, true, func() error { return s.prependList(key, value) })
}

// PopTail removes and returns the last element of key's list. Returns
// [ErrNotFound] if key holds no list, or an empty one.
func (s *Store) PopTail(key []byte) (value []byte, err error) {
	err = s.withLock(key, true, func() error {
		var innerErr error
		value, innerErr = s.popTail(key)

		return innerErr
	})

	return value, err
}

// PopHead removes and returns the first element of key's list. Returns
// [ErrNotFound] if key holds no list, or an empty one.
func (s *Store) PopHead(key []byte) (value []byte, err error) {
	err = s.withLock(key, true, func() error {
		var innerErr error
		value, innerErr = s.popHead(key)

		return innerErr
	})

	return value, err
}
