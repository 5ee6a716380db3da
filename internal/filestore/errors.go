package filestore

import "errors"

// Sentinel errors, classify with [errors.Is].
var (
	// ErrNotFound is returned when a key has no record, when a string
	// operation meets a list, or when a pop meets a string or an empty
	// list. Append and Prepend on a string replace it instead.
	ErrNotFound = errors.New("filestore: not found")

	// ErrKeyTooLong is returned when a key exceeds the maximum key length.
	// It is also returned for an empty key.
	ErrKeyTooLong = errors.New("filestore: key too long")

	// ErrClosed is returned by any operation on a [Store] after [Store.Close].
	ErrClosed = errors.New("filestore: store closed")

	// ErrInvalidAddressSpaceSize is returned when the requested index size
	// isn't a positive multiple of 4.
	ErrInvalidAddressSpaceSize = errors.New("filestore: index size must be a positive multiple of 4")

	// ErrMissingPath is returned when Open is called with an empty path.
	ErrMissingPath = errors.New("filestore: missing file path")

	// ErrCorrupt is returned when the on-disk data does not match what the
	// file's own pointers promise: a short read at an offset reached via a
	// live pointer, or a record that decodes to all zero bytes there.
	ErrCorrupt = errors.New("filestore: corrupt data file")
)
