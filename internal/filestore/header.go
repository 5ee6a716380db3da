package filestore

import (
	"fmt"
	"io"
)

// headerLen is the fixed size of the file header preceding the index
// region.
const headerLen = 8

// header is the first 8 bytes of the data file.
type header struct {
	indexSize uint32 // size in bytes of the index region that follows
	refCount  uint32 // number of live records currently in the file
}

func encodeHeader(h header) [headerLen]byte {
	var b [headerLen]byte

	putUint32(b[0:4], h.indexSize)
	putUint32(b[4:8], h.refCount)

	return b
}

func decodeHeader(b []byte) header {
	return header{
		indexSize: getUint32(b[0:4]),
		refCount:  getUint32(b[4:8]),
	}
}

func (s *Store) readHeader() (header, error) {
	buf := make([]byte, headerLen)

	if _, err := s.file.Seek(0, 0); err != nil {
		return header{}, fmt.Errorf("seek header: %w", err)
	}

	if _, err := io.ReadFull(s.file, buf); err != nil {
		return header{}, fmt.Errorf("read header: %w", err)
	}

	return decodeHeader(buf), nil
}

func (s *Store) writeHeader(h header) error {
	b := encodeHeader(h)

	if _, err := s.file.Seek(0, 0); err != nil {
		return fmt.Errorf("seek header: %w", err)
	}

	if _, err := s.file.Write(b[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	return nil
}

// incRefCount increments the live record counter by one.
func (s *Store) incRefCount() error {
	h, err := s.readHeader()
	if err != nil {
		return err
	}

	h.refCount++

	return s.writeHeader(h)
}

// decRefCount decrements the live record counter by one. If it reaches
// zero the entire heap is reclaimed: the file is truncated back to just
// the header and a freshly zeroed index, and every slot pointer is wiped.
func (s *Store) decRefCount() error {
	h, err := s.readHeader()
	if err != nil {
		return err
	}

	if h.refCount == 0 {
		return fmt.Errorf("%w: ref_count underflow", ErrCorrupt)
	}

	h.refCount--

	if h.refCount == 0 {
		return s.truncateToEmpty(h.indexSize)
	}

	return s.writeHeader(h)
}

// truncateToEmpty resets the file to an empty store: header with
// ref_count 0, and a zeroed index region, with nothing beyond it.
func (s *Store) truncateToEmpty(indexSize uint32) error {
	total := int64(headerLen) + int64(indexSize)

	if err := s.file.Truncate(total); err != nil {
		return fmt.Errorf("truncate to empty: %w", err)
	}

	if err := s.writeHeader(header{indexSize: indexSize, refCount: 0}); err != nil {
		return err
	}

	zero := make([]byte, indexSize)

	if _, err := s.file.Seek(headerLen, 0); err != nil {
		return fmt.Errorf("seek index: %w", err)
	}

	if _, err := s.file.Write(zero); err != nil {
		return fmt.Errorf("zero index: %w", err)
	}

	return nil
}
