package filestore

import (
	"fmt"
	"io"
)

// fileSize returns the current size of the data file.
func (s *Store) fileSize() (int64, error) {
	return s.file.Seek(0, io.SeekEnd)
}

// readSlot returns the record offset stored in the index slot at
// slotOff, or 0 if the slot is empty.
func (s *Store) readSlot(slotOff uint32) (offset, error) {
	buf := make([]byte, 4)

	if _, err := s.file.Seek(int64(slotOff), io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek slot: %w", err)
	}

	if _, err := io.ReadFull(s.file, buf); err != nil {
		return 0, fmt.Errorf("read slot: %w", err)
	}

	return offset(getUint32(buf)), nil
}

// writeSlot stores a record offset (or 0 to clear) in the index slot at
// slotOff.
func (s *Store) writeSlot(slotOff uint32, v offset) error {
	buf := make([]byte, 4)
	putUint32(buf, uint32(v))

	if _, err := s.file.Seek(int64(slotOff), io.SeekStart); err != nil {
		return fmt.Errorf("seek slot: %w", err)
	}

	if _, err := s.file.Write(buf); err != nil {
		return fmt.Errorf("write slot: %w", err)
	}

	return nil
}

// setChainPointer rewires whatever currently points at a chain entry (the
// index slot itself if prevOff is none, otherwise the previous entry's
// chain_next) to point at v instead.
func (s *Store) setChainPointer(slotOff uint32, prevOff offset, v offset) error {
	if prevOff.isNone() {
		return s.writeSlot(slotOff, v)
	}

	return s.patchAddress(prevOff, addressPatch{chainNext: setPtr(v)})
}

// readAddressAt reads and decodes the 29-byte address at off. off must
// have been reached via a live pointer (a slot, chain_next, list_next, or
// list_prev read as non-zero); any failure here means the file doesn't
// match its own linkage.
func (s *Store) readAddressAt(off offset) (address, error) {
	buf := make([]byte, addressLen)

	if _, err := s.file.Seek(int64(off), io.SeekStart); err != nil {
		return address{}, fmt.Errorf("%w: seek address at %d: %v", ErrCorrupt, off, err)
	}

	if _, err := io.ReadFull(s.file, buf); err != nil {
		return address{}, fmt.Errorf("%w: read address at %d: %v", ErrCorrupt, off, err)
	}

	a, ok := decodeAddress(buf)
	if !ok {
		return address{}, fmt.Errorf("%w: address at %d decodes empty", ErrCorrupt, off)
	}

	return a, nil
}

// patchAddress selectively rewrites fields of the address already at off,
// leaving the key/value bytes that follow untouched.
func (s *Store) patchAddress(off offset, patch addressPatch) error {
	cur, err := s.readAddressAt(off)
	if err != nil {
		return err
	}

	next := patch.apply(cur)
	b := encodeAddress(next)

	if _, err := s.file.Seek(int64(off), io.SeekStart); err != nil {
		return fmt.Errorf("seek address at %d: %w", off, err)
	}

	if _, err := s.file.Write(b[:]); err != nil {
		return fmt.Errorf("write address at %d: %w", off, err)
	}

	return nil
}

// readKeyAt reads the key stored at off, given its already-decoded
// address.
func (s *Store) readKeyAt(off offset, a address) ([]byte, error) {
	buf := make([]byte, a.keyLen)
	if len(buf) == 0 {
		return buf, nil
	}

	if _, err := s.file.Seek(int64(off)+addressLen, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek key at %d: %v", ErrCorrupt, off, err)
	}

	if _, err := io.ReadFull(s.file, buf); err != nil {
		return nil, fmt.Errorf("%w: read key at %d: %v", ErrCorrupt, off, err)
	}

	return buf, nil
}

// readValueAt reads the value stored at off, given its already-decoded
// address.
func (s *Store) readValueAt(off offset, a address) ([]byte, error) {
	buf := make([]byte, a.valueLen)
	if len(buf) == 0 {
		return buf, nil
	}

	pos := int64(off) + a.valueOffset()

	if _, err := s.file.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek value at %d: %v", ErrCorrupt, off, err)
	}

	if _, err := io.ReadFull(s.file, buf); err != nil {
		return nil, fmt.Errorf("%w: read value at %d: %v", ErrCorrupt, off, err)
	}

	return buf, nil
}

// newRecord describes a record to allocate at EOF.
type newRecord struct {
	typ       recordType
	key       []byte
	value     []byte
	maxValue  uint32
	chainNext offset
	listNext  offset
	listPrev  offset
	listEnd   offset
}

// writeNewRecord appends a fresh record to the end of the file and
// returns its offset. The value region is zero-padded out to maxValue
// bytes so the next allocation's offset is deterministic.
func (s *Store) writeNewRecord(r newRecord) (offset, error) {
	end, err := s.fileSize()
	if err != nil {
		return 0, fmt.Errorf("locate eof: %w", err)
	}

	a := address{
		typ:         r.typ,
		chainNext:   r.chainNext,
		listNext:    r.listNext,
		listPrev:    r.listPrev,
		listEnd:     r.listEnd,
		keyLen:      uint16(len(r.key)),
		valueLen:    uint32(len(r.value)),
		maxKeyLen:   uint16(len(r.key)),
		maxValueLen: r.maxValue,
	}

	buf := make([]byte, a.totalSize())
	ab := encodeAddress(a)
	copy(buf, ab[:])
	copy(buf[addressLen:], r.key)
	copy(buf[int64(addressLen)+int64(a.maxKeyLen):], r.value)

	if _, err := s.file.Seek(end, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek eof: %w", err)
	}

	if _, err := s.file.Write(buf); err != nil {
		return 0, fmt.Errorf("write new record: %w", err)
	}

	return offset(end), nil
}

// writeValueInPlace rewrites a record's value in place when it fits
// within the existing value band, updating only value_len and the live
// value bytes. Slack beyond the new value_len is left undisturbed.
func (s *Store) writeValueInPlace(off offset, a address, value []byte) error {
	newLen := uint32(len(value))

	if err := s.patchAddress(off, addressPatch{valueLen: &newLen}); err != nil {
		return err
	}

	if len(value) == 0 {
		return nil
	}

	pos := int64(off) + a.valueOffset()

	if _, err := s.file.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seek value at %d: %w", off, err)
	}

	if _, err := s.file.Write(value); err != nil {
		return fmt.Errorf("write value at %d: %w", off, err)
	}

	return nil
}

// maybeTruncateRecord shrinks the file if the record at off, with the
// given (pre-removal) address, sits exactly at EOF. Safe to call only
// after every pointer that referenced this record has been rerouted
// elsewhere.
func (s *Store) maybeTruncateRecord(off offset, a address) error {
	size, err := s.fileSize()
	if err != nil {
		return err
	}

	if int64(off)+a.totalSize() != size {
		return nil
	}

	return s.file.Truncate(int64(off))
}
