package filestore

// putString writes key/value as a string record: slot empty -> new
// head; no match -> append to
// chain; match on a string -> in-place update or re-home at EOF; match on
// a list -> the whole list is torn down first and replaced by the string
// (put_string always yields a string, regardless of the prior type).
func (s *Store) putString(key, value []byte) error {
	slotOff := s.slotOffset(key)

	found, last, err := s.walkChain(slotOff, key)
	if err != nil {
		return err
	}

	switch {
	case found == nil && last == nil:
		off, err := s.writeNewRecord(newRecord{typ: typeString, key: key, value: value, maxValue: band(len(value))})
		if err != nil {
			return err
		}

		if err := s.writeSlot(slotOff, off); err != nil {
			return err
		}

		return s.incRefCount()

	case found == nil:
		off, err := s.writeNewRecord(newRecord{typ: typeString, key: key, value: value, maxValue: band(len(value))})
		if err != nil {
			return err
		}

		if err := s.patchAddress(last.offset, addressPatch{chainNext: setPtr(off)}); err != nil {
			return err
		}

		return s.incRefCount()
	}

	a := found.addr

	if a.typ == typeList {
		if err := s.deallocateList(a); err != nil {
			return err
		}

		off, err := s.writeNewRecord(newRecord{typ: typeString, key: key, value: value, maxValue: band(len(value)), chainNext: a.chainNext})
		if err != nil {
			return err
		}

		if err := s.setChainPointer(slotOff, found.prevOffset, off); err != nil {
			return err
		}

		return s.incRefCount()
	}

	if uint32(len(value)) <= a.maxValueLen {
		return s.writeValueInPlace(found.offset, a, value)
	}

	off, err := s.writeNewRecord(newRecord{typ: typeString, key: key, value: value, maxValue: band(len(value)), chainNext: a.chainNext})
	if err != nil {
		return err
	}

	if err := s.setChainPointer(slotOff, found.prevOffset, off); err != nil {
		return err
	}

	return s.maybeTruncateRecord(found.offset, a)
}

// getString returns the string value for key. It returns ErrNotFound if
// the key is absent, or if it currently holds a list.
func (s *Store) getString(key []byte) ([]byte, error) {
	slotOff := s.slotOffset(key)

	found, _, err := s.walkChain(slotOff, key)
	if err != nil {
		return nil, err
	}

	if found == nil || found.addr.typ != typeString {
		return nil, ErrNotFound
	}

	return s.readValueAt(found.offset, found.addr)
}

// removeString deletes key's string record. It is a no-op (ErrNotFound)
// if the key is absent or currently holds a list.
func (s *Store) removeString(key []byte) error {
	_, err := s.fetchRemoveString(key)

	return err
}

// fetchRemoveString deletes key's string record and returns its old
// value.
func (s *Store) fetchRemoveString(key []byte) ([]byte, error) {
	slotOff := s.slotOffset(key)

	found, _, err := s.walkChain(slotOff, key)
	if err != nil {
		return nil, err
	}

	if found == nil || found.addr.typ != typeString {
		return nil, ErrNotFound
	}

	value, err := s.readValueAt(found.offset, found.addr)
	if err != nil {
		return nil, err
	}

	if err := s.setChainPointer(slotOff, found.prevOffset, found.addr.chainNext); err != nil {
		return nil, err
	}

	if err := s.decRefCount(); err != nil {
		return nil, err
	}

	if err := s.maybeTruncateRecord(found.offset, found.addr); err != nil {
		return nil, err
	}

	return value, nil
}

// deallocateList walks every node of the list rooted at headAddr and
// decrements the live-record count once per node. Used when a key
// holding a list is overwritten by put_string: the whole list is torn
// down first, then replaced by the string record.
func (s *Store) deallocateList(headAddr address) error {
	a := headAddr

	for {
		next := a.listNext

		if err := s.decRefCount(); err != nil {
			return err
		}

		if next.isNone() {
			return nil
		}

		nextAddr, err := s.readAddressAt(next)
		if err != nil {
			return err
		}

		a = nextAddr
	}
}
