package filestore

// appendList pushes value onto the tail of key's list. A key currently
// holding a string, or an emptied list
// head (list_end == 0), is reinitialized: a fresh head is written at EOF
// and the old record is abandoned, preserving the chain position.
func (s *Store) appendList(key, value []byte) error {
	slotOff := s.slotOffset(key)

	found, last, err := s.walkChain(slotOff, key)
	if err != nil {
		return err
	}

	if found == nil {
		return s.newListHead(slotOff, last, key, value)
	}

	a := found.addr

	if a.typ == typeList && !a.listEnd.isNone() {
		oldTail := a.listEnd

		newTail, err := s.writeNewRecord(newRecord{
			typ: typeList, key: key, value: value, maxValue: band(len(value)),
			listPrev: oldTail,
		})
		if err != nil {
			return err
		}

		if err := s.patchAddress(oldTail, addressPatch{listNext: setPtr(newTail)}); err != nil {
			return err
		}

		if err := s.patchAddress(found.offset, addressPatch{listEnd: setPtr(newTail)}); err != nil {
			return err
		}

		return s.incRefCount()
	}

	return s.reinitListHead(slotOff, found, key, value)
}

// prependList pushes value onto the head of key's list, symmetric to
// append.
func (s *Store) prependList(key, value []byte) error {
	slotOff := s.slotOffset(key)

	found, last, err := s.walkChain(slotOff, key)
	if err != nil {
		return err
	}

	if found == nil {
		return s.newListHead(slotOff, last, key, value)
	}

	a := found.addr

	if a.typ == typeList && !a.listEnd.isNone() {
		newHead, err := s.writeNewRecord(newRecord{
			typ: typeList, key: key, value: value, maxValue: band(len(value)),
			listNext:  found.offset,
			listEnd:   a.listEnd,
			chainNext: a.chainNext,
		})
		if err != nil {
			return err
		}

		if err := s.patchAddress(found.offset, addressPatch{
			listPrev:  setPtr(newHead),
			listEnd:   clearPtr(),
			chainNext: clearPtr(),
		}); err != nil {
			return err
		}

		if err := s.setChainPointer(slotOff, found.prevOffset, newHead); err != nil {
			return err
		}

		return s.incRefCount()
	}

	return s.reinitListHead(slotOff, found, key, value)
}

// newListHead creates key's very first list node: a singleton head that
// is its own tail.
func (s *Store) newListHead(slotOff uint32, last *chainEntry, key, value []byte) error {
	off, err := s.writeNewRecord(newRecord{typ: typeList, key: key, value: value, maxValue: band(len(value))})
	if err != nil {
		return err
	}

	if err := s.patchAddress(off, addressPatch{listEnd: setPtr(off)}); err != nil {
		return err
	}

	if last == nil {
		if err := s.writeSlot(slotOff, off); err != nil {
			return err
		}
	} else if err := s.patchAddress(last.offset, addressPatch{chainNext: setPtr(off)}); err != nil {
		return err
	}

	return s.incRefCount()
}

// reinitListHead replaces the matched record (a string, or a list whose
// list_end is 0) with a brand-new singleton list head at EOF holding
// value, preserving the chain position. The old record is abandoned: one
// inc_ref_count for the new head, then one dec_ref_count for the old
// record, in that order so the count never touches zero (which would
// truncate the file) while the new head is live.
func (s *Store) reinitListHead(slotOff uint32, found *chainEntry, key, value []byte) error {
	off, err := s.writeNewRecord(newRecord{
		typ: typeList, key: key, value: value, maxValue: band(len(value)),
		chainNext: found.addr.chainNext,
	})
	if err != nil {
		return err
	}

	if err := s.patchAddress(off, addressPatch{listEnd: setPtr(off)}); err != nil {
		return err
	}

	if err := s.setChainPointer(slotOff, found.prevOffset, off); err != nil {
		return err
	}

	if err := s.incRefCount(); err != nil {
		return err
	}

	return s.decRefCount()
}

// popTail removes and returns the last element of key's list. Returns
// ErrNotFound if key holds no list, or holds an empty one. On a
// singleton list, the head stays alive as an empty list (list_end
// cleared) rather than being removed; see DESIGN.md.
func (s *Store) popTail(key []byte) ([]byte, error) {
	slotOff := s.slotOffset(key)

	found, _, err := s.walkChain(slotOff, key)
	if err != nil {
		return nil, err
	}

	if found == nil || found.addr.typ != typeList || found.addr.listEnd.isNone() {
		return nil, ErrNotFound
	}

	tailOff := found.addr.listEnd

	tailAddr, err := s.readAddressAt(tailOff)
	if err != nil {
		return nil, err
	}

	value, err := s.readValueAt(tailOff, tailAddr)
	if err != nil {
		return nil, err
	}

	if tailOff == found.offset {
		if err := s.patchAddress(found.offset, addressPatch{listEnd: clearPtr()}); err != nil {
			return nil, err
		}

		// The head stays a live record (now an empty list), so ref_count
		// is unchanged.
		return value, nil
	}

	prevOfTail := tailAddr.listPrev

	if err := s.patchAddress(prevOfTail, addressPatch{listNext: clearPtr()}); err != nil {
		return nil, err
	}

	if err := s.patchAddress(found.offset, addressPatch{listEnd: setPtr(prevOfTail)}); err != nil {
		return nil, err
	}

	if err := s.decRefCount(); err != nil {
		return nil, err
	}

	if err := s.maybeTruncateRecord(tailOff, tailAddr); err != nil {
		return nil, err
	}

	return value, nil
}

// popHead removes and returns the first element of key's list. Returns
// ErrNotFound if key holds no list, or holds an empty one. Unlike
// popTail, a singleton list's head record is fully removed: rerouting the
// slot/chain pointer away from it (to chain_next, or to none), so popping
// every element this way eventually truncates the file to empty.
func (s *Store) popHead(key []byte) ([]byte, error) {
	slotOff := s.slotOffset(key)

	found, _, err := s.walkChain(slotOff, key)
	if err != nil {
		return nil, err
	}

	if found == nil || found.addr.typ != typeList || found.addr.listEnd.isNone() {
		return nil, ErrNotFound
	}

	headOff := found.offset
	headAddr := found.addr

	value, err := s.readValueAt(headOff, headAddr)
	if err != nil {
		return nil, err
	}

	if !headAddr.listNext.isNone() {
		successor := headAddr.listNext

		if err := s.patchAddress(successor, addressPatch{
			listPrev:  clearPtr(),
			listEnd:   setPtr(headAddr.listEnd),
			chainNext: setPtr(headAddr.chainNext),
		}); err != nil {
			return nil, err
		}

		if err := s.setChainPointer(slotOff, found.prevOffset, successor); err != nil {
			return nil, err
		}
	} else if err := s.setChainPointer(slotOff, found.prevOffset, headAddr.chainNext); err != nil {
		return nil, err
	}

	if err := s.decRefCount(); err != nil {
		return nil, err
	}

	if err := s.maybeTruncateRecord(headOff, headAddr); err != nil {
		return nil, err
	}

	return value, nil
}
