package filestore

import "fmt"

// DumpEntry is one live key found while walking a data file end to end.
// Exactly one of Value or ListValues is meaningful, selected by IsList.
type DumpEntry struct {
	Key        []byte
	IsList     bool
	Value      []byte   // valid when !IsList
	ListValues [][]byte // valid when IsList, head to tail

	// Err is set when the entry could not be read in full (for example, a
	// list node's chain does not terminate within the file). Entries with
	// Err set should be dropped by a caller that is rebuilding the file
	// rather than reporting it.
	Err error
}

// Dump walks every collision chain reachable from the index and returns
// one DumpEntry per live key, tolerating corruption entry by entry: a
// broken chain produces a DumpEntry with Err set rather than aborting the
// whole walk. It does not take s.mu and is meant for a caller, such as a
// repair tool, that owns the Store exclusively.
func (s *Store) Dump() ([]DumpEntry, error) {
	var entries []DumpEntry

	for slotOff := uint32(0); slotOff < s.indexSize; slotOff += 4 {
		absOff := uint32(headerLen) + slotOff

		head, err := s.readSlot(absOff)
		if err != nil {
			return nil, fmt.Errorf("read slot at %d: %w", absOff, err)
		}

		cur := head

		for !cur.isNone() {
			a, err := s.readAddressAt(cur)
			if err != nil {
				entries = append(entries, DumpEntry{Err: err})

				break
			}

			entries = append(entries, s.dumpOne(cur, a))

			cur = a.chainNext
		}
	}

	return entries, nil
}

func (s *Store) dumpOne(off offset, a address) DumpEntry {
	key, err := s.readKeyAt(off, a)
	if err != nil {
		return DumpEntry{Err: err}
	}

	if a.typ == typeString {
		value, err := s.readValueAt(off, a)
		if err != nil {
			return DumpEntry{Err: err}
		}

		return DumpEntry{Key: key, Value: value}
	}

	values, err := s.dumpList(off, a)
	if err != nil {
		return DumpEntry{Err: err}
	}

	return DumpEntry{Key: key, IsList: true, ListValues: values}
}

// dumpList walks a list starting at its head, collecting every node's
// value in head-to-tail order. An empty list (listEnd none on the head)
// yields zero values.
func (s *Store) dumpList(headOff offset, head address) ([][]byte, error) {
	if head.listEnd.isNone() {
		return nil, nil
	}

	var values [][]byte

	cur := headOff
	a := head

	for {
		value, err := s.readValueAt(cur, a)
		if err != nil {
			return nil, err
		}

		values = append(values, value)

		if a.listNext.isNone() {
			break
		}

		next, err := s.readAddressAt(a.listNext)
		if err != nil {
			return nil, err
		}

		cur = a.listNext
		a = next
	}

	return values, nil
}
