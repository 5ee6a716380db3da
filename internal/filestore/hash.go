package filestore

import "hash/fnv"

// fnv1a32 is the fixed hash function used to locate a key's index slot.
// No third-party hash library in the corpus offers FNV-1a-32 over the
// standard library's hash/fnv, so this one case stays on stdlib; see
// DESIGN.md.
func fnv1a32(key []byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write(key) // hash.Hash32 never errors

	return h.Sum32()
}

// slotOffset returns the byte offset of key's index slot.
func (s *Store) slotOffset(key []byte) uint32 {
	slotCount := s.indexSize / 4
	h := fnv1a32(key)

	return headerLen + (h%slotCount)*4
}
