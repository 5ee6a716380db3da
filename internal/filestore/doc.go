// Package filestore implements the single-file persistent key/value
// backend: a self-contained on-disk hash table supporting string
// put/get/remove and list append/prepend/pop-tail/pop-head, with O(1)
// expected complexity per operation under a single-writer advisory lock.
//
// # File format
//
// The file is little-endian throughout:
//
//	offset 0:                  header (8 bytes): index_size, ref_count
//	offset 8:                  index region (index_size bytes of u32 slot offsets)
//	offset 8 + index_size ...: heap of variable-length records
//
// Every record is a 29-byte address (type + four linkage pointers + length
// fields) followed by max_key_len + max_value_len bytes of key and value,
// of which only the first key_len/value_len bytes are live. A 32-bit
// pointer field of 0 means "none" — safe because every real offset is at
// least 8 (the header size).
//
// Keys collide into the same index slot and thread through a singly
// linked chain (address.chain_next). Lists are doubly linked
// (list_next/list_prev) with only the head tracking the tail
// (list_end) and carrying a live chain_next.
//
// # Concurrency
//
// One process-local [sync.Mutex] serializes every operation on a [Store].
// An OS advisory exclusive lock (flock) is held for the lifetime of the
// open file, rejecting a second process. Every mutating call ends with an
// fsync of the data file before returning.
package filestore
