package filestore

import "encoding/binary"

// offset is a file byte offset used as a record pointer. 0 means "none":
// every real record starts at or beyond headerLen, so 0 is never a live
// address.
type offset uint32

func (o offset) isNone() bool { return o == 0 }

func putUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

func getUint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func getUint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
