package filestore

// addressLen is the fixed size of an encoded address on disk.
const addressLen = 29

// maxKeyLen is the largest key filestore accepts.
const maxKeyLen = 1024

// recordType distinguishes a string record from a list node. Both head
// and interior list nodes carry this tag and, unlike a description that
// only the head needs a key, every node in a list stores the full key:
// that is what lets pop_head promote an interior node to head in place
// without anywhere to borrow a key from.
type recordType uint8

const (
	typeString recordType = 0
	typeList    recordType = 1
)

// valueBands are the fixed slack sizes a value's storage is rounded up to,
// so an in-place update that doesn't cross a band stays at the same
// offset and never grows the file.
var valueBands = [...]uint32{256, 512, 1024, 4096, 8192}

// band returns the smallest band size that fits n bytes, or n itself if it
// exceeds every band (stored exactly, no slack).
func band(n int) uint32 {
	for _, b := range valueBands {
		if uint32(n) <= b {
			return b
		}
	}

	return uint32(n)
}

// address is the fixed-size record header preceding every key/value pair
// on disk.
type address struct {
	typ        recordType
	chainNext  offset // collision chain; live only on strings and list heads
	listNext   offset // list successor; live only inside a list
	listPrev   offset // list predecessor; live only inside a list
	listEnd    offset // tail of the list; live only on a list head
	keyLen     uint16
	valueLen   uint32
	maxKeyLen  uint16 // always equal to keyLen: keys are never banded
	maxValueLen uint32
}

// totalSize is the number of bytes this record occupies on disk,
// including its unused value slack.
func (a address) totalSize() int64 {
	return addressLen + int64(a.maxKeyLen) + int64(a.maxValueLen)
}

// valueOffset is the byte offset, relative to the record's own start, of
// the value region: the key region is exactly keyLen bytes since keys are
// never banded, so it is also maxKeyLen.
func (a address) valueOffset() int64 {
	return addressLen + int64(a.maxKeyLen)
}

func encodeAddress(a address) [addressLen]byte {
	var b [addressLen]byte

	b[0] = byte(a.typ)
	putUint32(b[1:5], uint32(a.chainNext))
	putUint32(b[5:9], uint32(a.listNext))
	putUint32(b[9:13], uint32(a.listPrev))
	putUint32(b[13:17], uint32(a.listEnd))
	putUint16(b[17:19], a.keyLen)
	putUint32(b[19:23], a.valueLen)
	putUint16(b[23:25], a.maxKeyLen)
	putUint32(b[25:29], a.maxValueLen)

	return b
}

// decodeAddress parses a 29-byte buffer into an address. ok is false when
// every byte is zero, the deserializer's contract for "no record here".
func decodeAddress(b []byte) (a address, ok bool) {
	allZero := true

	for _, c := range b[:addressLen] {
		if c != 0 {
			allZero = false

			break
		}
	}

	if allZero {
		return address{}, false
	}

	a.typ = recordType(b[0])
	a.chainNext = offset(getUint32(b[1:5]))
	a.listNext = offset(getUint32(b[5:9]))
	a.listPrev = offset(getUint32(b[9:13]))
	a.listEnd = offset(getUint32(b[13:17]))
	a.keyLen = getUint16(b[17:19])
	a.valueLen = getUint32(b[19:23])
	a.maxKeyLen = getUint16(b[23:25])
	a.maxValueLen = getUint32(b[25:29])

	return a, true
}

// ptrPatch describes a three-valued update to one pointer field of an
// address already on disk: leave it alone, clear it to none, or set it to
// a specific offset. The zero value is "leave it alone".
type ptrPatch struct {
	touch bool
	value offset
}

func keepPtr() ptrPatch       { return ptrPatch{} }
func clearPtr() ptrPatch      { return ptrPatch{touch: true, value: 0} }
func setPtr(v offset) ptrPatch { return ptrPatch{touch: true, value: v} }

// addressPatch selectively rewrites fields of an address already on disk,
// without touching the key/value bytes that follow it. Every field
// defaults to "leave it alone".
type addressPatch struct {
	typ       *recordType
	chainNext ptrPatch
	listNext  ptrPatch
	listPrev  ptrPatch
	listEnd   ptrPatch
	valueLen  *uint32
}

func (p addressPatch) apply(a address) address {
	if p.typ != nil {
		a.typ = *p.typ
	}

	if p.chainNext.touch {
		a.chainNext = p.chainNext.value
	}

	if p.listNext.touch {
		a.listNext = p.listNext.value
	}

	if p.listPrev.touch {
		a.listPrev = p.listPrev.value
	}

	if p.listEnd.touch {
		a.listEnd = p.listEnd.value
	}

	if p.valueLen != nil {
		a.valueLen = *p.valueLen
	}

	return a
}
