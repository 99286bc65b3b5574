package adb

import "encoding/binary"

// PayloadSource is anything holding a TBDB content slab: a finalized
// Reader, a StreamReader's buffered content block, or a Writer under
// construction (a schema's Compare hook reads through the Writer itself
// while an array is being sorted, before it is ever committed to disk).
type PayloadSource interface {
	Payload() []byte
}

// Deref resolves offs bytes past v's payload offset for length bytes.
// ok is false if any part of the requested range falls outside the
// slab; callers never get a partial, out-of-bounds slice.
func Deref(src PayloadSource, v Val, offs, length int) (b []byte, ok bool) {
	if offs < 0 || length < 0 {
		return nil, false
	}
	payload := src.Payload()
	start := int(v.Payload()) + offs
	end := start + length
	if start < 0 || end < start || end > len(payload) {
		return nil, false
	}
	return payload[start:end], true
}

// Root returns the trailing val of the slab, or Null if the slab is
// too short to hold one.
func Root(src PayloadSource) Val {
	p := src.Payload()
	if len(p) < 4 {
		return Null
	}
	return Val(binary.LittleEndian.Uint32(p[len(p)-4:]))
}

// ReadInt dispatches on v's tag to recover an unsigned integer. It
// returns 0 for any tag other than INT/INT_32, or on an out-of-range
// deref, rather than raising an error: a malformed integer field reads
// as its zero value.
func ReadInt(src PayloadSource, v Val) uint32 {
	switch v.Tag() {
	case TagInt:
		return v.Payload()
	case TagInt32:
		b, ok := Deref(src, v, 0, 4)
		if !ok {
			return 0
		}
		return binary.LittleEndian.Uint32(b)
	default:
		return 0
	}
}

// ReadBlob dispatches on v's tag to recover a byte string. ok is false
// for any other tag, or when the length prefix or payload falls
// outside the slab.
func ReadBlob(src PayloadSource, v Val) ([]byte, bool) {
	switch v.Tag() {
	case TagBlob8:
		lb, ok := Deref(src, v, 0, 1)
		if !ok {
			return nil, false
		}
		return Deref(src, v, 1, int(lb[0]))
	case TagBlob16:
		lb, ok := Deref(src, v, 0, 2)
		if !ok {
			return nil, false
		}
		return Deref(src, v, 2, int(binary.LittleEndian.Uint16(lb)))
	case TagBlob32:
		lb, ok := Deref(src, v, 0, 4)
		if !ok {
			return nil, false
		}
		return Deref(src, v, 4, int(binary.LittleEndian.Uint32(lb)))
	default:
		return nil, false
	}
}
