package adb

import "encoding/binary"

// maxCopyEntries bounds the size of a single object/array table this
// package will rebuild during a cross-database copy. TOO_BIG is
// returned once the copied table would exceed it.
const maxCopyEntries = 512

// CopyVal copies v, which lives in src, into dst, rebuilding any
// referenced object/array tables entry by entry and rewriting blob and
// INT_32 payloads through dst's own dedup store. Null and immediate
// INT values are returned unchanged without touching dst at all.
func CopyVal(dst *Writer, src PayloadSource, v Val) (Val, error) {
	if dst.poisoned != nil {
		return Null, dst.poisoned
	}
	if w, ok := src.(*Writer); ok && w == dst {
		return v, nil
	}

	switch v.Tag() {
	case TagSpecial, TagInt:
		return v, nil

	case TagInt32:
		b, ok := Deref(src, v, 0, 4)
		if !ok {
			return Null, dst.poison(newErr(ErrBadFormat, "int32 deref out of range"))
		}
		off, err := dst.intern([][]byte{b}, 4)
		if err != nil {
			return Null, dst.poison(err)
		}
		return MakeVal(TagInt32, uint32(off)), nil

	case TagBlob8:
		return copyBlob(dst, src, v, 1, 1, TagBlob8)
	case TagBlob16:
		return copyBlob(dst, src, v, 2, 2, TagBlob16)
	case TagBlob32:
		return copyBlob(dst, src, v, 4, 4, TagBlob32)

	case TagObject, TagArray:
		obj := ReadObject(src, v, nil)
		if obj.Num > maxCopyEntries {
			return Null, dst.poison(newErr(ErrTooBig, "object too large to copy"))
		}
		out := make([]Val, obj.Num)
		if obj.Num > 0 {
			out[0] = obj.Entries[0]
		}
		for i := 1; i < int(obj.Num); i++ {
			cv, err := CopyVal(dst, src, obj.Entries[i])
			if err != nil {
				return Null, err
			}
			out[i] = cv
		}
		table := make([]byte, len(out)*4)
		for i, e := range out {
			binary.LittleEndian.PutUint32(table[i*4:i*4+4], uint32(e))
		}
		off, err := dst.intern([][]byte{table}, 4)
		if err != nil {
			return Null, dst.poison(err)
		}
		return MakeVal(v.Tag(), uint32(off)), nil

	default:
		return Null, dst.poison(newErr(ErrUnsupported, "unknown value tag"))
	}
}

// copyBlob re-reads a length-prefixed blob using a header of
// headerLen bytes and copies it through dst's dedup store at the
// given alignment.
func copyBlob(dst *Writer, src PayloadSource, v Val, headerLen, alignment int, tag Tag) (Val, error) {
	lb, ok := Deref(src, v, 0, headerLen)
	if !ok {
		return Null, dst.poison(newErr(ErrBadFormat, "blob header deref out of range"))
	}
	var n int
	switch headerLen {
	case 1:
		n = int(lb[0])
	case 2:
		n = int(binary.LittleEndian.Uint16(lb))
	case 4:
		n = int(binary.LittleEndian.Uint32(lb))
	}
	whole, ok := Deref(src, v, 0, headerLen+n)
	if !ok {
		return Null, dst.poison(newErr(ErrBadFormat, "blob payload deref out of range"))
	}
	off, err := dst.intern([][]byte{whole}, alignment)
	if err != nil {
		return Null, dst.poison(err)
	}
	return MakeVal(tag, uint32(off)), nil
}
