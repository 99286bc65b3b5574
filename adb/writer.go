package adb

import "encoding/binary"

// initialCapacity is the slab's first allocation size; capacity doubles
// from there as content is appended.
const initialCapacity = 8192

type bucketEntry struct {
	hash   uint32
	length uint32
	offset uint32
}

// Writer is a build-then-commit TBDB handle. In dynamic mode it grows
// its slab by doubling and deduplicates every interned value through a
// hash-bucket chain; in static mode it writes into a fixed-size buffer
// with no deduplication, for small fixed-layout scratch uses such as a
// signature prefix.
type Writer struct {
	Header FileHeader

	buf    []byte
	chains [][]bucketEntry // len == numBuckets; nil in static/uninterned mode
	static bool

	poisoned error
}

// NewDynamicWriter allocates a growable, deduplicating writer for the
// given schema id. numBuckets must be at least 1.
func NewDynamicWriter(schema uint32, numBuckets int) *Writer {
	if numBuckets < 1 {
		numBuckets = 1
	}
	return &Writer{
		Header: FileHeader{Magic: FileMagic, Schema: schema},
		chains: make([][]bucketEntry, numBuckets),
	}
}

// NewStaticWriter wraps a fixed-capacity buffer with no deduplication
// and no growth past cap(buf).
func NewStaticWriter(schema uint32, buf []byte) *Writer {
	return &Writer{
		Header: FileHeader{Magic: FileMagic, Schema: schema},
		buf:    buf[:0],
		static: true,
	}
}

func (w *Writer) Payload() []byte { return w.buf }
func (w *Writer) Len() int        { return len(w.buf) }
func (w *Writer) Err() error      { return w.poisoned }

// poison records the first error a writer encounters; once poisoned, a
// writer's magic is cleared and every subsequent write fails fast with
// the same error.
func (w *Writer) poison(err error) error {
	if w.poisoned == nil {
		w.poisoned = err
		w.Header.Magic = 0
	}
	return err
}

// Reset clears a writer back to empty so it can be reused; bucket
// chain capacity (if any) is kept, only their contents drop.
func (w *Writer) Reset() {
	for i := range w.chains {
		w.chains[i] = w.chains[i][:0]
	}
	w.buf = w.buf[:0]
	w.poisoned = nil
	w.Header.Magic = FileMagic
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}

func (w *Writer) ensure(extra int) error {
	need := len(w.buf) + extra
	if need <= cap(w.buf) {
		return nil
	}
	if w.static {
		return newErr(ErrTooBig, "static buffer exhausted")
	}
	newCap := cap(w.buf)
	if newCap == 0 {
		newCap = initialCapacity
	}
	for newCap < need {
		newCap *= 2
	}
	nb := make([]byte, len(w.buf), newCap)
	copy(nb, w.buf)
	w.buf = nb
	return nil
}

// rawAppend aligns the slab to alignment, then appends the
// concatenation of segments (total bytes), returning the aligned
// offset the data now lives at.
func (w *Writer) rawAppend(segments [][]byte, total int, alignment int) (int, error) {
	pad := roundUp(len(w.buf), alignment) - len(w.buf)
	if pad > 0 {
		if err := w.ensure(pad); err != nil {
			return 0, err
		}
		w.buf = append(w.buf, make([]byte, pad)...)
	}
	if err := w.ensure(total); err != nil {
		return 0, err
	}
	offset := len(w.buf)
	for _, s := range segments {
		w.buf = append(w.buf, s...)
	}
	return offset, nil
}

func sumLens(segments [][]byte) int {
	n := 0
	for _, s := range segments {
		n += len(s)
	}
	return n
}

// djbHash computes the DJB 33x hash over the concatenation of segments.
func djbHash(segments [][]byte) uint32 {
	h := uint32(5381)
	for _, s := range segments {
		for _, b := range s {
			h = h*33 + uint32(b)
		}
	}
	return h
}

func segmentsEqual(segments [][]byte, b []byte) bool {
	pos := 0
	for _, s := range segments {
		if pos+len(s) > len(b) {
			return false
		}
		for i, c := range s {
			if b[pos+i] != c {
				return false
			}
		}
		pos += len(s)
	}
	return pos == len(b)
}

// intern writes segments through the dedup store and returns the
// resulting offset, or (in static/uninterned mode) appends them
// unconditionally. A bucket hit whose stored offset doesn't satisfy
// alignment is treated as a miss and scanning continues down the
// chain, rather than failing the lookup outright.
func (w *Writer) intern(segments [][]byte, alignment int) (int, error) {
	if w.poisoned != nil {
		return 0, w.poisoned
	}
	if len(w.chains) == 0 {
		off, err := w.rawAppend(segments, sumLens(segments), alignment)
		if err != nil {
			return 0, w.poison(err)
		}
		return off, nil
	}

	length := sumLens(segments)
	hash := djbHash(segments)
	bucket := int(hash) % len(w.chains)
	chain := w.chains[bucket]
	for _, e := range chain {
		if e.hash != hash || int(e.length) != length {
			continue
		}
		if int(e.offset)+length > len(w.buf) {
			continue
		}
		if !segmentsEqual(segments, w.buf[e.offset:int(e.offset)+length]) {
			continue
		}
		if int(e.offset)%alignment != 0 {
			continue
		}
		return int(e.offset), nil
	}

	off, err := w.rawAppend(segments, length, alignment)
	if err != nil {
		return 0, w.poison(err)
	}
	w.chains[bucket] = append(chain, bucketEntry{hash: hash, length: uint32(length), offset: uint32(off)})
	return off, nil
}

// WriteInt writes an integer, using the 28-bit immediate form when it
// fits and an interned INT_32 word otherwise.
func (w *Writer) WriteInt(v uint32) Val {
	if w.poisoned != nil {
		return Null
	}
	if v > maxImmediateInt {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		off, err := w.intern([][]byte{b}, 4)
		if err != nil {
			return Null
		}
		return MakeVal(TagInt32, uint32(off))
	}
	return MakeVal(TagInt, v)
}

// WriteBlob writes a length-prefixed byte string, choosing the
// narrowest of BLOB_8/BLOB_16/BLOB_32 that fits len(b). An empty blob
// writes as Null.
func (w *Writer) WriteBlob(b []byte) Val {
	if w.poisoned != nil {
		return Null
	}
	n := len(b)
	if n == 0 {
		return Null
	}
	var lenBytes []byte
	var tag Tag
	var alignment int
	switch {
	case n > 0xFFFF:
		lenBytes = make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBytes, uint32(n))
		tag, alignment = TagBlob32, 4
	case n > 0xFF:
		lenBytes = make([]byte, 2)
		binary.LittleEndian.PutUint16(lenBytes, uint16(n))
		tag, alignment = TagBlob16, 2
	default:
		lenBytes = []byte{byte(n)}
		tag, alignment = TagBlob8, 1
	}
	off, err := w.intern([][]byte{lenBytes, b}, alignment)
	if err != nil {
		return Null
	}
	return MakeVal(tag, uint32(off))
}

// WriteRoot appends v as the slab's trailing word. It is written raw
// and never deduplicated: a root value is referenced exactly once, so
// there is nothing to gain by interning it.
func (w *Writer) WriteRoot(v Val) error {
	if w.poisoned != nil {
		return w.poisoned
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	if _, err := w.rawAppend([][]byte{b}, 4, 4); err != nil {
		return w.poison(err)
	}
	return nil
}
