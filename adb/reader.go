package adb

import "tbdb.dev/core/trust"

// Reader is a fully-parsed, read-only database handle backed either by
// a borrowed byte slice (OpenBlob) or a memory mapping (OpenMapped).
type Reader struct {
	Header FileHeader
	slab   []byte
	mm     *mmapping
}

func (r *Reader) Payload() []byte { return r.slab }

// Close unmaps the underlying file, if this Reader owns a mapping.
func (r *Reader) Close() error {
	if r.mm != nil {
		return r.mm.unmap()
	}
	return nil
}

// OpenBlob parses a database from an in-memory, fully-buffered byte
// slice (borrowed, not copied). If t is non-nil, at least one SIG
// block must verify against one of t's trusted keys or parsing fails
// with NO_KEY/KEY_REJECTED.
func OpenBlob(b []byte, expectedSchema uint32, t *trust.Context) (*Reader, error) {
	return parseWhole(b, expectedSchema, t, nil)
}

// OpenMapped memory-maps path read-only and parses it in place;
// Close() unmaps it.
func OpenMapped(path string, expectedSchema uint32, t *trust.Context) (*Reader, error) {
	mm, err := mmapFile(path)
	if err != nil {
		return nil, wrapErr(ErrIO, "mmap", err)
	}
	r, err := parseWhole(mm.data, expectedSchema, t, mm)
	if err != nil {
		_ = mm.unmap()
		return nil, err
	}
	return r, nil
}

func parseWhole(b []byte, expectedSchema uint32, t *trust.Context, mm *mmapping) (*Reader, error) {
	if len(b) < fileHeaderSize {
		return nil, newErr(ErrIO, "file too small for header")
	}
	hdr, err := DecodeFileHeader(b[:fileHeaderSize])
	if err != nil {
		return nil, err
	}
	if expectedSchema != 0 && hdr.Schema != expectedSchema {
		return nil, newErr(ErrBadFormat, "unexpected schema id")
	}

	r := &Reader{Header: hdr, mm: mm}
	body := b[fileHeaderSize:]
	fileHeaderBytes := b[:fileHeaderSize]

	vfy := trust.NewVerifyCache()
	trusted := t == nil
	anyRejected := false

	pos := 0
	for pos < len(body) {
		blk, stride, err := decodeBlockAt(body, pos)
		if err != nil {
			return nil, err
		}
		switch blk.Type {
		case BlockADB:
			if r.slab == nil {
				r.slab = blk.Payload
			}
		case BlockSIG:
			if r.slab != nil && !trusted {
				verr := t.VerifySignature(vfy, fileHeaderBytes, r.slab, blk.Payload)
				switch {
				case verr == nil:
					trusted = true
				case verr == trust.ErrKeyRejected:
					anyRejected = true
				}
			}
		default:
			// DATA and any future block types carry no meaning in a
			// one-shot parse; they are skipped structurally.
		}
		pos += stride
	}

	if r.slab == nil {
		return nil, newErr(ErrBadMessage, "missing content block")
	}
	if !trusted {
		if anyRejected {
			return nil, newErr(ErrKeyRejected, "no trusted key's signature verified")
		}
		return nil, newErr(ErrNoKey, "no signature from a trusted key was found")
	}
	return r, nil
}
