package adb

import (
	"encoding/binary"
	"errors"
	"io"

	"tbdb.dev/core/streamio"
	"tbdb.dev/core/trust"
)

// DataCallback handles one DATA block as it streams by, without the
// whole block ever being buffered in memory. It must read (or
// deliberately discard) data before returning; any bytes it leaves
// unread are drained automatically.
type DataCallback func(sr *StreamReader, length int, body streamio.InputStream) error

// StreamReader is the incremental counterpart to Reader: it consumes
// an InputStream block by block (Start -> HaveADB -> Trusted), buffers
// only the single content block, and hands DATA blocks to a callback
// as bounded sub-streams.
type StreamReader struct {
	Header FileHeader
	adb    []byte
}

func (sr *StreamReader) Payload() []byte { return sr.adb }

// ReadStream drives the state machine to completion. If t is non-nil,
// parsing fails with NO_KEY/KEY_REJECTED unless a SIG block verifies
// against a trusted key before end of stream; DATA blocks are refused
// with NO_KEY if they arrive before that point.
func ReadStream(is streamio.InputStream, expectedSchema uint32, t *trust.Context, cb DataCallback) (*StreamReader, error) {
	hdrBytes, err := is.Get(fileHeaderSize)
	if err != nil {
		return nil, wrapErr(ErrBadMessage, "truncated file header", err)
	}
	hdr, err := DecodeFileHeader(hdrBytes)
	if err != nil {
		return nil, err
	}
	if expectedSchema != 0 && hdr.Schema != expectedSchema {
		return nil, newErr(ErrBadFormat, "unexpected schema id")
	}

	sr := &StreamReader{Header: hdr}
	vfy := trust.NewVerifyCache()
	trusted := t == nil
	anyRejected := false
	blockNo := 0

	for {
		hb, err := is.Get(blockHeaderSize)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if sr.adb == nil {
				return nil, newErr(ErrBadMessage, "stream ended before a content block")
			}
			if !trusted {
				if anyRejected {
					return nil, newErr(ErrKeyRejected, "no trusted key's signature verified")
				}
				return nil, newErr(ErrNoKey, "stream ended before a trusted signature")
			}
			return sr, nil
		}
		if err != nil {
			return nil, wrapErr(ErrIO, "reading block header", err)
		}
		h := binary.LittleEndian.Uint32(hb)
		typ := blockType(h)
		if typ == blockReserved {
			return nil, newErr(ErrBadMessage, "reserved block type")
		}
		length := blockLength(h)
		if (blockNo == 0) != (typ == BlockADB) {
			return nil, newErr(ErrBadMessage, "first block must be the content block")
		}
		blockNo++
		padding := blockPadding(length)

		switch typ {
		case BlockADB:
			if sr.adb != nil {
				return nil, newErr(ErrBadMessage, "duplicate content block")
			}
			payload, err := is.Get(int(length))
			if err != nil {
				return nil, wrapErr(ErrBadMessage, "truncated content block", err)
			}
			sr.adb = append([]byte(nil), payload...)
			if err := drainPadding(is, padding); err != nil {
				return nil, err
			}

		case BlockSIG:
			if sr.adb == nil {
				return nil, newErr(ErrBadMessage, "signature block before content block")
			}
			payload, err := is.Get(int(length))
			if err != nil {
				return nil, wrapErr(ErrBadMessage, "truncated signature block", err)
			}
			if !trusted {
				verr := t.VerifySignature(vfy, hdrBytes, sr.adb, payload)
				switch {
				case verr == nil:
					trusted = true
				case verr == trust.ErrKeyRejected:
					anyRejected = true
				}
			}
			if err := drainPadding(is, padding); err != nil {
				return nil, err
			}

		case BlockData:
			if sr.adb == nil {
				return nil, newErr(ErrBadMessage, "data block before content block")
			}
			if !trusted {
				return nil, newErr(ErrNoKey, "data block arrived before a trusted signature")
			}
			seg := streamio.NewBoundedSegment(is, int(length))
			if cb != nil {
				if err := cb(sr, int(length), seg); err != nil {
					return nil, err
				}
			}
			if err := seg.Close(); err != nil {
				return nil, wrapErr(ErrIO, "draining data block", err)
			}
			if err := drainPadding(is, padding); err != nil {
				return nil, err
			}

		default:
			return nil, newErr(ErrBadMessage, "unknown block type")
		}
	}
}

func drainPadding(is streamio.InputStream, n int) error {
	if n == 0 {
		return nil
	}
	if _, err := is.Get(n); err != nil {
		return wrapErr(ErrBadMessage, "truncated block padding", err)
	}
	return nil
}
