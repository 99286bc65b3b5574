package adb

import (
	"encoding/binary"
	"io"

	"tbdb.dev/core/streamio"
	"tbdb.dev/core/trust"
)

func encodeBlockHeader(typ BlockType, length uint32) []byte {
	b := make([]byte, blockHeaderSize)
	binary.LittleEndian.PutUint32(b, makeBlockHeader(typ, length))
	return b
}

// WriteBlock writes one complete, padded block (header + payload) to
// out. Exported so a caller reconstructing a container from already
// fully-buffered blocks (e.g. a signing command re-emitting a parsed
// file's existing blocks) doesn't need to re-derive the header framing.
func WriteBlock(out streamio.OutputStream, typ BlockType, payload []byte) error {
	if _, err := out.Write(encodeBlockHeader(typ, uint32(len(payload)))); err != nil {
		return err
	}
	if _, err := out.Write(payload); err != nil {
		return err
	}
	if pad := blockPadding(uint32(len(payload))); pad > 0 {
		if _, err := out.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

func writeBlock(out streamio.OutputStream, typ BlockType, payload []byte) error {
	return WriteBlock(out, typ, payload)
}

// writeBlockStreamed writes a block's header and then streams length
// bytes from body without buffering them all at once.
func writeBlockStreamed(out streamio.OutputStream, typ BlockType, length uint32, body io.Reader) error {
	if _, err := out.Write(encodeBlockHeader(typ, length)); err != nil {
		return err
	}
	if _, err := io.CopyN(out, body, int64(length)); err != nil {
		return err
	}
	if pad := blockPadding(length); pad > 0 {
		if _, err := out.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

// Serialize writes w's committed slab as a complete container: file
// header, one content block, and (if tc holds any private keys) one
// signature block per key.
func Serialize(out streamio.OutputStream, w *Writer, tc *trust.Context) error {
	if w.poisoned != nil {
		out.Cancel(w.poisoned)
		return w.poisoned
	}
	if w.Header.Magic != FileMagic {
		err := newErr(ErrBadFormat, "writer has no valid header")
		out.Cancel(err)
		return err
	}
	hdrBytes := w.Header.Encode()
	if _, err := out.Write(hdrBytes); err != nil {
		out.Cancel(err)
		return err
	}
	if err := writeBlock(out, BlockADB, w.buf); err != nil {
		out.Cancel(err)
		return err
	}
	if tc != nil {
		sigs, err := tc.Sign(hdrBytes, w.buf)
		if err != nil {
			out.Cancel(err)
			return wrapErr(ErrIO, "signing content block", err)
		}
		for _, sig := range sigs {
			if err := writeBlock(out, BlockSIG, sig); err != nil {
				out.Cancel(err)
				return err
			}
		}
	}
	return out.Close()
}

// TransformCtx is handed to a TransformFunc so it can read ahead on
// the source stream or write extra blocks of its own.
type TransformCtx struct {
	In  streamio.InputStream
	Out streamio.OutputStream
}

// TransformFunc inspects (and may rewrite) one block. header is the
// raw 4-byte block header; typ is blockEOF with header and body nil
// exactly once, after the last real block, so a callback can append
// trailing blocks (e.g. a fresh signature) before the container closes.
// Returning consumed == false asks the framework to copy the block
// through verbatim; consumed == true means the callback already wrote
// whatever it wanted to ctx.Out for this block (including "nothing",
// to drop it).
type TransformFunc func(ctx *TransformCtx, typ BlockType, header []byte, body streamio.InputStream) (consumed bool, err error)

// Transform re-serializes a container block by block, letting cb
// rewrite, drop, or pass through each one without a full parse. It is
// the streaming equivalent of loading a Reader, mutating it, and
// calling Serialize again.
func Transform(in streamio.InputStream, out streamio.OutputStream, cb TransformFunc) error {
	hdrBytes, err := in.Get(fileHeaderSize)
	if err != nil {
		return wrapErr(ErrBadMessage, "truncated file header", err)
	}
	if _, err := DecodeFileHeader(hdrBytes); err != nil {
		out.Cancel(err)
		return err
	}
	if _, err := out.Write(hdrBytes); err != nil {
		out.Cancel(err)
		return err
	}

	ctx := &TransformCtx{In: in, Out: out}
	blockNo := 0
	for {
		hb, err := in.Get(blockHeaderSize)
		if err != nil {
			_, cerr := cb(ctx, blockEOF, nil, nil)
			if cerr != nil {
				out.Cancel(cerr)
				return cerr
			}
			return out.Close()
		}
		h := binary.LittleEndian.Uint32(hb)
		typ := blockType(h)
		if typ == blockReserved {
			e := newErr(ErrBadMessage, "reserved block type")
			out.Cancel(e)
			return e
		}
		length := blockLength(h)
		if (blockNo == 0) != (typ == BlockADB) {
			e := newErr(ErrBadMessage, "first block must be the content block")
			out.Cancel(e)
			return e
		}
		blockNo++
		padding := blockPadding(length)

		seg := streamio.NewBoundedSegment(in, int(length))
		consumed, err := cb(ctx, typ, hb, seg)
		if err != nil {
			out.Cancel(err)
			return err
		}
		if !consumed {
			if err := writeBlockStreamed(out, typ, length, seg); err != nil {
				out.Cancel(err)
				return err
			}
		} else if err := seg.Close(); err != nil {
			out.Cancel(err)
			return wrapErr(ErrIO, "draining transformed block", err)
		}
		if err := drainPadding(in, padding); err != nil {
			out.Cancel(err)
			return err
		}
	}
}

type digestWriter struct{ d trust.Digester }

func (w digestWriter) Write(p []byte) (int, error) {
	w.d.Write(p)
	return len(p), nil
}

// CopyBlockWithDigest copies one block verbatim from body to out; if d
// is non-nil, the copied bytes are also fed to it, so a caller can
// compute a digest over a block while re-streaming it instead of
// re-parsing the whole container (used when re-signing without a full
// reparse).
func CopyBlockWithDigest(out streamio.OutputStream, typ BlockType, length uint32, body io.Reader, d trust.Digester) error {
	if _, err := out.Write(encodeBlockHeader(typ, length)); err != nil {
		return err
	}
	var w io.Writer = out
	if d != nil {
		w = io.MultiWriter(out, digestWriter{d})
	}
	if _, err := io.CopyN(w, body, int64(length)); err != nil {
		return err
	}
	if pad := blockPadding(length); pad > 0 {
		if _, err := out.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}
