package adb

import (
	"encoding/binary"
	"errors"
)

// BlockType is the 2-bit type carried by a block header's top bits.
type BlockType uint8

const (
	BlockADB     BlockType = 0
	BlockSIG     BlockType = 1
	BlockData    BlockType = 2
	blockReserved BlockType = 3

	// blockEOF is never encoded on the wire; Transform uses it to signal
	// end-of-stream to its callback.
	blockEOF BlockType = 0xFF
)

const (
	blockHeaderSize = 4
	blockAlignment  = 8
)

func makeBlockHeader(t BlockType, length uint32) uint32 {
	return uint32(t)<<30 | (length & 0x3FFFFFFF)
}

func blockType(h uint32) BlockType { return BlockType(h >> 30) }
func blockLength(h uint32) uint32  { return h & 0x3FFFFFFF }

func blockPadding(length uint32) int {
	return int((blockAlignment - (length % blockAlignment)) % blockAlignment)
}

func blockSize(length uint32) int {
	return blockHeaderSize + int(length) + blockPadding(length)
}

// Block is one decoded frame from a content slab: its type and its
// payload (exactly Length bytes, padding excluded).
type Block struct {
	Type    BlockType
	Payload []byte
}

var errEndOfBlocks = errors.New("adb: end of block stream")

// decodeBlockAt validates and decodes the block starting at pos in b.
// It returns errEndOfBlocks when pos is exactly len(b), and a
// BAD_MESSAGE *Error for any structural violation.
func decodeBlockAt(b []byte, pos int) (Block, int, error) {
	if pos == len(b) {
		return Block{}, 0, errEndOfBlocks
	}
	if len(b)-pos < blockHeaderSize {
		return Block{}, 0, newErr(ErrBadMessage, "truncated block header")
	}
	h := binary.LittleEndian.Uint32(b[pos : pos+4])
	typ := blockType(h)
	if typ == blockReserved {
		return Block{}, 0, newErr(ErrBadMessage, "reserved block type")
	}
	length := blockLength(h)
	sz := blockSize(length)
	if sz > len(b)-pos {
		return Block{}, 0, newErr(ErrBadMessage, "block exceeds buffer")
	}
	payload := b[pos+blockHeaderSize : pos+blockHeaderSize+int(length)]
	return Block{Type: typ, Payload: payload}, sz, nil
}

// IterateBlocks walks every block in b in order, calling fn for each; it
// returns nil at clean end-of-buffer and a BAD_MESSAGE error on the
// first structural violation.
func IterateBlocks(b []byte, fn func(Block) error) error {
	pos := 0
	for {
		blk, stride, err := decodeBlockAt(b, pos)
		if errors.Is(err, errEndOfBlocks) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(blk); err != nil {
			return err
		}
		pos += stride
	}
}
