package adb

import "encoding/binary"

// FileMagic is the 4-byte magic "ADB." stored little-endian at the
// start of every container.
const FileMagic uint32 = 0x2e424441

const fileHeaderSize = 8

// FileHeader is the 8-byte prefix of a TBDB container: magic and the
// schema id the content block is expected to conform to.
type FileHeader struct {
	Magic  uint32
	Schema uint32
}

func (h FileHeader) Encode() []byte {
	b := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Schema)
	return b
}

func DecodeFileHeader(b []byte) (FileHeader, error) {
	if len(b) < fileHeaderSize {
		return FileHeader{}, newErr(ErrBadMessage, "truncated file header")
	}
	h := FileHeader{
		Magic:  binary.LittleEndian.Uint32(b[0:4]),
		Schema: binary.LittleEndian.Uint32(b[4:8]),
	}
	if h.Magic != FileMagic {
		return FileHeader{}, newErr(ErrBadFormat, "bad magic")
	}
	return h, nil
}
