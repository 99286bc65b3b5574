package adb

// Tag identifies the type carried by a Val's top 4 bits.
type Tag uint8

const (
	TagSpecial Tag = 0
	TagInt     Tag = 1
	TagInt32   Tag = 2
	TagInt64   Tag = 3
	TagBlob8   Tag = 4
	TagBlob16  Tag = 5
	TagBlob32  Tag = 6
	TagObject  Tag = 7
	TagArray   Tag = 8
)

const (
	valTagShift     = 28
	valPayloadMask  = 0x0FFFFFFF
	maxImmediateInt = 0x0FFFFFFF
)

// Val is a 32-bit tagged value: the high 4 bits are a Tag, the low 28
// bits are either an immediate payload or an offset into a slab,
// depending on the tag.
type Val uint32

// Null is the all-zero value: tag SPECIAL, payload 0. It doubles as
// "absent field", "empty object/array", and "no value" throughout.
const Null Val = 0

// MakeVal packs a tag and a 28-bit payload into a Val. Callers are
// responsible for keeping payload within range; higher bits are
// silently discarded.
func MakeVal(tag Tag, payload uint32) Val {
	return Val(uint32(tag)<<valTagShift | (payload & valPayloadMask))
}

func (v Val) Tag() Tag { return Tag(v >> valTagShift) }

func (v Val) Payload() uint32 { return uint32(v) & valPayloadMask }

func (v Val) IsNull() bool { return v == Null }
