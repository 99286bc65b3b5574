package adb

import "bytes"

// CompareInt is the stock ScalarSchema.Compare for KindInt fields.
func CompareInt(srcA PayloadSource, a Val, srcB PayloadSource, b Val) int {
	ia, ib := ReadInt(srcA, a), ReadInt(srcB, b)
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	default:
		return 0
	}
}

// CompareBlob is the stock ScalarSchema.Compare for KindBlob fields,
// using lexicographic byte ordering.
func CompareBlob(srcA PayloadSource, a Val, srcB PayloadSource, b Val) int {
	ba, _ := ReadBlob(srcA, a)
	bb, _ := ReadBlob(srcB, b)
	return bytes.Compare(ba, bb)
}

// CompareFieldsInOrder builds an ObjectSchema.Compare that compares two
// objects field by field in declaration order, returning the first
// non-zero result. Most object schemas can use this directly; a schema
// needing a different field precedence should write its own.
func CompareFieldsInOrder(schema *ObjectSchema) func(a, b *Object) int {
	return func(a, b *Object) int {
		for i := 1; i <= len(schema.Fields); i++ {
			if c := fieldCompare(a, b, i); c != 0 {
				return c
			}
		}
		return 0
	}
}

func fieldCompare(a, b *Object, i int) int {
	f := a.Schema.Fields[i-1]
	return compareFieldVals(a.Src, a.Val(i), b.Src, b.Val(i), f)
}

// CompareObjects compares two objects under their (shared) schema.
func CompareObjects(a, b *Object) int {
	return a.Schema.Compare(a, b)
}
