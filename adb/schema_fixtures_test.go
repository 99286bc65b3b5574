package adb

// Shared schema fixtures used across this package's tests: a small
// "package entry" object (name, size) and an array of blobs, standing
// in for the kind of package-manifest metadata this format targets.

var blobScalar = &ScalarSchema{
	Kind:    KindBlob,
	Compare: CompareBlob,
}

var intScalar = &ScalarSchema{
	Kind:    KindInt,
	Compare: CompareInt,
}

func newEntrySchema() *ObjectSchema {
	s := &ObjectSchema{
		Kind: KindObject,
		Cap:  3, // slot 0 + 2 fields
		Fields: []Field{
			{Name: "name", Scalar: blobScalar},
			{Name: "size", Scalar: intScalar},
		},
		GetDefaultInt: func(i int) uint32 {
			if i == 2 {
				return 0
			}
			return 0
		},
	}
	s.Compare = CompareFieldsInOrder(s)
	return s
}

func newTagArraySchema(capHint int) *ObjectSchema {
	s := &ObjectSchema{
		Kind:   KindArray,
		Cap:    capHint + 1,
		Fields: []Field{{Scalar: blobScalar}},
	}
	return s
}
