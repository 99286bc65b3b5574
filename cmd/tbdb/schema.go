package main

import "tbdb.dev/core/adb"

// entrySchema and packageSchema together describe a small package
// manifest: a sorted array of entries, each holding a name, a version
// string, and a size in bytes. This mirrors the kind of metadata the
// apk-tools ADB format itself carries (an installed-package index),
// scaled down to what this demonstration driver needs.
const (
	fieldName = 1
	fieldVer  = 2
	fieldSize = 3
)

var entryNameScalar = &adb.ScalarSchema{Kind: adb.KindBlob, Compare: adb.CompareBlob}
var entryVerScalar = &adb.ScalarSchema{Kind: adb.KindBlob, Compare: adb.CompareBlob}
var entrySizeScalar = &adb.ScalarSchema{Kind: adb.KindInt, Compare: adb.CompareInt}

func newEntrySchema() *adb.ObjectSchema {
	s := &adb.ObjectSchema{
		Kind: adb.KindObject,
		Cap:  fieldSize + 1,
		Fields: []adb.Field{
			{Name: "name", Scalar: entryNameScalar},
			{Name: "version", Scalar: entryVerScalar},
			{Name: "size", Scalar: entrySizeScalar},
		},
		GetDefaultInt: func(i int) uint32 { return 0 },
	}
	s.Compare = adb.CompareFieldsInOrder(s)
	return s
}

// newPackageSchema returns the array schema for the manifest's root
// value: a sorted, deduplicated array of entries under entrySchema.
func newPackageSchema(capacity int) *adb.ObjectSchema {
	return &adb.ObjectSchema{
		Kind: adb.KindArray,
		Cap:  capacity + 1,
		Fields: []adb.Field{
			{Name: "entry", Object: newEntrySchema()},
		},
	}
}

// manifestEntry is the JSON-facing shape build/inspect read and write.
type manifestEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Size    uint32 `json:"size"`
}
