package adb

import "encoding/binary"

// Object is a read view over a committed OBJECT or ARRAY value: a
// count slot followed by Num-1 field/element vals.
type Object struct {
	Schema  *ObjectSchema
	Src     PayloadSource
	Num     uint32 // count slot value; 1 means empty/invalid
	Entries []Val  // length Num; Entries[0] duplicates Num, unused by callers
}

// ReadObject derefs v as an OBJECT/ARRAY table. A tag mismatch or an
// out-of-range table never raises an error: it yields the same
// Num: 1 "empty" object a legitimate zero-field object would produce,
// so a malformed or zero root simply decodes as an empty object.
func ReadObject(src PayloadSource, v Val, schema *ObjectSchema) *Object {
	empty := &Object{Schema: schema, Src: src, Num: 1, Entries: []Val{1}}
	if v.Tag() != TagObject && v.Tag() != TagArray {
		return empty
	}
	head, ok := Deref(src, v, 0, 4)
	if !ok {
		return empty
	}
	num := binary.LittleEndian.Uint32(head)
	if num == 0 {
		return empty
	}
	table, ok := Deref(src, v, 0, int(num)*4)
	if !ok {
		return empty
	}
	vals := make([]Val, num)
	for i := range vals {
		vals[i] = Val(binary.LittleEndian.Uint32(table[i*4 : i*4+4]))
	}
	return &Object{Schema: schema, Src: src, Num: num, Entries: vals}
}

// RootObject derefs the slab's root val as an OBJECT/ARRAY under schema.
func RootObject(src PayloadSource, schema *ObjectSchema) *Object {
	return ReadObject(src, Root(src), schema)
}

// Len returns the number of fields/elements actually present (Num - 1).
func (o *Object) Len() int { return int(o.Num) - 1 }

// Val returns field/element i (1-based), or Null if i is out of range.
func (o *Object) Val(i int) Val {
	if i <= 0 || uint32(i) >= o.Num {
		return Null
	}
	return o.Entries[i]
}

// Int reads field i as an integer, applying the schema's default-value
// hook when the field is absent.
func (o *Object) Int(i int) uint32 {
	v := o.Val(i)
	if v == Null && o.Schema != nil && o.Schema.GetDefaultInt != nil {
		return o.Schema.GetDefaultInt(i)
	}
	return ReadInt(o.Src, v)
}

// Blob reads field i as a byte string; ok is false if the field is
// absent or malformed.
func (o *Object) Blob(i int) ([]byte, bool) {
	return ReadBlob(o.Src, o.Val(i))
}

// Object reads field i (for an OBJECT schema) or element i (for an
// ARRAY schema) as a nested object, resolving the correct sub-schema.
func (o *Object) Object(i int) *Object {
	var sub *ObjectSchema
	if o.Schema != nil {
		if o.Schema.Kind == KindArray {
			sub = o.Schema.Fields[0].Object
		} else if i >= 1 && i <= len(o.Schema.Fields) {
			sub = o.Schema.Fields[i-1].Object
		}
	}
	return ReadObject(o.Src, o.Val(i), sub)
}

// ObjectBuilder accumulates fields of an OBJECT, or elements of an
// ARRAY, before committing them to a Writer as a single deduplicated
// table.
type ObjectBuilder struct {
	db     *Writer
	schema *ObjectSchema
	num    int // highest used slot + 1; starts at 1 (only the count slot "used")
	entries []Val
}

// NewObjectBuilder allocates a builder for schema on w.
func NewObjectBuilder(w *Writer, schema *ObjectSchema) *ObjectBuilder {
	return &ObjectBuilder{
		db:      w,
		schema:  schema,
		num:     1,
		entries: make([]Val, schema.Cap),
	}
}

func (o *ObjectBuilder) fail(err error) error {
	return o.db.poison(err)
}

// SetVal sets field/element i (1-based) directly to v.
func (o *ObjectBuilder) SetVal(i int, v Val) error {
	if o.db.poisoned != nil {
		return o.db.poisoned
	}
	if i < 1 || i >= o.schema.Cap {
		return o.fail(newErr(ErrTooBig, "field index out of range"))
	}
	if v != Null && i >= o.num {
		o.num = i + 1
	}
	o.entries[i] = v
	return nil
}

// SetInt sets field i to v, eliding it entirely when v equals the
// schema's declared default for that field.
func (o *ObjectBuilder) SetInt(i int, v uint32) error {
	if o.schema.GetDefaultInt != nil && v == o.schema.GetDefaultInt(i) {
		return o.SetVal(i, Null)
	}
	return o.SetVal(i, o.db.WriteInt(v))
}

// SetBlob writes b through the dedup store and sets field i to it.
func (o *ObjectBuilder) SetBlob(i int, b []byte) error {
	return o.SetVal(i, o.db.WriteBlob(b))
}

// SetObject commits sub and sets field i to the resulting OBJECT val.
func (o *ObjectBuilder) SetObject(i int, sub *ObjectBuilder) error {
	v, err := sub.Commit()
	if err != nil {
		return err
	}
	return o.SetVal(i, v)
}

// SetArray commits sub (built as KindArray) and sets field i to it.
func (o *ObjectBuilder) SetArray(i int, sub *ObjectBuilder) error {
	v, err := sub.CommitArray()
	if err != nil {
		return err
	}
	return o.SetVal(i, v)
}

// Append adds v as the next element of an ARRAY builder. A Null v is
// silently dropped (matching SetVal's "absent field" convention); the
// capacity check happens regardless.
func (o *ObjectBuilder) Append(v Val) error {
	if o.db.poisoned != nil {
		return o.db.poisoned
	}
	if o.num >= o.schema.Cap {
		return o.fail(newErr(ErrTooBig, "array capacity exceeded"))
	}
	if v != Null {
		o.entries[o.num] = v
		o.num++
	}
	return nil
}

// AppendInt writes v and appends it.
func (o *ObjectBuilder) AppendInt(v uint32) error {
	return o.Append(o.db.WriteInt(v))
}

// AppendBlob writes b and appends it.
func (o *ObjectBuilder) AppendBlob(b []byte) error {
	return o.Append(o.db.WriteBlob(b))
}

// AppendObject commits sub and appends the resulting OBJECT val.
func (o *ObjectBuilder) AppendObject(sub *ObjectBuilder) error {
	v, err := sub.Commit()
	if err != nil {
		return err
	}
	return o.Append(v)
}

// Sort reorders the elements appended so far into the element schema's
// comparison order. It must be called before Commit/CommitArray.
func (o *ObjectBuilder) Sort() {
	if o.schema.Kind != KindArray {
		panic("adb: Sort called on a non-array builder")
	}
	elem := o.schema.Fields[0]
	vals := o.entries[1:o.num]
	insertionSort(vals, func(a, b Val) int {
		return compareFieldVals(o.db, a, o.db, b, elem)
	})
}

// SortUnique sorts, then collapses adjacent equal elements, keeping the
// first occurrence of each distinct value.
func (o *ObjectBuilder) SortUnique() {
	o.Sort()
	total := o.num
	if total < 3 {
		return
	}
	j := 2
	for i := 2; i < total; i++ {
		if o.entries[i] == o.entries[i-1] {
			continue
		}
		o.entries[j] = o.entries[i]
		j++
	}
	o.num = j
}

// insertionSort is used instead of sort.Slice so the comparator can be a
// plain two-argument closure (no sort.Interface boilerplate); builder
// arrays are small enough that O(n^2) is not a concern.
func insertionSort(vals []Val, cmp func(a, b Val) int) {
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && cmp(vals[j-1], vals[j]) > 0; j-- {
			vals[j-1], vals[j] = vals[j], vals[j-1]
		}
	}
}

func (o *ObjectBuilder) commit(tag Tag) (Val, error) {
	if o.db.poisoned != nil {
		return Null, o.db.poisoned
	}
	if o.schema != nil && o.schema.PreCommit != nil {
		o.schema.PreCommit(o)
	}
	n := o.num
	for n > 1 && o.entries[n-1] == Null {
		n--
	}
	result := Null
	if n > 1 {
		table := make([]byte, n*4)
		binary.LittleEndian.PutUint32(table[0:4], uint32(n))
		for i := 1; i < n; i++ {
			binary.LittleEndian.PutUint32(table[i*4:i*4+4], uint32(o.entries[i]))
		}
		off, err := o.db.intern([][]byte{table}, 4)
		if err != nil {
			return Null, o.fail(err)
		}
		result = MakeVal(tag, uint32(off))
	}
	o.reset()
	return result, nil
}

func (o *ObjectBuilder) reset() {
	for i := range o.entries {
		o.entries[i] = Null
	}
	o.num = 1
}

// Commit finalizes an OBJECT builder.
func (o *ObjectBuilder) Commit() (Val, error) {
	if o.schema.Kind != KindObject {
		panic("adb: Commit called on a non-object builder")
	}
	return o.commit(TagObject)
}

// CommitArray finalizes an ARRAY builder.
func (o *ObjectBuilder) CommitArray() (Val, error) {
	if o.schema.Kind != KindArray {
		panic("adb: CommitArray called on a non-array builder")
	}
	return o.commit(TagArray)
}

func compareFieldVals(srcA PayloadSource, a Val, srcB PayloadSource, b Val, f Field) int {
	switch f.Kind() {
	case KindInt, KindBlob:
		return f.Scalar.Compare(srcA, a, srcB, b)
	default:
		oa := ReadObject(srcA, a, f.Object)
		ob := ReadObject(srcB, b, f.Object)
		return f.Object.Compare(oa, ob)
	}
}

// Find performs a sorted-array lookup against arr (previously built
// with Sort or SortUnique and committed). cur == 0 starts a fresh
// search and returns the index of the first (leftmost) match, or -1.
// A subsequent call with cur set to a previous result walks forward
// through the run of equal elements, also returning -1 past its end.
func Find(arr *Object, cur int, srcV PayloadSource, v Val) int {
	elem := arr.Schema.Fields[0]
	cmpAt := func(i int) int {
		return compareFieldVals(srcV, v, arr.Src, arr.Entries[i], elem)
	}
	if cur == 0 {
		lo, hi := 1, arr.Len()
		idx := -1
		for lo <= hi {
			mid := (lo + hi) / 2
			switch c := cmpAt(mid); {
			case c == 0:
				idx = mid
				lo = hi + 1 // break out; idx already found
			case c < 0:
				hi = mid - 1
			default:
				lo = mid + 1
			}
		}
		if idx == -1 {
			return -1
		}
		for idx > 1 && cmpAt(idx-1) == 0 {
			idx--
		}
		return idx
	}
	cur++
	if cur > arr.Len() || cmpAt(cur) != 0 {
		return -1
	}
	return cur
}
