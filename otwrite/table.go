package otwrite

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/schema"
)

// Table is an owned, mutable table value: scalars by value, records and
// sequence elements as inline child tables, offset targets as child
// *Table nodes. Assigning the same *Table to several offset fields
// shares the child; the serializer emits one copy.
//
// A Table is exclusively owned by its builder until handed to
// Serialize. It is not safe for concurrent mutation.
type Table struct {
	codec *schema.Codec
	vals  map[string]interface{}
	errs  []error // accumulated Set errors, surfaced by Err and Serialize
	pad2  bool
}

// New creates an empty owned table for the compiled schema.
func New(c *schema.Codec) *Table {
	return &Table{codec: c, vals: make(map[string]interface{})}
}

// NewFormat creates an owned table for one variant of a format group.
// The discriminant is a declared constant of the variant and is written
// automatically.
func NewFormat(gc *schema.GroupCodec, format uint64) *Table {
	c, ok := gc.Variant(format)
	if !ok {
		t := &Table{vals: make(map[string]interface{})}
		t.errs = append(t.errs, writeErr(ErrUnknownFormat, gc.Group.Name, ""))
		return t
	}
	return New(c)
}

// Name returns the schema name of the table.
func (t *Table) Name() string {
	if t.codec == nil {
		return ""
	}
	return t.codec.Table.Name
}

// Err returns the first error accumulated while building the table, if
// any. Serialize reports the same error, so checking here is optional.
func (t *Table) Err() error {
	if len(t.errs) > 0 {
		return t.errs[0]
	}
	return nil
}

// PadToEven appends a padding byte if the encoded table length is odd.
// Some consumers require sub-table offsets on 2-byte boundaries.
func (t *Table) PadToEven() *Table {
	t.pad2 = true
	return t
}

// Set assigns a field value. Accepted value forms depend on the field:
// integers (or the scalar types of package otcodec) for scalars,
// *Table for records and offset targets (nil for an absent nullable
// offset), scalar slices or []*Table for arrays, []*Table for
// sequences, []byte for remainder blobs. Errors accumulate on the
// table and surface at Serialize, so calls chain.
func (t *Table) Set(field string, v interface{}) *Table {
	if t.codec == nil {
		return t
	}
	i, ok := t.codec.Read.FieldIndex(field)
	if !ok {
		t.errs = append(t.errs, writeErr(ErrUnknownField, t.Name(), field))
		return t
	}
	f := &t.codec.Table.Fields[i]
	if f.Compute.Kind != schema.ComputeNone {
		t.errs = append(t.errs, writeErr(ErrUnknownField, t.Name(), field))
		return t
	}
	if v == nil {
		delete(t.vals, field)
		return t
	}
	if child, isTable := v.(*Table); isTable && child == nil {
		delete(t.vals, field)
		return t
	}
	t.vals[field] = v
	return t
}

// populated reports whether the named field carries a value (used by
// version promotion).
func (t *Table) populated(field string) bool {
	_, ok := t.vals[field]
	return ok
}

// promote computes the table's version discriminant: the base version,
// raised to the minimum version of every populated gated field — never
// higher than necessary, never caller-chosen.
func (t *Table) promote() uint32 {
	v := t.codec.Table.MinVersion
	for i := range t.codec.Table.Fields {
		f := &t.codec.Table.Fields[i]
		if f.Presence.Kind != schema.PresSince {
			continue
		}
		if t.populated(f.Name) && f.Presence.Version > v {
			v = f.Presence.Version
		}
	}
	return v
}

// --- scalar value normalization --------------------------------------------

// rawScalar converts any accepted scalar value form to an int64.
func rawScalar(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case otcodec.Tag:
		return int64(uint32(n)), true
	case otcodec.GlyphIndex:
		return int64(n), true
	case otcodec.Fixed:
		return int64(n), true
	case otcodec.F2Dot14:
		return int64(n), true
	case otcodec.LongDateTime:
		return int64(n), true
	case otcodec.Version16Dot16:
		return int64(n), true
	case otcodec.MajorMinor:
		return int64(n), true
	case otcodec.Uint24:
		return int64(n), true
	}
	return 0, false
}

// fitsWidth reports whether a scalar value is representable in the
// field's declared width.
func fitsWidth(v int64, width int, signed bool) bool {
	if width >= 8 {
		return true
	}
	bits := uint(width * 8)
	if signed {
		min := -(int64(1) << (bits - 1))
		max := int64(1)<<(bits-1) - 1
		return v >= min && v <= max
	}
	return v >= 0 && v < int64(1)<<bits
}

// sliceLen returns the element count of any accepted array value form.
func sliceLen(v interface{}) (int, bool) {
	switch s := v.(type) {
	case []byte:
		return len(s), true
	case []uint16:
		return len(s), true
	case []int16:
		return len(s), true
	case []uint32:
		return len(s), true
	case []int32:
		return len(s), true
	case []int64:
		return len(s), true
	case []otcodec.GlyphIndex:
		return len(s), true
	case []otcodec.Tag:
		return len(s), true
	case []*Table:
		return len(s), true
	}
	return 0, false
}

// sliceElem returns element i of a scalar slice as an int64.
func sliceElem(v interface{}, i int) (int64, bool) {
	switch s := v.(type) {
	case []byte:
		return int64(s[i]), true
	case []uint16:
		return int64(s[i]), true
	case []int16:
		return int64(s[i]), true
	case []uint32:
		return int64(s[i]), true
	case []int32:
		return int64(s[i]), true
	case []int64:
		return s[i], true
	case []otcodec.GlyphIndex:
		return int64(s[i]), true
	case []otcodec.Tag:
		return int64(uint32(s[i])), true
	}
	return 0, false
}
