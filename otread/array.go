package otread

import (
	"iter"

	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/schema"
)

// Array is a checked view of a counted array field with fixed element
// stride. Element access is O(1) and re-validated against the backing
// buffer on every call.
type Array struct {
	t      TableRef
	fl     *schema.FieldLayout
	pos    int
	count  int
	stride int
}

// Array returns a view of the named array field. The element count is
// resolved from the instance (count field, read argument, or remaining
// table bytes) and the full array range is bounds-checked here.
func (t TableRef) Array(name string) (Array, error) {
	fl, pos, err := t.locate(name, schema.KindArray)
	if err != nil {
		return Array{}, err
	}
	var count int
	if fl.Field.Count.Kind == schema.CountRemainder {
		if pos > t.end {
			return Array{}, readErr(ErrOutOfBounds, t.name, name)
		}
		count = (t.end - pos) / fl.Stride
	} else {
		count, err = t.countOf(fl)
		if err != nil {
			return Array{}, err
		}
	}
	size, ok := checkedMulInt(count, fl.Stride)
	if !ok || !t.inRange(pos, size) {
		return Array{}, readErrValue(ErrOutOfBounds, t.name, name, int64(count))
	}
	return Array{t: t, fl: fl, pos: pos, count: count, stride: fl.Stride}, nil
}

// FieldBytes returns the raw bytes of the named array field, zero-copy.
// Handy for u8 arrays and remainder blobs; the slice aliases the
// backing buffer and must be treated as read-only.
func (t TableRef) FieldBytes(name string) ([]byte, error) {
	a, err := t.Array(name)
	if err != nil {
		return nil, err
	}
	return a.t.buf[a.pos : a.pos+a.count*a.stride], nil
}

// Len returns the number of elements.
func (a Array) Len() int {
	return a.count
}

// Raw returns the array's raw bytes (read-only view).
func (a Array) Raw() []byte {
	if a.t.buf == nil {
		return nil
	}
	return a.t.buf[a.pos : a.pos+a.count*a.stride]
}

func (a Array) elemPos(i int) (int, *Error) {
	if i < 0 || i >= a.count {
		return 0, readErrValue(ErrOutOfBounds, a.t.name, a.fl.Field.Name, int64(i))
	}
	pos := a.pos + i*a.stride
	if !a.t.inRange(pos, a.stride) {
		return 0, readErr(ErrOutOfBounds, a.t.name, a.fl.Field.Name)
	}
	return pos, nil
}

// Scalar returns element i of a scalar-element array, sign-extended if
// the element type is signed.
func (a Array) Scalar(i int) (int64, error) {
	if a.fl == nil || a.fl.Field.Elem.Scalar == nil {
		return 0, readErr(ErrBadFieldAccess, a.t.name, a.fieldName())
	}
	pos, err := a.elemPos(i)
	if err != nil {
		return 0, err
	}
	e := a.fl.Field.Elem.Scalar
	return scalarAt(a.t.buf, pos, e.Width, e.Signed), nil
}

// U16 returns element i of a u16-element array.
func (a Array) U16(i int) (uint16, error) {
	v, err := a.Scalar(i)
	return uint16(v), err
}

// U32 returns element i of a u32-element array.
func (a Array) U32(i int) (uint32, error) {
	v, err := a.Scalar(i)
	return uint32(v), err
}

// Glyph returns element i of a glyph-index array.
func (a Array) Glyph(i int) (otcodec.GlyphIndex, error) {
	v, err := a.Scalar(i)
	return otcodec.GlyphIndex(v), err
}

// Record returns a ref to element i of a record-element array.
func (a Array) Record(i int) (TableRef, error) {
	if a.fl == nil || a.fl.Field.Elem.Record == nil {
		return TableRef{}, readErr(ErrBadFieldAccess, a.t.name, a.fieldName())
	}
	pos, err := a.elemPos(i)
	if err != nil {
		return TableRef{}, err
	}
	return a.t.recordAt(a.fl.Field.Elem.Record, pos, a.stride)
}

// Offset resolves element i of an offset-element array. A stored zero
// fails with ErrMissingRequiredOffset unless the element offsets are
// declared nullable; use OptOffset for those.
func (a Array) Offset(i int) (TableRef, error) {
	ref, ok, err := a.OptOffset(i)
	if err != nil {
		return TableRef{}, err
	}
	if !ok {
		return TableRef{}, readErr(ErrMissingRequiredOffset, a.t.name, a.fieldName())
	}
	return ref, nil
}

// OptOffset resolves element i of an offset-element array; a stored
// zero yields (zero ref, false, nil).
func (a Array) OptOffset(i int) (TableRef, bool, error) {
	if a.fl == nil || a.fl.Field.Elem.Offset == nil {
		return TableRef{}, false, readErr(ErrBadFieldAccess, a.t.name, a.fieldName())
	}
	pos, err := a.elemPos(i)
	if err != nil {
		return TableRef{}, false, err
	}
	ref, ok, rerr := a.t.resolveOffset(a.fl.Field.Elem.Offset, pos, a.fieldName())
	if rerr != nil {
		return TableRef{}, false, rerr
	}
	return ref, ok, nil
}

func (a Array) fieldName() string {
	if a.fl == nil {
		return ""
	}
	return a.fl.Field.Name
}

// --- Sequences -------------------------------------------------------------

// Seq is a forward-only view of an array of per-element variable-sized
// records. Indexing such an array is O(n) by nature, so elements are
// exposed as a lazy iteration rather than an indexable range.
type Seq struct {
	t     TableRef
	fl    *schema.FieldLayout
	pos   int
	count int // -1: consume bytes to the end of the table
	codec *schema.Codec
}

// Seq returns a forward-only view of the named sequence field.
func (t TableRef) Seq(name string) (Seq, error) {
	fl, pos, err := t.locate(name, schema.KindSeq)
	if err != nil {
		return Seq{}, err
	}
	count := -1
	if fl.Field.Count.Kind != schema.CountRemainder {
		if count, err = t.countOf(fl); err != nil {
			return Seq{}, err
		}
	}
	c, cerr := schema.Compile(fl.Field.Record)
	if cerr != nil {
		return Seq{}, readErr(ErrBadFieldAccess, t.name, name)
	}
	return Seq{t: t, fl: fl, pos: pos, count: count, codec: c}, nil
}

// Count returns the declared element count, or -1 if the sequence
// consumes the remainder of the table.
func (s Seq) Count() int {
	return s.count
}

// All iterates the sequence's elements in order. Iteration stops at the
// first malformed element, yielding it with a non-nil error. Element
// refs are bounded to their own extent.
func (s Seq) All() iter.Seq2[TableRef, error] {
	return func(yield func(TableRef, error) bool) {
		if s.codec == nil {
			return
		}
		pos := s.pos
		for i := 0; s.count < 0 || i < s.count; i++ {
			if s.count < 0 && pos >= s.t.end {
				return
			}
			el, err := readAt(s.t.buf, pos, s.t.end, s.codec, s.t.args)
			if err != nil {
				yield(TableRef{}, err)
				return
			}
			sz, serr := el.instanceSize()
			if serr != nil {
				yield(TableRef{}, serr)
				return
			}
			// a zero-sized element would never advance the scan
			if sz <= 0 || !s.t.inRange(pos, sz) {
				yield(TableRef{}, readErr(ErrOutOfBounds, s.t.name, s.fl.Field.Name))
				return
			}
			el.end = pos + sz
			el.obase = s.t.obase
			el.oend = s.t.oend
			if !yield(el, nil) {
				return
			}
			pos += sz
		}
	}
}

// maxPrealloc caps slice pre-allocation driven by counts read from the
// buffer; larger sequences grow by append.
const maxPrealloc = 4096

// Collect materializes the sequence into a slice of element refs,
// failing on the first malformed element.
func (s Seq) Collect() ([]TableRef, error) {
	var refs []TableRef
	if s.count > 0 && s.count <= maxPrealloc {
		refs = make([]TableRef, 0, s.count)
	}
	for el, err := range s.All() {
		if err != nil {
			return nil, err
		}
		refs = append(refs, el)
	}
	return refs, nil
}
