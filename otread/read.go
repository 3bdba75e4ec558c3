package otread

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/schema"
)

// Args supplies read-time parameters not derivable from the table being
// read, e.g. a glyph count known only from an unrelated table. Keys are
// the argument names declared by the schema.
type Args map[string]int

// TableRef is a borrowed, non-owning view of one table (or inline
// record) within a backing buffer. The zero value is invalid; obtain
// TableRefs from Read, ReadFormat or the navigation accessors.
//
// A TableRef is immutable and safe to copy; it never outlives its
// backing buffer in the sense that it holds the buffer alive, and it
// never mutates it.
type TableRef struct {
	buf   []byte
	base  int // table start within buf
	end   int // exclusive bound for field ranges
	obase int // base for offset resolution (start of the containing table)
	oend  int // exclusive bound for offset targets

	desc  *schema.ReaderDesc
	table *schema.Table
	name  string

	disc    uint64 // discriminant value, if format-dispatched
	version uint32 // resolved version discriminant
	hasVer  bool

	// Values of count, flag and version fields, resolved once at
	// construction. Read-only afterwards, so sharing the slices across
	// copies of the ref is safe.
	vals     []int64
	resolved []bool

	args Args
}

// Read parses the table described by c at byte offset within buf.
// Only the table's statically known minimum size is validated here;
// offsets and variable-length field ranges are validated lazily, on
// access. Pass nil args for schemas without read arguments.
func Read(buf []byte, offset int, c *schema.Codec, args Args) (TableRef, error) {
	return readAt(buf, offset, len(buf), c, args)
}

// ReadFormat parses a format-dispatched table: the group's discriminant
// is read first, then the matching variant layout is applied. A
// discriminant matching no declared variant fails with
// ErrInvalidDiscriminant; callers may tolerate this by skipping the
// table.
func ReadFormat(buf []byte, offset int, gc *schema.GroupCodec, args Args) (TableRef, error) {
	return readFormatAt(buf, offset, len(buf), gc, args)
}

func readAt(buf []byte, start, end int, c *schema.Codec, args Args) (TableRef, error) {
	name := c.Table.Name
	if start < 0 || start > end || end > len(buf) {
		return TableRef{}, readErr(ErrOutOfBounds, name, "")
	}
	d := &c.Read
	if end-start < d.MinSize {
		tracer().Debugf("table %s needs %d bytes, %d available", name, d.MinSize, end-start)
		return TableRef{}, readErr(ErrOutOfBounds, name, "")
	}
	t := TableRef{
		buf:   buf,
		base:  start,
		end:   end,
		obase: start,
		oend:  end,
		desc:  d,
		table: c.Table,
		name:  name,
		args:  args,
	}
	if len(d.Deps) > 0 {
		t.vals = make([]int64, len(d.Fields))
		t.resolved = make([]bool, len(d.Fields))
		for _, i := range d.Deps {
			fl := &d.Fields[i]
			ok, err := t.present(fl)
			if err != nil || !ok {
				continue // error surfaces on access of a dependent field
			}
			pos, perr := t.fieldPos(fl)
			if perr != nil {
				continue
			}
			w := fl.Field.Scalar.Width
			if !t.inRange(pos, w) {
				continue
			}
			v := scalarAt(buf, pos, w, fl.Field.Scalar.Signed)
			t.vals[i] = v
			t.resolved[i] = true
			if i == d.VersionField {
				t.version = uint32(v)
				t.hasVer = true
			}
		}
	}
	return t, nil
}

func readFormatAt(buf []byte, start, end int, gc *schema.GroupCodec, args Args) (TableRef, error) {
	name := gc.Group.Name
	w := gc.DiscWidth()
	if start < 0 || start > end || end > len(buf) || end-start < w {
		return TableRef{}, readErr(ErrOutOfBounds, name, "")
	}
	v := uint64(scalarAt(buf, start, w, false))
	c, ok := gc.Variant(v)
	if !ok {
		return TableRef{}, readErrValue(ErrInvalidDiscriminant, name, "", int64(v))
	}
	t, err := readAt(buf, start, end, c, args)
	if err != nil {
		return TableRef{}, err
	}
	t.disc = v
	return t, nil
}

// Name returns the schema name of the table this ref views.
func (t TableRef) Name() string {
	return t.name
}

// Format returns the discriminant value this ref was dispatched on, or
// zero if the table is not part of a format group.
func (t TableRef) Format() uint64 {
	return t.disc
}

// Schema returns the schema this ref was read with (for dispatched
// tables: the selected variant's schema).
func (t TableRef) Schema() *schema.Table {
	return t.table
}

// Arg returns the value of a read-time argument supplied to Read.
func (t TableRef) Arg(name string) (int, bool) {
	v, ok := t.args[name]
	return v, ok
}

// Version returns the table's resolved version discriminant (packed),
// or zero if the schema has none.
func (t TableRef) Version() uint32 {
	return t.version
}

// Bytes returns the raw bytes of this table's extent. The slice aliases
// the backing buffer and must be treated as read-only.
func (t TableRef) Bytes() []byte {
	if t.buf == nil {
		return nil
	}
	return t.buf[t.base:t.end]
}

// Has reports whether the named field exists in the schema and is
// present in this table instance (version and flag gates evaluated).
func (t TableRef) Has(name string) bool {
	if t.desc == nil {
		return false
	}
	i, ok := t.desc.FieldIndex(name)
	if !ok {
		return false
	}
	present, err := t.present(&t.desc.Fields[i])
	return err == nil && present
}

// --- field location --------------------------------------------------------

func (t TableRef) field(name string) (*schema.FieldLayout, *Error) {
	if t.desc == nil {
		return nil, readErr(ErrBadFieldAccess, t.name, name)
	}
	i, ok := t.desc.FieldIndex(name)
	if !ok {
		return nil, readErr(ErrBadFieldAccess, t.name, name)
	}
	return &t.desc.Fields[i], nil
}

// present evaluates the field's presence rule for this instance.
func (t TableRef) present(fl *schema.FieldLayout) (bool, *Error) {
	switch fl.Field.Presence.Kind {
	case schema.PresAlways:
		return true, nil
	case schema.PresSince:
		if !t.hasVer {
			return false, readErr(ErrOutOfBounds, t.name, fl.Field.Name)
		}
		return t.version >= fl.Field.Presence.Version, nil
	case schema.PresIfFlag:
		if t.resolved == nil || !t.resolved[fl.FlagIndex] {
			return false, readErr(ErrOutOfBounds, t.name, fl.Field.Name)
		}
		return t.vals[fl.FlagIndex]&(1<<fl.Field.Presence.Bit) != 0, nil
	}
	return false, readErr(ErrBadFieldAccess, t.name, fl.Field.Name)
}

// fieldPos folds the field's cursor expression against this instance:
// the constant base plus the runtime sizes of all earlier dynamic or
// gated fields.
func (t TableRef) fieldPos(fl *schema.FieldLayout) (int, *Error) {
	pos, ok := checkedAddInt(t.base, fl.Base)
	if !ok {
		return 0, readErr(ErrOutOfBounds, t.name, fl.Field.Name)
	}
	for _, j := range fl.Terms {
		sz, err := t.termSize(j)
		if err != nil {
			return 0, err
		}
		if pos, ok = checkedAddInt(pos, sz); !ok {
			return 0, readErr(ErrOutOfBounds, t.name, fl.Field.Name)
		}
	}
	return pos, nil
}

// termSize is the byte size one earlier field contributes to the cursor.
func (t TableRef) termSize(j int) (int, *Error) {
	fl := &t.desc.Fields[j]
	ok, err := t.present(fl)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if fl.FixedSize >= 0 {
		return fl.FixedSize, nil
	}
	// a dynamic array with externally determined size
	count, cerr := t.countOf(fl)
	if cerr != nil {
		return 0, cerr
	}
	sz, mok := checkedMulInt(count, fl.Stride)
	if !mok {
		return 0, readErrValue(ErrInvalidCount, t.name, fl.Field.Name, int64(count))
	}
	return sz, nil
}

// countOf resolves an array's element count (not for remainder arrays,
// whose count depends on the field position).
func (t TableRef) countOf(fl *schema.FieldLayout) (int, *Error) {
	f := fl.Field
	switch f.Count.Kind {
	case schema.CountFixed:
		return f.Count.N, nil
	case schema.CountField:
		if t.resolved == nil || !t.resolved[fl.CountIndex] {
			return 0, readErr(ErrOutOfBounds, t.name, f.Name)
		}
		n := int(t.vals[fl.CountIndex]) - f.Count.Delta
		if n < 0 {
			return 0, readErrValue(ErrInvalidCount, t.name, f.Name, int64(n))
		}
		return n, nil
	case schema.CountArg:
		v, ok := t.args[f.Count.Arg]
		if !ok {
			return 0, readErr(ErrMissingArgument, t.name, f.Name)
		}
		n := v - f.Count.Delta
		if n < 0 {
			return 0, readErrValue(ErrInvalidCount, t.name, f.Name, int64(n))
		}
		return n, nil
	case schema.CountArgDiff:
		a, aok := t.args[f.Count.Arg]
		b, bok := t.args[f.Count.MinusArg]
		if !aok || !bok {
			return 0, readErr(ErrMissingArgument, t.name, f.Name)
		}
		if a < b {
			return 0, readErrValue(ErrInvalidCount, t.name, f.Name, int64(a-b))
		}
		return a - b, nil
	}
	return 0, readErr(ErrBadFieldAccess, t.name, f.Name)
}

// inRange reports whether [pos, pos+n) lies within this ref's extent.
func (t TableRef) inRange(pos, n int) bool {
	if pos < t.base || n < 0 {
		return false
	}
	end, ok := checkedAddInt(pos, n)
	return ok && end <= t.end
}

// locate returns the checked position of a present field of the
// expected kind.
func (t TableRef) locate(name string, kind schema.Kind) (*schema.FieldLayout, int, *Error) {
	fl, err := t.field(name)
	if err != nil {
		return nil, 0, err
	}
	if fl.Field.Kind != kind {
		return nil, 0, readErr(ErrBadFieldAccess, t.name, name)
	}
	ok, err := t.present(fl)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, readErr(ErrFieldNotPresent, t.name, name)
	}
	pos, err := t.fieldPos(fl)
	if err != nil {
		return nil, 0, err
	}
	return fl, pos, nil
}

// --- scalar accessors ------------------------------------------------------

// Scalar returns the value of a scalar field, sign-extended if the
// field is declared signed.
func (t TableRef) Scalar(name string) (int64, error) {
	fl, pos, err := t.locate(name, schema.KindScalar)
	if err != nil {
		return 0, err
	}
	w := fl.Field.Scalar.Width
	if !t.inRange(pos, w) {
		return 0, readErr(ErrOutOfBounds, t.name, name)
	}
	return scalarAt(t.buf, pos, w, fl.Field.Scalar.Signed), nil
}

func (t TableRef) scalarWidth(name string, width int) (int64, error) {
	fl, pos, err := t.locate(name, schema.KindScalar)
	if err != nil {
		return 0, err
	}
	if fl.Field.Scalar.Width != width {
		return 0, readErr(ErrBadFieldAccess, t.name, name)
	}
	if !t.inRange(pos, width) {
		return 0, readErr(ErrOutOfBounds, t.name, name)
	}
	return scalarAt(t.buf, pos, width, fl.Field.Scalar.Signed), nil
}

// U8 returns the value of an 8-bit scalar field.
func (t TableRef) U8(name string) (uint8, error) {
	v, err := t.scalarWidth(name, 1)
	return uint8(v), err
}

// U16 returns the value of a 16-bit scalar field.
func (t TableRef) U16(name string) (uint16, error) {
	v, err := t.scalarWidth(name, 2)
	return uint16(v), err
}

// I16 returns the value of a signed 16-bit scalar field.
func (t TableRef) I16(name string) (int16, error) {
	v, err := t.scalarWidth(name, 2)
	return int16(v), err
}

// U24 returns the value of a 24-bit scalar field.
func (t TableRef) U24(name string) (uint32, error) {
	v, err := t.scalarWidth(name, 3)
	return uint32(v), err
}

// U32 returns the value of a 32-bit scalar field.
func (t TableRef) U32(name string) (uint32, error) {
	v, err := t.scalarWidth(name, 4)
	return uint32(v), err
}

// I32 returns the value of a signed 32-bit scalar field.
func (t TableRef) I32(name string) (int32, error) {
	v, err := t.scalarWidth(name, 4)
	return int32(v), err
}

// Tag returns the value of a 4-byte tag field.
func (t TableRef) Tag(name string) (otcodec.Tag, error) {
	v, err := t.scalarWidth(name, 4)
	return otcodec.Tag(uint32(v)), err
}

// --- structure accessors ---------------------------------------------------

// Record returns a ref to an inline fixed-shape record field. Offsets
// stored inside the record resolve relative to the containing table,
// per sfnt convention.
func (t TableRef) Record(name string) (TableRef, error) {
	fl, pos, err := t.locate(name, schema.KindRecord)
	if err != nil {
		return TableRef{}, err
	}
	if !t.inRange(pos, fl.FixedSize) {
		return TableRef{}, readErr(ErrOutOfBounds, t.name, name)
	}
	return t.recordAt(fl.Field.Record, pos, fl.FixedSize)
}

func (t TableRef) recordAt(rec *schema.Table, pos, size int) (TableRef, error) {
	rc, cerr := schema.Compile(rec)
	if cerr != nil {
		return TableRef{}, readErr(ErrBadFieldAccess, t.name, rec.Name)
	}
	r, err := readAt(t.buf, pos, pos+size, rc, t.args)
	if err != nil {
		return TableRef{}, err
	}
	r.obase = t.obase
	r.oend = t.oend
	return r, nil
}

// Offset resolves a required offset field: reads the stored distance,
// bounds-checks the target and returns a ref to the target table. A
// stored zero fails with ErrMissingRequiredOffset.
func (t TableRef) Offset(name string) (TableRef, error) {
	fl, pos, err := t.locate(name, schema.KindOffset)
	if err != nil {
		return TableRef{}, err
	}
	ref, ok, rerr := t.resolveOffset(&fl.Field.Offset, pos, name)
	if rerr != nil {
		return TableRef{}, rerr
	}
	if !ok {
		return TableRef{}, readErr(ErrMissingRequiredOffset, t.name, name)
	}
	return ref, nil
}

// OptOffset resolves a nullable offset field. A stored zero yields
// (zero ref, false, nil): absent, not an error, and not a table at
// position zero.
func (t TableRef) OptOffset(name string) (TableRef, bool, error) {
	fl, pos, err := t.locate(name, schema.KindOffset)
	if err != nil {
		return TableRef{}, false, err
	}
	ref, ok, rerr := t.resolveOffset(&fl.Field.Offset, pos, name)
	if rerr != nil {
		return TableRef{}, false, rerr
	}
	return ref, ok, nil
}

// resolveOffset turns a stored offset into a TableRef at
// origin + offset, where origin is the offset origin of the enclosing
// table, or pos for self-relative offsets. Resolution may fail
// independently of the outer table's validity.
func (t TableRef) resolveOffset(spec *schema.OffsetSpec, pos int, name string) (TableRef, bool, *Error) {
	if !t.inRange(pos, spec.Width) {
		return TableRef{}, false, readErr(ErrOutOfBounds, t.name, name)
	}
	off := int(scalarAt(t.buf, pos, spec.Width, false))
	if off == 0 {
		return TableRef{}, false, nil
	}
	origin := t.obase
	if spec.SelfRelative {
		origin = pos
	}
	target, ok := checkedAddInt(origin, off)
	if !ok {
		return TableRef{}, false, readErrValue(ErrMalformedOffset, t.name, name, int64(off))
	}
	if target > t.oend {
		return TableRef{}, false, readErrValue(ErrOutOfBounds, t.name, name, int64(off))
	}
	var ref TableRef
	var err error
	switch to := spec.To.(type) {
	case *schema.Table:
		var c *schema.Codec
		if c, err = schema.Compile(to); err == nil {
			ref, err = readAt(t.buf, target, t.oend, c, t.args)
		}
	case *schema.Group:
		var gc *schema.GroupCodec
		if gc, err = schema.CompileGroup(to); err == nil {
			ref, err = readFormatAt(t.buf, target, t.oend, gc, t.args)
		}
	default:
		return TableRef{}, false, readErr(ErrBadFieldAccess, t.name, name)
	}
	if err != nil {
		if re, isRead := err.(*Error); isRead {
			return TableRef{}, false, re
		}
		return TableRef{}, false, readErr(ErrBadFieldAccess, t.name, name)
	}
	return ref, true, nil
}

// instanceSize computes the total byte size of this instance by a
// single forward walk. Only valid for sizable schemas (compiler
// enforced for sequence elements).
func (t TableRef) instanceSize() (int, *Error) {
	size := 0
	for i := range t.desc.Fields {
		fl := &t.desc.Fields[i]
		ok, err := t.present(fl)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		pos, err := t.fieldPos(fl)
		if err != nil {
			return 0, err
		}
		sz := fl.FixedSize
		if sz < 0 {
			count, cerr := t.countOf(fl)
			if cerr != nil {
				return 0, cerr
			}
			var mok bool
			if sz, mok = checkedMulInt(count, fl.Stride); !mok {
				return 0, readErrValue(ErrInvalidCount, t.name, fl.Field.Name, int64(count))
			}
		}
		if end := pos - t.base + sz; end > size {
			size = end
		}
	}
	return size, nil
}
