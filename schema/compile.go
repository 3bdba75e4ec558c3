package schema

import "fmt"

// Compiling a schema into reader and writer descriptors.
//
// Fields are processed in declaration order, maintaining a running byte
// cursor: a concrete constant while the prefix consists of always-present
// fixed-width fields, plus symbolic terms for every earlier field whose
// size is only known at read time (count-dependent arrays, version- or
// flag-gated fields). Each field's layout captures the cursor at its
// start; the read runtime folds the terms against a concrete buffer.

// FieldLayout is the reader rule for one field: where it starts, how big
// it is, and which earlier fields its position and presence depend on.
type FieldLayout struct {
	Field *Field
	Index int

	// Start position: Base plus the runtime sizes of the fields listed
	// in Terms (indices of earlier dynamic or gated fields).
	Base  int
	Terms []int

	// FixedSize is the field's byte size if statically known, else -1.
	FixedSize int
	// Stride is the element byte stride for arrays; -1 for sequences.
	Stride int

	// FlagIndex is the index of the gating flags field (PresIfFlag), else -1.
	FlagIndex int
	// CountIndex is the index of the count field (CountField), else -1.
	CountIndex int
}

// ReaderDesc drives the zero-copy read runtime for one table layout.
type ReaderDesc struct {
	// MinSize is the statically known minimum table size: the sum of all
	// always-present fixed-width fields plus the smallest legal
	// variable-length suffix (zero-element arrays).
	MinSize int
	// Static is true if every field is always present with fixed size,
	// i.e. MinSize is the exact table size.
	Static bool
	// VersionField is the index of the version discriminant, or -1.
	VersionField int
	// Sizable is true if an instance's total size can be computed by a
	// single forward walk without external arguments (required for
	// sequence elements).
	Sizable bool

	// Deps lists, in declaration order, the fields other fields depend
	// on (version discriminant, flag fields, count fields). The read
	// runtime resolves exactly these when a table ref is constructed.
	Deps []int

	Fields []FieldLayout
	index  map[string]int
}

// FieldIndex returns the index of the named field.
func (d *ReaderDesc) FieldIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// WriteRule is the writer rule for one field: the field itself plus the
// resolved index of the sibling a computed value derives from.
type WriteRule struct {
	Field *Field
	// RefIndex is the index of the Compute.Ref sibling, or -1.
	RefIndex int
	// FlagIndex mirrors FieldLayout.FlagIndex for gated fields.
	FlagIndex int
}

// WriterDesc drives the serialization runtime for one table layout.
type WriterDesc struct {
	// VersionField is the index of the version discriminant, or -1.
	VersionField int
	Rules        []WriteRule
}

// Codec is the compiled form of a table schema: the reader and writer
// descriptors plus the schema they were compiled from.
type Codec struct {
	Table *Table
	Read  ReaderDesc
	Write WriterDesc
}

// GroupCodec is the compiled form of a format group: one codec per
// variant, selectable by discriminant value.
type GroupCodec struct {
	Group   *Group
	byValue map[uint64]*Codec
}

// Variant returns the codec for a discriminant value.
func (g *GroupCodec) Variant(v uint64) (*Codec, bool) {
	c, ok := g.byValue[v]
	return c, ok
}

// DiscWidth returns the byte width of the group's discriminant scalar.
func (g *GroupCodec) DiscWidth() int {
	return g.Group.DiscWidth
}

// Compile translates a table schema into its reader and writer
// descriptors, or fails with a ValidationError. Compilation results are
// memoized on the schema; Compile is meant to run at package init time
// and is not safe for concurrent use on the same schema.
func Compile(t *Table) (*Codec, error) {
	return compileTable(t, make(map[*Table]bool))
}

// MustCompile is like Compile but panics on a validation error. Schema
// definitions are program constants, so this mirrors regexp.MustCompile.
func MustCompile(t *Table) *Codec {
	c, err := Compile(t)
	if err != nil {
		panic(err)
	}
	return c
}

// CompileGroup compiles every variant of a format group and validates
// that each variant leads with the group's discriminant, declared Const
// with the variant's value.
func CompileGroup(g *Group) (*GroupCodec, error) {
	if g.codec != nil {
		return g.codec, nil
	}
	if g.DiscWidth != 2 && g.DiscWidth != 4 {
		return nil, &ValidationError{Table: g.Name,
			Issue: "group discriminant width must be 2 or 4 bytes"}
	}
	if len(g.Variants) == 0 {
		return nil, &ValidationError{Table: g.Name, Issue: "group has no variants"}
	}
	gc := &GroupCodec{Group: g, byValue: make(map[uint64]*Codec, len(g.Variants))}
	g.codec = gc // pre-assign so self-referential targets terminate
	for _, v := range g.Variants {
		if v.Table == nil {
			return nil, &ValidationError{Table: g.Name,
				Issue: fmt.Sprintf("variant %d has no layout", v.Value)}
		}
		c, err := Compile(v.Table)
		if err != nil {
			return nil, err
		}
		if _, dup := gc.byValue[v.Value]; dup {
			return nil, &ValidationError{Table: g.Name,
				Issue: fmt.Sprintf("duplicate variant value %d", v.Value)}
		}
		if err := checkDiscriminant(g, v, c); err != nil {
			return nil, err
		}
		gc.byValue[v.Value] = c
	}
	tracer().Debugf("compiled format group %s with %d variants", g.Name, len(g.Variants))
	return gc, nil
}

// MustCompileGroup is like CompileGroup but panics on a validation error.
func MustCompileGroup(g *Group) *GroupCodec {
	gc, err := CompileGroup(g)
	if err != nil {
		panic(err)
	}
	return gc
}

func checkDiscriminant(g *Group, v Variant, c *Codec) error {
	if len(c.Table.Fields) == 0 {
		return invalid(c.Table, "", "variant of %s has no fields", g.Name)
	}
	first := &c.Table.Fields[0]
	if first.Kind != KindScalar || first.Scalar.Width != g.DiscWidth {
		return invalid(c.Table, first.Name,
			"variant of %s must lead with a %d-byte discriminant", g.Name, g.DiscWidth)
	}
	if first.Compute.Kind != ComputeConst || first.Compute.Value != v.Value {
		return invalid(c.Table, first.Name,
			"discriminant must be declared Const(%d)", v.Value)
	}
	return nil
}

// compileTable does the real work; inProgress tracks inline (record and
// sequence) schema nesting to reject recursive inline structures, which
// would have unbounded size.
func compileTable(t *Table, inProgress map[*Table]bool) (*Codec, error) {
	if t.codec != nil {
		return t.codec, nil
	}
	if inProgress[t] {
		return nil, invalid(t, "", "recursive inline record")
	}
	inProgress[t] = true
	defer delete(inProgress, t)

	c := &Codec{Table: t}
	d := &c.Read
	d.VersionField = -1
	d.Static = true
	d.Sizable = true
	d.index = make(map[string]int, len(t.Fields))

	args := make(map[string]bool, len(t.Args))
	for _, a := range t.Args {
		if args[a] {
			return nil, invalid(t, "", "duplicate read argument %q", a)
		}
		args[a] = true
	}

	base := 0
	var terms []int
	sealed := false // a remainder/sequence field has been seen

	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Name == "" {
			return nil, invalid(t, "", "field %d has no name", i)
		}
		if _, dup := d.index[f.Name]; dup {
			return nil, invalid(t, f.Name, "duplicate field name")
		}
		if sealed {
			return nil, invalid(t, f.Name,
				"field declared after a remainder or sequence field")
		}

		fl := FieldLayout{
			Field:      f,
			Index:      i,
			Base:       base,
			Terms:      append([]int(nil), terms...),
			FixedSize:  -1,
			FlagIndex:  -1,
			CountIndex: -1,
		}

		if err := checkPresence(t, d, f, i, &fl); err != nil {
			return nil, err
		}
		if err := checkCompute(t, d, f, i); err != nil {
			return nil, err
		}
		if f.Kind != KindOffset && f.Offset.Nullable {
			return nil, invalid(t, f.Name, "nullable attribute on non-offset field")
		}
		if f.Kind != KindOffset && f.Offset.SelfRelative {
			return nil, invalid(t, f.Name, "self-relative attribute on non-offset field")
		}

		switch f.Kind {
		case KindScalar:
			if !validScalarWidth(f.Scalar.Width) {
				return nil, invalid(t, f.Name, "invalid scalar width %d", f.Scalar.Width)
			}
			fl.FixedSize = f.Scalar.Width

		case KindRecord:
			size, err := inlineRecordSize(t, f, f.Record, inProgress)
			if err != nil {
				return nil, err
			}
			fl.FixedSize = size

		case KindOffset:
			if f.Offset.Width < 2 || f.Offset.Width > 4 {
				return nil, invalid(t, f.Name, "invalid offset width %d", f.Offset.Width)
			}
			if f.Offset.To == nil {
				return nil, invalid(t, f.Name, "offset field has no target")
			}
			fl.FixedSize = f.Offset.Width

		case KindArray:
			stride, err := elementStride(t, f, &f.Elem, inProgress)
			if err != nil {
				return nil, err
			}
			fl.Stride = stride
			if err := checkCount(t, d, f, i, args, &fl); err != nil {
				return nil, err
			}
			switch f.Count.Kind {
			case CountFixed:
				fl.FixedSize = f.Count.N * stride
			case CountRemainder:
				sealed = true
			case CountArg, CountArgDiff:
				d.Sizable = false
			}

		case KindSeq:
			fl.Stride = -1
			if f.Record == nil {
				return nil, invalid(t, f.Name, "sequence field has no element schema")
			}
			ec, err := compileTable(f.Record, inProgress)
			if err != nil {
				return nil, err
			}
			if !ec.Read.Sizable {
				return nil, invalid(t, f.Name,
					"sequence element %s is not self-sizing", f.Record.Name)
			}
			if err := checkCount(t, d, f, i, args, &fl); err != nil {
				return nil, err
			}
			// element sizes require a forward scan, so nothing may follow
			sealed = true

		default:
			return nil, invalid(t, f.Name, "unknown field kind")
		}

		// advance the cursor and the minimum-size accumulator
		if f.Presence.Kind == PresAlways && fl.FixedSize >= 0 {
			base += fl.FixedSize
			d.MinSize += fl.FixedSize
		} else {
			terms = append(terms, i)
			d.Static = false
			d.Sizable = d.Sizable && sizableTerm(f, fl.FixedSize)
		}

		d.index[f.Name] = i
		d.Fields = append(d.Fields, fl)
	}

	if d.VersionField >= 0 {
		vfl := &d.Fields[d.VersionField]
		if len(vfl.Terms) != 0 || vfl.Field.Presence.Kind != PresAlways {
			return nil, invalid(t, vfl.Field.Name,
				"version discriminant must be at a fixed, always-present position")
		}
	}

	// collect dependency fields, in declaration order
	dep := make(map[int]bool)
	if d.VersionField >= 0 {
		dep[d.VersionField] = true
	}
	for i := range d.Fields {
		if d.Fields[i].FlagIndex >= 0 {
			dep[d.Fields[i].FlagIndex] = true
		}
		if d.Fields[i].CountIndex >= 0 {
			dep[d.Fields[i].CountIndex] = true
		}
	}
	for i := range d.Fields {
		if dep[i] {
			d.Deps = append(d.Deps, i)
		}
	}

	// writer rules mirror the field order
	c.Write.VersionField = d.VersionField
	for i := range d.Fields {
		fl := &d.Fields[i]
		rule := WriteRule{Field: fl.Field, RefIndex: -1, FlagIndex: fl.FlagIndex}
		if fl.Field.Compute.Ref != "" {
			ri, ok := d.index[fl.Field.Compute.Ref]
			if !ok {
				return nil, invalid(t, fl.Field.Name,
					"computed value references unknown field %q", fl.Field.Compute.Ref)
			}
			rule.RefIndex = ri
		}
		c.Write.Rules = append(c.Write.Rules, rule)
	}

	t.codec = c // memoize before descending into offset targets

	// compile offset targets so that schema errors surface here, not at
	// first use
	for i := range t.Fields {
		f := &t.Fields[i]
		var to Target
		switch {
		case f.Kind == KindOffset:
			to = f.Offset.To
		case f.Kind == KindArray && f.Elem.Offset != nil:
			to = f.Elem.Offset.To
		}
		if to == nil {
			continue
		}
		var err error
		switch target := to.(type) {
		case *Table:
			_, err = compileTable(target, make(map[*Table]bool))
		case *Group:
			_, err = CompileGroup(target)
		default:
			err = invalid(t, f.Name, "unsupported offset target type")
		}
		if err != nil {
			t.codec = nil
			return nil, err
		}
	}

	tracer().Debugf("compiled schema %s: %d fields, min size %d",
		t.Name, len(d.Fields), d.MinSize)
	return c, nil
}

func validScalarWidth(w int) bool {
	switch w {
	case 1, 2, 3, 4, 8:
		return true
	}
	return false
}

// sizableTerm reports whether a dynamic or gated field's size can be
// computed by a forward walk over the enclosing instance alone.
func sizableTerm(f *Field, fixedSize int) bool {
	if fixedSize >= 0 {
		return true // gated fixed-width field
	}
	if f.Kind == KindArray {
		switch f.Count.Kind {
		case CountFixed, CountField:
			return true
		}
	}
	return false
}

func checkPresence(t *Table, d *ReaderDesc, f *Field, i int, fl *FieldLayout) error {
	switch f.Presence.Kind {
	case PresAlways:
		return nil
	case PresSince:
		if d.VersionField < 0 {
			return invalid(t, f.Name,
				"since_version gate without a preceding version discriminant")
		}
		return nil
	case PresIfFlag:
		fi, ok := d.index[f.Presence.FlagField]
		if !ok {
			return invalid(t, f.Name,
				"if_flag references field %q declared after it or not at all",
				f.Presence.FlagField)
		}
		ff := &t.Fields[fi]
		if ff.Kind != KindScalar || ff.Scalar.Signed {
			return invalid(t, f.Name,
				"if_flag field %q is not an unsigned scalar", f.Presence.FlagField)
		}
		if f.Presence.Bit >= uint(ff.Scalar.Width)*8 {
			return invalid(t, f.Name, "if_flag bit %d exceeds flag field width",
				f.Presence.Bit)
		}
		fl.FlagIndex = fi
		return nil
	}
	return invalid(t, f.Name, "unknown presence kind")
}

func checkCompute(t *Table, d *ReaderDesc, f *Field, i int) error {
	switch f.Compute.Kind {
	case ComputeNone:
		return nil
	case ComputeConst, ComputeCount, ComputeDataOffset:
		if f.Kind != KindScalar {
			return invalid(t, f.Name, "computed value on non-scalar field")
		}
		return nil
	case ComputeVersion:
		if f.Kind != KindScalar {
			return invalid(t, f.Name, "version discriminant must be a scalar")
		}
		if d.VersionField >= 0 {
			return invalid(t, f.Name, "table has more than one version discriminant")
		}
		d.VersionField = i
		return nil
	}
	return invalid(t, f.Name, "unknown compute kind")
}

func checkCount(t *Table, d *ReaderDesc, f *Field, i int, args map[string]bool, fl *FieldLayout) error {
	switch f.Count.Kind {
	case CountFixed:
		if f.Count.N < 0 {
			return invalid(t, f.Name, "negative element count %d", f.Count.N)
		}
		return nil
	case CountField:
		ci, ok := d.index[f.Count.Ref]
		if !ok {
			return invalid(t, f.Name,
				"count references field %q declared after it or not at all", f.Count.Ref)
		}
		cf := &t.Fields[ci]
		if cf.Kind != KindScalar || cf.Scalar.Signed {
			return invalid(t, f.Name,
				"count field %q is not an unsigned scalar", f.Count.Ref)
		}
		fl.CountIndex = ci
		return nil
	case CountRemainder:
		return nil // finality enforced via the sealed marker
	case CountArg:
		if !args[f.Count.Arg] {
			return invalid(t, f.Name, "count argument %q is not declared", f.Count.Arg)
		}
		return nil
	case CountArgDiff:
		if !args[f.Count.Arg] {
			return invalid(t, f.Name, "count argument %q is not declared", f.Count.Arg)
		}
		if !args[f.Count.MinusArg] {
			return invalid(t, f.Name, "count argument %q is not declared", f.Count.MinusArg)
		}
		return nil
	}
	return invalid(t, f.Name, "unknown count kind")
}

func inlineRecordSize(t *Table, f *Field, rec *Table, inProgress map[*Table]bool) (int, error) {
	if rec == nil {
		return 0, invalid(t, f.Name, "record field has no schema")
	}
	rc, err := compileTable(rec, inProgress)
	if err != nil {
		return 0, err
	}
	if !rc.Read.Static {
		return 0, invalid(t, f.Name,
			"inline record %s is not fixed-shape", rec.Name)
	}
	return rc.Read.MinSize, nil
}

func elementStride(t *Table, f *Field, e *Element, inProgress map[*Table]bool) (int, error) {
	switch {
	case e.Scalar != nil:
		if !validScalarWidth(e.Scalar.Width) {
			return 0, invalid(t, f.Name, "invalid element width %d", e.Scalar.Width)
		}
		return e.Scalar.Width, nil
	case e.Record != nil:
		size, err := inlineRecordSize(t, f, e.Record, inProgress)
		if err != nil {
			return 0, err
		}
		if size == 0 {
			return 0, invalid(t, f.Name,
				"array element record %s has no fields", e.Record.Name)
		}
		return size, nil
	case e.Offset != nil:
		if e.Offset.Width < 2 || e.Offset.Width > 4 {
			return 0, invalid(t, f.Name, "invalid element offset width %d", e.Offset.Width)
		}
		if e.Offset.To == nil {
			return 0, invalid(t, f.Name, "element offset has no target")
		}
		return e.Offset.Width, nil
	}
	return 0, invalid(t, f.Name, "array element has no type")
}
