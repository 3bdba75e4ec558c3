package otwrite

import (
	"context"
	"sync"

	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/schema"
	"golang.org/x/sync/errgroup"
)

// Serialization phase one: walk the owned graph depth-first, encode
// every table into an objectData image and intern it in the store.
// Offsets are left as zeroed placeholders carrying the child's object
// id; phase two (graph.go) resolves them.

// tableWriter tracks one serialization run.
type tableWriter struct {
	store    *objectStore
	emitted  map[*Table]objectID // shared children serialize once
	visiting map[*Table]bool     // cycle detection along the current path
}

func newTableWriter() *tableWriter {
	return &tableWriter{
		store:    newObjectStore(),
		emitted:  make(map[*Table]objectID),
		visiting: make(map[*Table]bool),
	}
}

// Serialize encodes the owned table graph rooted at t into its binary
// form. It fails, with no partial output, on builder errors accumulated
// by Set, on cycles, on missing non-nullable offset targets and on
// offset distances exceeding their stored width.
func Serialize(t *Table) ([]byte, error) {
	if t == nil {
		return nil, writeErr(ErrSchemaMismatch, "", "")
	}
	if err := t.Err(); err != nil {
		return nil, err
	}
	if t.codec == nil {
		return nil, writeErr(ErrSchemaMismatch, "", "")
	}
	w := newTableWriter()
	root, err := w.emit(t)
	if err != nil {
		return nil, err
	}
	order := layoutOrder(w.store, root)
	out, err := assemble(w.store, order)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("serialized %s: %d sub-tables, %d bytes",
		t.Name(), len(order), len(out))
	return out, nil
}

// SerializeAll serializes independent root tables concurrently, one
// goroutine per root, and fails as a whole on the first error. Roots
// must not share *Table nodes with each other.
func SerializeAll(ctx context.Context, roots map[otcodec.Tag]*Table) (map[otcodec.Tag][]byte, error) {
	g, _ := errgroup.WithContext(ctx)
	out := make(map[otcodec.Tag][]byte, len(roots))
	var mu sync.Mutex
	for tag, root := range roots {
		g.Go(func() error {
			b, err := Serialize(root)
			if err != nil {
				return err
			}
			mu.Lock()
			out[tag] = b
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// emit encodes one table node and interns it, reusing the id of an
// already-emitted node for shared children.
func (w *tableWriter) emit(t *Table) (objectID, error) {
	if t == nil {
		return 0, writeErr(ErrSchemaMismatch, "", "")
	}
	if err := t.Err(); err != nil {
		return 0, err
	}
	if t.codec == nil {
		return 0, writeErr(ErrSchemaMismatch, "", "")
	}
	if id, ok := w.emitted[t]; ok {
		return id, nil
	}
	if w.visiting[t] {
		return 0, writeErr(ErrCyclicGraph, t.Name(), "")
	}
	w.visiting[t] = true
	defer delete(w.visiting, t)

	d := &objectData{name: t.Name()}
	if err := w.emitFields(t, d); err != nil {
		return 0, err
	}
	if t.pad2 && len(d.bytes)%2 != 0 {
		d.bytes = append(d.bytes, 0)
	}
	id := w.store.intern(d)
	w.emitted[t] = id
	return id, nil
}

// emitFields appends the encoded fields of t to d. Inline records and
// sequence elements recurse into the same image, so their offsets share
// the enclosing table's origin.
func (w *tableWriter) emitFields(t *Table, d *objectData) error {
	rules := t.codec.Write.Rules
	version := t.promote()

	// emitted scalar values, for flag gates evaluated further down
	scalars := make(map[int]int64, len(rules))
	// positions just past each emitted field, for data-offset patches
	fieldEnd := make(map[int]int, len(rules))
	type pendingPatch struct {
		pos      int
		width    int
		refIndex int
		field    string
	}
	var patches []pendingPatch

	for i := range rules {
		rule := &rules[i]
		f := rule.Field

		present, err := writePresent(t, f, rule, version, scalars)
		if err != nil {
			return err
		}
		val, populated := t.vals[f.Name]
		if !present {
			if populated {
				return writeErr(ErrBadValue, t.Name(), f.Name)
			}
			continue
		}

		switch f.Kind {
		case schema.KindScalar:
			v, err := w.scalarValue(t, f, rule, version, val, populated)
			if err != nil {
				return err
			}
			if f.Compute.Kind == schema.ComputeDataOffset {
				patches = append(patches, pendingPatch{
					pos:      len(d.bytes),
					width:    f.Scalar.Width,
					refIndex: rule.RefIndex,
					field:    f.Name,
				})
			}
			scalars[i] = v
			writeScalar(d, v, f.Scalar.Width)

		case schema.KindRecord:
			if err := w.emitChildInline(t, f, f.Record, val, populated, d); err != nil {
				return err
			}

		case schema.KindOffset:
			if err := w.emitOffset(t, f.Name, &f.Offset, val, populated, d); err != nil {
				return err
			}

		case schema.KindArray:
			if err := w.emitArray(t, f, val, populated, d); err != nil {
				return err
			}

		case schema.KindSeq:
			if err := w.emitSeq(t, f, val, populated, d); err != nil {
				return err
			}
		}
		fieldEnd[i] = len(d.bytes)
	}

	for _, p := range patches {
		end, ok := fieldEnd[p.refIndex]
		if !ok {
			return writeErr(ErrBadValue, t.Name(), p.field)
		}
		if end > maxOffset(p.width) {
			return writeErrWidth(ErrOffsetOverflow, t.Name(), p.field, p.width*8)
		}
		patchScalar(d.bytes, p.pos, p.width, uint64(end))
	}
	return nil
}

// writePresent decides whether a field occupies bytes in the output.
// Version gates compare against the promoted version; flag gates read
// the already-emitted flags scalar.
func writePresent(t *Table, f *schema.Field, rule *schema.WriteRule, version uint32, scalars map[int]int64) (bool, error) {
	switch f.Presence.Kind {
	case schema.PresAlways:
		return true, nil
	case schema.PresSince:
		return version >= f.Presence.Version, nil
	case schema.PresIfFlag:
		flags, ok := scalars[rule.FlagIndex]
		if !ok {
			return false, writeErr(ErrBadValue, t.Name(), f.Name)
		}
		return flags&(1<<f.Presence.Bit) != 0, nil
	}
	return false, writeErr(ErrBadValue, t.Name(), f.Name)
}

// scalarValue resolves a scalar field's value: computed fields derive
// it from the table, plain fields take the caller-set value (zero if
// unset) after a range check against the declared width.
func (w *tableWriter) scalarValue(t *Table, f *schema.Field, rule *schema.WriteRule, version uint32, val interface{}, populated bool) (int64, error) {
	switch f.Compute.Kind {
	case schema.ComputeConst:
		return int64(f.Compute.Value), nil
	case schema.ComputeVersion:
		return int64(version), nil
	case schema.ComputeCount:
		ref := t.codec.Table.Fields[rule.RefIndex].Name
		n := 0
		if rv, ok := t.vals[ref]; ok {
			ln, ok := sliceLen(rv)
			if !ok {
				return 0, writeErr(ErrBadValue, t.Name(), f.Name)
			}
			n = ln
		}
		n -= f.Compute.Delta
		if n < 0 || !fitsWidth(int64(n), f.Scalar.Width, f.Scalar.Signed) {
			return 0, writeErr(ErrBadValue, t.Name(), f.Name)
		}
		return int64(n), nil
	case schema.ComputeDataOffset:
		return 0, nil // patched once field positions are known
	}
	if !populated {
		return 0, nil
	}
	v, ok := rawScalar(val)
	if !ok || !fitsWidth(v, f.Scalar.Width, f.Scalar.Signed) {
		return 0, writeErr(ErrBadValue, t.Name(), f.Name)
	}
	return v, nil
}

// emitChildInline encodes an inline record into the enclosing image.
// An unset record of fixed shape is emitted as zero bytes.
func (w *tableWriter) emitChildInline(t *Table, f *schema.Field, rec *schema.Table, val interface{}, populated bool, d *objectData) error {
	if !populated {
		c, err := schema.Compile(rec)
		if err != nil {
			return err
		}
		d.bytes = append(d.bytes, make([]byte, c.Read.MinSize)...)
		return nil
	}
	child, ok := val.(*Table)
	if !ok {
		return writeErr(ErrBadValue, t.Name(), f.Name)
	}
	if child.codec == nil || child.codec.Table != rec {
		return writeErr(ErrSchemaMismatch, t.Name(), f.Name)
	}
	if err := child.Err(); err != nil {
		return err
	}
	return w.emitFields(child, d)
}

// emitOffset encodes one stored offset: a zeroed placeholder plus an
// offset record naming the emitted child. Nullable offsets without a
// child encode as a literal zero.
func (w *tableWriter) emitOffset(t *Table, field string, spec *schema.OffsetSpec, val interface{}, populated bool, d *objectData) error {
	if !populated {
		if !spec.Nullable {
			return writeErr(ErrMissingTarget, t.Name(), field)
		}
		d.bytes = append(d.bytes, make([]byte, spec.Width)...)
		return nil
	}
	child, ok := val.(*Table)
	if !ok {
		return writeErr(ErrBadValue, t.Name(), field)
	}
	if err := checkTarget(t, field, spec.To, child); err != nil {
		return err
	}
	id, err := w.emit(child)
	if err != nil {
		return err
	}
	// self-relative offsets count from the placeholder's own position
	adjust := 0
	if spec.SelfRelative {
		adjust = len(d.bytes)
	}
	d.offsets = append(d.offsets, offsetRecord{
		pos:        len(d.bytes),
		width:      spec.Width,
		child:      id,
		adjustment: adjust,
	})
	d.bytes = append(d.bytes, make([]byte, spec.Width)...)
	return nil
}

// checkTarget verifies that a child table's schema matches the offset
// field's declared target (a single layout, or any variant of a group).
func checkTarget(t *Table, field string, to schema.Target, child *Table) error {
	if child.codec == nil {
		return writeErr(ErrSchemaMismatch, t.Name(), field)
	}
	switch target := to.(type) {
	case *schema.Table:
		if child.codec.Table != target {
			return writeErr(ErrSchemaMismatch, t.Name(), field)
		}
	case *schema.Group:
		for _, v := range target.Variants {
			if child.codec.Table == v.Table {
				return nil
			}
		}
		return writeErr(ErrSchemaMismatch, t.Name(), field)
	}
	return nil
}

// emitArray encodes a counted array. Scalar elements come from scalar
// slices, record elements from []*Table emitted inline, offset elements
// from []*Table emitted as children. An unset array is empty.
func (w *tableWriter) emitArray(t *Table, f *schema.Field, val interface{}, populated bool, d *objectData) error {
	if !populated {
		return nil
	}
	switch {
	case f.Elem.Scalar != nil:
		if b, ok := val.([]byte); ok && f.Elem.Scalar.Width == 1 && !f.Elem.Scalar.Signed {
			d.bytes = append(d.bytes, b...)
			return nil
		}
		n, ok := sliceLen(val)
		if !ok {
			return writeErr(ErrBadValue, t.Name(), f.Name)
		}
		for i := 0; i < n; i++ {
			v, ok := sliceElem(val, i)
			if !ok || !fitsWidth(v, f.Elem.Scalar.Width, f.Elem.Scalar.Signed) {
				return writeErr(ErrBadValue, t.Name(), f.Name)
			}
			writeScalar(d, v, f.Elem.Scalar.Width)
		}
		return nil

	case f.Elem.Record != nil:
		children, ok := val.([]*Table)
		if !ok {
			return writeErr(ErrBadValue, t.Name(), f.Name)
		}
		for _, child := range children {
			if err := w.emitChildInline(t, f, f.Elem.Record, child, child != nil, d); err != nil {
				return err
			}
		}
		return nil

	case f.Elem.Offset != nil:
		children, ok := val.([]*Table)
		if !ok {
			return writeErr(ErrBadValue, t.Name(), f.Name)
		}
		for _, child := range children {
			var cv interface{}
			if child != nil {
				cv = child
			}
			if err := w.emitOffset(t, f.Name, f.Elem.Offset, cv, child != nil, d); err != nil {
				return err
			}
		}
		return nil
	}
	return writeErr(ErrBadValue, t.Name(), f.Name)
}

// emitSeq encodes a sequence of per-element variable-sized records,
// back to back, into the enclosing image.
func (w *tableWriter) emitSeq(t *Table, f *schema.Field, val interface{}, populated bool, d *objectData) error {
	if !populated {
		return nil
	}
	children, ok := val.([]*Table)
	if !ok {
		return writeErr(ErrBadValue, t.Name(), f.Name)
	}
	for _, child := range children {
		if child == nil {
			return writeErr(ErrBadValue, t.Name(), f.Name)
		}
		if child.codec == nil || child.codec.Table != f.Record {
			return writeErr(ErrSchemaMismatch, t.Name(), f.Name)
		}
		if err := child.Err(); err != nil {
			return err
		}
		if err := w.emitFields(child, d); err != nil {
			return err
		}
	}
	return nil
}

// writeScalar appends a big-endian scalar of the given byte width.
func writeScalar(d *objectData, v int64, width int) {
	u := uint64(v) // two's complement, masked by width below
	switch width {
	case 1:
		d.bytes = append(d.bytes, byte(u))
	case 2:
		d.bytes = append(d.bytes, byte(u>>8), byte(u))
	case 3:
		d.bytes = append(d.bytes, byte(u>>16), byte(u>>8), byte(u))
	case 4:
		d.bytes = append(d.bytes, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
	case 8:
		d.bytes = append(d.bytes,
			byte(u>>56), byte(u>>48), byte(u>>40), byte(u>>32),
			byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
	}
}
