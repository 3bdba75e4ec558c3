package otwrite

import (
	"github.com/npillmayer/otcodec/otread"
	"github.com/npillmayer/otcodec/schema"
)

// FromRef converts a parsed table view into an owned, mutable table by
// a deep, bounds-validated copy: every scalar read, every offset
// resolved, every sub-table copied. Computed fields are not copied;
// they are re-derived on serialization, so a round-trip re-promotes the
// version and recounts the arrays. Sharing between sub-tables is not
// reconstructed, but equal children collapse again in the serializer's
// object store.
func FromRef(r otread.TableRef) (*Table, error) {
	s := r.Schema()
	if s == nil {
		return nil, writeErr(ErrSchemaMismatch, r.Name(), "")
	}
	c, err := schema.Compile(s)
	if err != nil {
		return nil, err
	}
	t := New(c)
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Compute.Kind != schema.ComputeNone {
			continue
		}
		if !r.Has(f.Name) {
			continue
		}
		if err := copyField(t, r, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func copyField(t *Table, r otread.TableRef, f *schema.Field) error {
	switch f.Kind {
	case schema.KindScalar:
		v, err := r.Scalar(f.Name)
		if err != nil {
			return err
		}
		t.Set(f.Name, v)
		return nil

	case schema.KindRecord:
		rec, err := r.Record(f.Name)
		if err != nil {
			return err
		}
		child, err := FromRef(rec)
		if err != nil {
			return err
		}
		t.Set(f.Name, child)
		return nil

	case schema.KindOffset:
		sub, ok, err := r.OptOffset(f.Name)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		child, err := FromRef(sub)
		if err != nil {
			return err
		}
		t.Set(f.Name, child)
		return nil

	case schema.KindArray:
		return copyArray(t, r, f)

	case schema.KindSeq:
		seq, err := r.Seq(f.Name)
		if err != nil {
			return err
		}
		var children []*Table
		for el, err := range seq.All() {
			if err != nil {
				return err
			}
			child, err := FromRef(el)
			if err != nil {
				return err
			}
			children = append(children, child)
		}
		t.Set(f.Name, children)
		return nil
	}
	return writeErr(ErrBadValue, t.Name(), f.Name)
}

func copyArray(t *Table, r otread.TableRef, f *schema.Field) error {
	a, err := r.Array(f.Name)
	if err != nil {
		return err
	}
	switch {
	case f.Elem.Scalar != nil:
		if f.Elem.Scalar.Width == 1 && !f.Elem.Scalar.Signed {
			t.Set(f.Name, append([]byte(nil), a.Raw()...))
			return nil
		}
		vals := make([]int64, a.Len())
		for i := range vals {
			v, err := a.Scalar(i)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		t.Set(f.Name, vals)
		return nil

	case f.Elem.Record != nil:
		children := make([]*Table, a.Len())
		for i := range children {
			rec, err := a.Record(i)
			if err != nil {
				return err
			}
			child, err := FromRef(rec)
			if err != nil {
				return err
			}
			children[i] = child
		}
		t.Set(f.Name, children)
		return nil

	case f.Elem.Offset != nil:
		children := make([]*Table, a.Len())
		for i := range children {
			sub, ok, err := a.OptOffset(i)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			child, err := FromRef(sub)
			if err != nil {
				return err
			}
			children[i] = child
		}
		t.Set(f.Name, children)
		return nil
	}
	return writeErr(ErrBadValue, t.Name(), f.Name)
}
