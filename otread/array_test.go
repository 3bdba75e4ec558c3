package otread

import (
	"bytes"
	"testing"

	"github.com/npillmayer/otcodec/internal/testbuf"
	"github.com/npillmayer/otcodec/schema"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

var blobSchema = schema.MustCompile(&schema.Table{
	Name: "blob",
	Fields: []schema.Field{
		schema.U16("kind"),
		schema.RemainderBytes("data"),
	},
})

func TestRemainderArray(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	buf := testbuf.New().U16(1).Bytes([]byte{0xAA, 0xBB, 0xCC}).Build()
	ref, err := Read(buf, 0, blobSchema, nil)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	data, err := ref.Array("data")
	if err != nil {
		t.Fatalf("expected remainder array access, got %v", err)
	}
	if data.Len() != 3 {
		t.Errorf("expected the remainder to hold 3 bytes, is %d", data.Len())
	}
	raw, err := ref.FieldBytes("data")
	if err != nil || !bytes.Equal(raw, []byte{0xAA, 0xBB, 0xCC}) {
		t.Errorf("expected remainder bytes AA BB CC, is % X (%v)", raw, err)
	}

	// an empty remainder is legal
	ref, err = Read(buf[:2], 0, blobSchema, nil)
	if err != nil {
		t.Fatalf("expected header-only table to parse, got %v", err)
	}
	if data, err := ref.Array("data"); err != nil || data.Len() != 0 {
		t.Errorf("expected an empty remainder, is %d (%v)", data.Len(), err)
	}
}

var pstringSchema = &schema.Table{
	Name: "pstring",
	Fields: []schema.Field{
		schema.U8("length", schema.ComputedCount("chars")),
		schema.Array("chars", schema.ScalarElem(schema.TypeU8),
			schema.CountIn("length")),
	},
}

var stringRunSchema = schema.MustCompile(&schema.Table{
	Name: "stringRun",
	Fields: []schema.Field{
		schema.U16("kind"),
		schema.Seq("strings", pstringSchema, schema.Remainder()),
	},
})

func TestSequenceIteration(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	buf := testbuf.New().
		U16(0).
		U8(3).Bytes([]byte("abc")).
		U8(0).
		U8(2).Bytes([]byte("xy")).
		Build()
	ref, err := Read(buf, 0, stringRunSchema, nil)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	seq, err := ref.Seq("strings")
	if err != nil {
		t.Fatalf("expected sequence access, got %v", err)
	}
	var got []string
	for el, err := range seq.All() {
		if err != nil {
			t.Fatalf("expected clean iteration, got %v", err)
		}
		chars, err := el.FieldBytes("chars")
		if err != nil {
			t.Fatalf("expected element chars, got %v", err)
		}
		got = append(got, string(chars))
	}
	if len(got) != 3 || got[0] != "abc" || got[1] != "" || got[2] != "xy" {
		t.Errorf("expected strings [abc,'',xy], is %q", got)
	}
}

func TestSequenceTruncatedElement(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	// the final string claims 9 chars but only 2 remain
	buf := testbuf.New().
		U16(0).
		U8(3).Bytes([]byte("abc")).
		U8(9).Bytes([]byte("xy")).
		Build()
	ref, _ := Read(buf, 0, stringRunSchema, nil)
	seq, err := ref.Seq("strings")
	if err != nil {
		t.Fatalf("expected sequence access, got %v", err)
	}
	if _, err := seq.Collect(); !isKind(err, ErrOutOfBounds) {
		t.Errorf("expected the oversized element to be rejected, got %v", err)
	}
}

func TestSequenceZeroSizeElementGuard(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	empty := &schema.Table{Name: "empty"}
	s := schema.MustCompile(&schema.Table{
		Name: "voidrun",
		Fields: []schema.Field{
			schema.Seq("elems", empty, schema.Remainder()),
		},
	})
	buf := []byte{0x00, 0x00}
	ref, err := Read(buf, 0, s, nil)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	seq, err := ref.Seq("elems")
	if err != nil {
		t.Fatalf("expected sequence access, got %v", err)
	}
	if _, err := seq.Collect(); !isKind(err, ErrOutOfBounds) {
		t.Errorf("expected zero-sized elements to be rejected, got %v", err)
	}
}

// lazyHostSchema places garbage next to a valid scalar: accessing the
// scalar must not touch, and so not trip over, the poisoned offset.
var lazyHostSchema = schema.MustCompile(&schema.Table{
	Name: "lazyhost",
	Fields: []schema.Field{
		schema.U16("good"),
		schema.Offset16("poisoned", offsetTargetSchema),
	},
})

func TestLazyAccessIgnoresUnrelatedDamage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	buf := testbuf.New().U16(77).U16(0xFFFF).Build()
	ref, err := Read(buf, 0, lazyHostSchema, nil)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	if v, err := ref.U16("good"); err != nil || v != 77 {
		t.Errorf("expected the intact field to read as 77, is %d (%v)", v, err)
	}
	if _, err := ref.Offset("poisoned"); !isKind(err, ErrOutOfBounds) {
		t.Errorf("expected the poisoned offset to fail on access, got %v", err)
	}
}

func TestOffsetArrayElements(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	s := schema.MustCompile(&schema.Table{
		Name: "offarr",
		Fields: []schema.Field{
			schema.U16("count"),
			schema.Array("leaves", schema.OffsetElem(2, offsetTargetSchema, true),
				schema.CountIn("count")),
		},
	})
	buf := testbuf.New().
		U16(2).
		U16(6). // leaf 0
		U16(0). // leaf 1 absent
		U16(0xF00D).
		Build()
	ref, err := Read(buf, 0, s, nil)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	leaves, err := ref.Array("leaves")
	if err != nil {
		t.Fatalf("expected offset array access, got %v", err)
	}
	leaf, err := leaves.Offset(0)
	if err != nil {
		t.Fatalf("expected element 0 to resolve, got %v", err)
	}
	if v, _ := leaf.U16("payload"); v != 0xF00D {
		t.Errorf("expected leaf payload 0xF00D, is %#x", v)
	}
	if _, ok, err := leaves.OptOffset(1); ok || err != nil {
		t.Errorf("expected element 1 to be absent, is ok=%v err=%v", ok, err)
	}
}
