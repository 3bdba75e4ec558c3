package otread

import (
	"errors"
	"testing"

	"github.com/npillmayer/otcodec/internal/testbuf"
	"github.com/npillmayer/otcodec/schema"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// countedSchema is the canonical counted-array layout: a u16 count
// followed by that many u16 values.
var countedSchema = schema.MustCompile(&schema.Table{
	Name: "counted",
	Fields: []schema.Field{
		schema.U16("count"),
		schema.Array("values", schema.ScalarElem(schema.TypeU16),
			schema.CountIn("count")),
	},
})

func TestReadCountedArray(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	buf := testbuf.New().U16(7)
	for i := 0; i < 7; i++ {
		buf.U16(uint16(100 + i))
	}
	if buf.Len() != 16 {
		t.Fatalf("expected a 16-byte fixture, is %d", buf.Len())
	}
	ref, err := Read(buf.Build(), 0, countedSchema, nil)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	values, err := ref.Array("values")
	if err != nil {
		t.Fatalf("expected array access to succeed, got %v", err)
	}
	if values.Len() != 7 {
		t.Errorf("expected 7 elements, is %d", values.Len())
	}
	v, err := values.U16(6)
	if err != nil || v != 106 {
		t.Errorf("expected element 6 to be 106, is %d (%v)", v, err)
	}
}

func TestReadTruncatedArrayFailsOnAccess(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	// count says 7 elements but one byte is missing
	buf := testbuf.New().U16(7)
	for i := 0; i < 7; i++ {
		buf.U16(uint16(100 + i))
	}
	b := buf.Build()[:15]
	ref, err := Read(b, 0, countedSchema, nil)
	if err != nil {
		t.Fatalf("expected the truncated table to parse lazily, got %v", err)
	}
	count, err := ref.U16("count")
	if err != nil || count != 7 {
		t.Errorf("expected the count field to read as 7, is %d (%v)", count, err)
	}
	if _, err := ref.Array("values"); !isKind(err, ErrOutOfBounds) {
		t.Errorf("expected the full array range to be rejected, got %v", err)
	}
	if _, err := ref.Array("values"); err == nil {
		t.Errorf("expected array access to keep failing")
	}
}

func TestReadTooShortForMinSize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	if _, err := Read([]byte{0x00}, 0, countedSchema, nil); !isKind(err, ErrOutOfBounds) {
		t.Errorf("expected a 1-byte buffer to be rejected, got %v", err)
	}
}

var offsetTargetSchema = &schema.Table{
	Name: "leaf",
	Fields: []schema.Field{
		schema.U16("payload"),
	},
}

var offsetHostSchema = schema.MustCompile(&schema.Table{
	Name: "host",
	Fields: []schema.Field{
		schema.Offset16("required", offsetTargetSchema),
		schema.Offset16("optional", offsetTargetSchema, schema.Nullable()),
	},
})

func TestOffsetResolution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	buf := testbuf.New().
		U16(4).     // required -> leaf at 4
		U16(0).     // optional -> absent
		U16(0xBEEF) // leaf payload
	ref, err := Read(buf.Build(), 0, offsetHostSchema, nil)
	if err != nil {
		t.Fatalf("expected host to parse, got %v", err)
	}
	leaf, err := ref.Offset("required")
	if err != nil {
		t.Fatalf("expected the required offset to resolve, got %v", err)
	}
	if v, _ := leaf.U16("payload"); v != 0xBEEF {
		t.Errorf("expected leaf payload 0xBEEF, is %#x", v)
	}
	if _, ok, err := ref.OptOffset("optional"); ok || err != nil {
		t.Errorf("expected a stored zero to be absent, is ok=%v err=%v", ok, err)
	}
}

var selfRelHostSchema = schema.MustCompile(&schema.Table{
	Name: "selfrelhost",
	Fields: []schema.Field{
		schema.U16("marker"),
		schema.Offset16("data", offsetTargetSchema, schema.SelfRelative()),
	},
})

func TestSelfRelativeOffsetResolution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	buf := testbuf.New().
		U16(0x1111). // marker
		U16(4).      // data -> 4 bytes past the offset field itself
		U16(0).      // filler
		U16(0xBEEF)  // leaf payload at 2+4
	ref, err := Read(buf.Build(), 0, selfRelHostSchema, nil)
	if err != nil {
		t.Fatalf("expected host to parse, got %v", err)
	}
	leaf, err := ref.Offset("data")
	if err != nil {
		t.Fatalf("expected the self-relative offset to resolve, got %v", err)
	}
	if v, _ := leaf.U16("payload"); v != 0xBEEF {
		t.Errorf("expected leaf payload 0xBEEF, is %#x", v)
	}
}

func TestOffsetZeroOnRequiredField(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	buf := testbuf.New().U16(0).U16(0).U16(0xBEEF)
	ref, _ := Read(buf.Build(), 0, offsetHostSchema, nil)
	if _, err := ref.Offset("required"); !isKind(err, ErrMissingRequiredOffset) {
		t.Errorf("expected a required zero offset to be rejected, got %v", err)
	}
}

func TestOffsetBeyondBuffer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	buf := testbuf.New().U16(0x4000).U16(0).U16(0xBEEF)
	ref, _ := Read(buf.Build(), 0, offsetHostSchema, nil)
	if _, err := ref.Offset("required"); !isKind(err, ErrOutOfBounds) {
		t.Errorf("expected an out-of-buffer offset to be rejected, got %v", err)
	}
}

var versionedSchema = schema.MustCompile(&schema.Table{
	Name:       "versioned",
	MinVersion: 0x00010000,
	Fields: []schema.Field{
		schema.MajorMinor("version", schema.ComputedVersion()),
		schema.U16("always"),
		schema.U16("since12", schema.Since(0x00010002)),
	},
})

func TestVersionGatedField(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	old := testbuf.New().U32(0x00010000).U16(11).Build()
	ref, err := Read(old, 0, versionedSchema, nil)
	if err != nil {
		t.Fatalf("expected version 1.0 table to parse, got %v", err)
	}
	if ref.Has("since12") {
		t.Errorf("expected since12 to be absent at version 1.0")
	}
	if _, err := ref.U16("since12"); !isKind(err, ErrFieldNotPresent) {
		t.Errorf("expected access to an absent field to fail, got %v", err)
	}

	young := testbuf.New().U32(0x00010002).U16(11).U16(22).Build()
	ref, err = Read(young, 0, versionedSchema, nil)
	if err != nil {
		t.Fatalf("expected version 1.2 table to parse, got %v", err)
	}
	if v, err := ref.U16("since12"); err != nil || v != 22 {
		t.Errorf("expected since12 to be 22 at version 1.2, is %d (%v)", v, err)
	}
}

var flaggedSchema = schema.MustCompile(&schema.Table{
	Name: "flagged",
	Fields: []schema.Field{
		schema.U16("flags"),
		schema.U16("gated", schema.IfFlag("flags", 3)),
		schema.U16("trailer"),
	},
})

func TestFlagGatedField(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	with := testbuf.New().U16(1 << 3).U16(42).U16(7).Build()
	ref, err := Read(with, 0, flaggedSchema, nil)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	if v, err := ref.U16("gated"); err != nil || v != 42 {
		t.Errorf("expected gated field to be 42, is %d (%v)", v, err)
	}
	if v, err := ref.U16("trailer"); err != nil || v != 7 {
		t.Errorf("expected trailer after gated field to be 7, is %d (%v)", v, err)
	}

	// bit clear: gated field absent, trailer moves up
	without := testbuf.New().U16(0).U16(7).Build()
	ref, err = Read(without, 0, flaggedSchema, nil)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	if ref.Has("gated") {
		t.Errorf("expected gated field to be absent with a clear bit")
	}
	if v, err := ref.U16("trailer"); err != nil || v != 7 {
		t.Errorf("expected trailer at the gated field's position, is %d (%v)", v, err)
	}
}

var argSchema = schema.MustCompile(&schema.Table{
	Name: "metrics",
	Args: []string{"numGlyphs", "numMetrics"},
	Fields: []schema.Field{
		schema.Array("advances", schema.ScalarElem(schema.TypeU16),
			schema.CountFromArg("numMetrics")),
		schema.Array("bearings", schema.ScalarElem(schema.TypeI16),
			schema.CountArgsDiff("numGlyphs", "numMetrics")),
	},
})

func TestExternalArguments(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	buf := testbuf.New().U16(500).U16(510).I16(-3).I16(-4).Build()
	ref, err := Read(buf, 0, argSchema, Args{"numGlyphs": 4, "numMetrics": 2})
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	bearings, err := ref.Array("bearings")
	if err != nil {
		t.Fatalf("expected bearings to be accessible, got %v", err)
	}
	if bearings.Len() != 2 {
		t.Errorf("expected 2 bearings, is %d", bearings.Len())
	}
	if v, _ := bearings.Scalar(1); v != -4 {
		t.Errorf("expected bearing 1 to be -4, is %d", v)
	}

	// without arguments the counts are unresolvable
	ref, err = Read(buf, 0, argSchema, nil)
	if err != nil {
		t.Fatalf("expected parsing without args to succeed, got %v", err)
	}
	if _, err := ref.Array("advances"); !isKind(err, ErrMissingArgument) {
		t.Errorf("expected missing argument to be reported, got %v", err)
	}
}

var recordHostSchema = schema.MustCompile(&schema.Table{
	Name: "rechost",
	Fields: []schema.Field{
		schema.U16("count"),
		schema.Array("recs", schema.RecordElem(&schema.Table{
			Name: "rec",
			Fields: []schema.Field{
				schema.U16("kind"),
				schema.Offset16("leaf", offsetTargetSchema),
			},
		}), schema.CountIn("count")),
	},
})

func TestRecordOffsetsResolveFromContainingTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	// one record at position 2; its leaf offset (6) counts from the
	// table start, not from the record start
	buf := testbuf.New().
		U16(1).      // count
		U16(9).      // rec.kind
		U16(6).      // rec.leaf -> table start + 6
		U16(0xCAFE). // leaf payload
		Build()
	ref, err := Read(buf, 0, recordHostSchema, nil)
	if err != nil {
		t.Fatalf("expected table to parse, got %v", err)
	}
	recs, err := ref.Array("recs")
	if err != nil {
		t.Fatalf("expected record array access, got %v", err)
	}
	rec, err := recs.Record(0)
	if err != nil {
		t.Fatalf("expected record 0, got %v", err)
	}
	leaf, err := rec.Offset("leaf")
	if err != nil {
		t.Fatalf("expected the record's offset to resolve, got %v", err)
	}
	if v, _ := leaf.U16("payload"); v != 0xCAFE {
		t.Errorf("expected leaf payload 0xCAFE, is %#x", v)
	}
}

func TestSystematicTruncationNeverPanics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otcodec")
	defer teardown()
	//
	full := testbuf.New().
		U16(1).U16(9).U16(6).U16(0xCAFE).
		Build()
	for n := 0; n <= len(full); n++ {
		ref, err := Read(full[:n], 0, recordHostSchema, nil)
		if err != nil {
			continue
		}
		recs, err := ref.Array("recs")
		if err != nil {
			continue
		}
		for i := 0; i < recs.Len(); i++ {
			rec, err := recs.Record(i)
			if err != nil {
				continue
			}
			if leaf, err := rec.Offset("leaf"); err == nil {
				_, _ = leaf.U16("payload")
			}
		}
	}
}

func isKind(err error, kind ErrorKind) bool {
	var rerr *Error
	if !errors.As(err, &rerr) {
		return false
	}
	return rerr.Kind == kind
}
