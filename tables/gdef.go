package tables

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/schema"
)

// Packed GDEF versions. The version is promoted on write: populating
// markGlyphSetsDef raises it to 1.2, itemVarStore to 1.3.
const (
	GdefVersion10 = 0x00010000
	GdefVersion12 = 0x00010002
	GdefVersion13 = 0x00010003
)

var attachPointSchema = &schema.Table{
	Name: "AttachPoint",
	Fields: []schema.Field{
		schema.U16("pointCount", schema.ComputedCount("pointIndices")),
		schema.Array("pointIndices", schema.ScalarElem(schema.TypeU16),
			schema.CountIn("pointCount")),
	},
}

var attachListSchema = &schema.Table{
	Name: "AttachList",
	Fields: []schema.Field{
		schema.Offset16("coverage", coverageGroup),
		schema.U16("glyphCount", schema.ComputedCount("attachPoints")),
		schema.Array("attachPoints", schema.OffsetElem(2, attachPointSchema, false),
			schema.CountIn("glyphCount")),
	},
}

var caretValueFmt1Schema = &schema.Table{
	Name: "CaretValue-1",
	Fields: []schema.Field{
		schema.U16("caretValueFormat", schema.Const(1)),
		schema.I16("coordinate"),
	},
}

var caretValueFmt2Schema = &schema.Table{
	Name: "CaretValue-2",
	Fields: []schema.Field{
		schema.U16("caretValueFormat", schema.Const(2)),
		schema.U16("caretValuePointIndex"),
	},
}

var caretValueGroup = &schema.Group{
	Name:      "CaretValue",
	DiscWidth: 2,
	Variants: []schema.Variant{
		{Value: 1, Table: caretValueFmt1Schema},
		{Value: 2, Table: caretValueFmt2Schema},
	},
}

var ligGlyphSchema = &schema.Table{
	Name: "LigGlyph",
	Fields: []schema.Field{
		schema.U16("caretCount", schema.ComputedCount("caretValues")),
		schema.Array("caretValues", schema.OffsetElem(2, caretValueGroup, false),
			schema.CountIn("caretCount")),
	},
}

var ligCaretListSchema = &schema.Table{
	Name: "LigCaretList",
	Fields: []schema.Field{
		schema.Offset16("coverage", coverageGroup),
		schema.U16("ligGlyphCount", schema.ComputedCount("ligGlyphs")),
		schema.Array("ligGlyphs", schema.OffsetElem(2, ligGlyphSchema, false),
			schema.CountIn("ligGlyphCount")),
	},
}

var markGlyphSetsSchema = &schema.Table{
	Name: "MarkGlyphSets",
	Fields: []schema.Field{
		schema.U16("format", schema.Const(1)),
		schema.U16("markGlyphSetCount", schema.ComputedCount("coverages")),
		schema.Array("coverages", schema.OffsetElem(4, coverageGroup, false),
			schema.CountIn("markGlyphSetCount")),
	},
}

// itemVarStoreSchema is an opaque carrier for the variation store: the
// codec ferries its bytes without modelling the inner structure.
var itemVarStoreSchema = &schema.Table{
	Name: "ItemVariationStore",
	Fields: []schema.Field{
		schema.U16("format", schema.Const(1)),
		schema.RemainderBytes("data"),
	},
}

var gdefSchema = &schema.Table{
	Name:       "GDEF",
	Tag:        otcodec.T("GDEF"),
	MinVersion: GdefVersion10,
	Fields: []schema.Field{
		schema.MajorMinor("version", schema.ComputedVersion()),
		schema.Offset16("glyphClassDef", classDefGroup, schema.Nullable()),
		schema.Offset16("attachList", attachListSchema, schema.Nullable()),
		schema.Offset16("ligCaretList", ligCaretListSchema, schema.Nullable()),
		schema.Offset16("markAttachClassDef", classDefGroup, schema.Nullable()),
		schema.Offset16("markGlyphSetsDef", markGlyphSetsSchema,
			schema.Nullable(), schema.Since(GdefVersion12)),
		schema.Offset32("itemVarStore", itemVarStoreSchema,
			schema.Nullable(), schema.Since(GdefVersion13)),
	},
}

// Gdef is the codec for the glyph definition table. All sub-tables
// hang off nullable offsets; the two youngest fields are version-gated,
// so the written layout grows with what is populated.
var Gdef = schema.MustCompile(gdefSchema)

// Codecs for the GDEF sub-tables, for building them directly.
var (
	AttachList         = schema.MustCompile(attachListSchema)
	AttachPoint        = schema.MustCompile(attachPointSchema)
	LigCaretList       = schema.MustCompile(ligCaretListSchema)
	LigGlyph           = schema.MustCompile(ligGlyphSchema)
	CaretValue         = schema.MustCompileGroup(caretValueGroup)
	MarkGlyphSets      = schema.MustCompile(markGlyphSetsSchema)
	ItemVariationStore = schema.MustCompile(itemVarStoreSchema)
)
