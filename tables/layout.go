package tables

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/otread"
	"github.com/npillmayer/otcodec/schema"
)

// Coverage and class definition formats, shared by the layout tables.

var coverageFmt1Schema = &schema.Table{
	Name: "coverage-1",
	Fields: []schema.Field{
		schema.U16("coverageFormat", schema.Const(1)),
		schema.U16("glyphCount", schema.ComputedCount("glyphArray")),
		schema.Array("glyphArray", schema.ScalarElem(schema.TypeU16),
			schema.CountIn("glyphCount")),
	},
}

var rangeRecordSchema = &schema.Table{
	Name: "rangeRecord",
	Fields: []schema.Field{
		schema.U16("startGlyphID"),
		schema.U16("endGlyphID"),
		schema.U16("startCoverageIndex"),
	},
}

var coverageFmt2Schema = &schema.Table{
	Name: "coverage-2",
	Fields: []schema.Field{
		schema.U16("coverageFormat", schema.Const(2)),
		schema.U16("rangeCount", schema.ComputedCount("rangeRecords")),
		schema.Array("rangeRecords", schema.RecordElem(rangeRecordSchema),
			schema.CountIn("rangeCount")),
	},
}

var coverageGroup = &schema.Group{
	Name:      "Coverage",
	DiscWidth: 2,
	Variants: []schema.Variant{
		{Value: 1, Table: coverageFmt1Schema},
		{Value: 2, Table: coverageFmt2Schema},
	},
}

// Coverage is the codec group for coverage tables: format 1 is a sorted
// glyph list, format 2 a list of glyph ranges.
var Coverage = schema.MustCompileGroup(coverageGroup)

var classDefFmt1Schema = &schema.Table{
	Name: "classDef-1",
	Fields: []schema.Field{
		schema.U16("classFormat", schema.Const(1)),
		schema.U16("startGlyphID"),
		schema.U16("glyphCount", schema.ComputedCount("classValueArray")),
		schema.Array("classValueArray", schema.ScalarElem(schema.TypeU16),
			schema.CountIn("glyphCount")),
	},
}

var classRangeRecordSchema = &schema.Table{
	Name: "classRangeRecord",
	Fields: []schema.Field{
		schema.U16("startGlyphID"),
		schema.U16("endGlyphID"),
		schema.U16("class"),
	},
}

var classDefFmt2Schema = &schema.Table{
	Name: "classDef-2",
	Fields: []schema.Field{
		schema.U16("classFormat", schema.Const(2)),
		schema.U16("classRangeCount", schema.ComputedCount("classRangeRecords")),
		schema.Array("classRangeRecords", schema.RecordElem(classRangeRecordSchema),
			schema.CountIn("classRangeCount")),
	},
}

var classDefGroup = &schema.Group{
	Name:      "ClassDef",
	DiscWidth: 2,
	Variants: []schema.Variant{
		{Value: 1, Table: classDefFmt1Schema},
		{Value: 2, Table: classDefFmt2Schema},
	},
}

// ClassDef is the codec group for class definition tables.
var ClassDef = schema.MustCompileGroup(classDefGroup)

// Record codecs of the coverage and class definition formats, for
// building the range arrays directly.
var (
	RangeRecord      = schema.MustCompile(rangeRecordSchema)
	ClassRangeRecord = schema.MustCompile(classRangeRecordSchema)
)

// GlyphCovered looks up a glyph in a parsed coverage table of either
// format and returns its coverage index.
func GlyphCovered(cov otread.TableRef, g otcodec.GlyphIndex) (int, bool, error) {
	switch cov.Format() {
	case 1:
		glyphs, err := cov.Array("glyphArray")
		if err != nil {
			return 0, false, err
		}
		for i := 0; i < glyphs.Len(); i++ {
			gi, err := glyphs.Glyph(i)
			if err != nil {
				return 0, false, err
			}
			if gi == g {
				return i, true, nil
			}
			if gi > g {
				break
			}
		}
		return 0, false, nil
	case 2:
		ranges, err := cov.Array("rangeRecords")
		if err != nil {
			return 0, false, err
		}
		for i := 0; i < ranges.Len(); i++ {
			r, err := ranges.Record(i)
			if err != nil {
				return 0, false, err
			}
			start, err := r.U16("startGlyphID")
			if err != nil {
				return 0, false, err
			}
			end, err := r.U16("endGlyphID")
			if err != nil {
				return 0, false, err
			}
			if uint16(g) >= start && uint16(g) <= end {
				base, err := r.U16("startCoverageIndex")
				if err != nil {
					return 0, false, err
				}
				return int(base) + int(uint16(g)-start), true, nil
			}
		}
		return 0, false, nil
	}
	return 0, false, &otread.Error{Kind: otread.ErrInvalidDiscriminant, Table: "Coverage"}
}

// GlyphClass looks up a glyph's class in a parsed class definition
// table of either format. Glyphs not assigned a class are class 0.
func GlyphClass(cd otread.TableRef, g otcodec.GlyphIndex) (uint16, error) {
	switch cd.Format() {
	case 1:
		start, err := cd.U16("startGlyphID")
		if err != nil {
			return 0, err
		}
		classes, err := cd.Array("classValueArray")
		if err != nil {
			return 0, err
		}
		if uint16(g) < start || int(uint16(g)-start) >= classes.Len() {
			return 0, nil
		}
		return classes.U16(int(uint16(g) - start))
	case 2:
		ranges, err := cd.Array("classRangeRecords")
		if err != nil {
			return 0, err
		}
		for i := 0; i < ranges.Len(); i++ {
			r, err := ranges.Record(i)
			if err != nil {
				return 0, err
			}
			start, err := r.U16("startGlyphID")
			if err != nil {
				return 0, err
			}
			end, err := r.U16("endGlyphID")
			if err != nil {
				return 0, err
			}
			if uint16(g) >= start && uint16(g) <= end {
				return r.U16("class")
			}
		}
		return 0, nil
	}
	return 0, &otread.Error{Kind: otread.ErrInvalidDiscriminant, Table: "ClassDef"}
}
