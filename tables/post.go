package tables

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/otread"
	"github.com/npillmayer/otcodec/schema"
)

// Packed Version16Dot16 values discriminating the 'post' variants.
const (
	PostVersion10 = 0x00010000
	PostVersion20 = 0x00020000
	PostVersion30 = 0x00030000
)

func postHeaderFields(version uint64) []schema.Field {
	return []schema.Field{
		schema.Version16("version", schema.Const(version)),
		schema.Fixed("italicAngle"),
		schema.I16("underlinePosition"),
		schema.I16("underlineThickness"),
		schema.U32("isFixedPitch"),
		schema.U32("minMemType42"),
		schema.U32("maxMemType42"),
		schema.U32("minMemType1"),
		schema.U32("maxMemType1"),
	}
}

// pascalStringSchema is a length-prefixed string: self-sizing, so a
// sequence of them can be scanned without an external index.
var pascalStringSchema = &schema.Table{
	Name: "pascalString",
	Fields: []schema.Field{
		schema.U8("length", schema.ComputedCount("chars")),
		schema.Array("chars", schema.ScalarElem(schema.TypeU8),
			schema.CountIn("length")),
	},
}

var postV1Schema = &schema.Table{
	Name:   "post-1.0",
	Tag:    otcodec.T("post"),
	Fields: postHeaderFields(PostVersion10),
}

var postV2Schema = &schema.Table{
	Name: "post-2.0",
	Tag:  otcodec.T("post"),
	Fields: append(postHeaderFields(PostVersion20),
		schema.U16("numGlyphs", schema.ComputedCount("glyphNameIndex")),
		schema.Array("glyphNameIndex", schema.ScalarElem(schema.TypeU16),
			schema.CountIn("numGlyphs")),
		schema.Seq("names", pascalStringSchema, schema.Remainder()),
	),
}

var postV3Schema = &schema.Table{
	Name:   "post-3.0",
	Tag:    otcodec.T("post"),
	Fields: postHeaderFields(PostVersion30),
}

// Post is the codec group for the PostScript table. Version 2.0 stores
// glyph names as a trailing run of length-prefixed strings; versions
// 1.0 and 3.0 are header-only.
var Post = schema.MustCompileGroup(&schema.Group{
	Name:      "post",
	Tag:       otcodec.T("post"),
	DiscWidth: 4,
	Variants: []schema.Variant{
		{Value: PostVersion10, Table: postV1Schema},
		{Value: PostVersion20, Table: postV2Schema},
		{Value: PostVersion30, Table: postV3Schema},
	},
})

// PascalString is the codec for one length-prefixed glyph name, for
// building the version 2.0 name run directly.
var PascalString = schema.MustCompile(pascalStringSchema)

// PostGlyphNames collects the name strings of a parsed version 2.0
// 'post' table, in storage order. Indexes below 258 in glyphNameIndex
// refer to the standard Macintosh set and have no entry here.
func PostGlyphNames(post otread.TableRef) ([]string, error) {
	seq, err := post.Seq("names")
	if err != nil {
		return nil, err
	}
	var names []string
	for el, err := range seq.All() {
		if err != nil {
			return nil, err
		}
		chars, err := el.Array("chars")
		if err != nil {
			return nil, err
		}
		names = append(names, string(chars.Raw()))
	}
	return names, nil
}
