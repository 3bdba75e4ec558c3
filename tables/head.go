package tables

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/schema"
)

// headMagic is the fixed magicNumber value of every valid 'head' table.
const headMagic = 0x5F0F3CF5

var headSchema = &schema.Table{
	Name: "head",
	Tag:  otcodec.T("head"),
	Fields: []schema.Field{
		schema.U16("majorVersion", schema.Const(1)),
		schema.U16("minorVersion", schema.Const(0)),
		schema.Fixed("fontRevision"),
		schema.U32("checksumAdjustment"),
		schema.U32("magicNumber", schema.Const(headMagic)),
		schema.U16("flags"),
		schema.U16("unitsPerEm"),
		schema.DateTime("created"),
		schema.DateTime("modified"),
		schema.I16("xMin"),
		schema.I16("yMin"),
		schema.I16("xMax"),
		schema.I16("yMax"),
		schema.U16("macStyle"),
		schema.U16("lowestRecPPEM"),
		schema.I16("fontDirectionHint"),
		schema.I16("indexToLocFormat"),
		schema.I16("glyphDataFormat"),
	},
}

// Head is the codec for the font header table. The layout is fully
// static: every instance is exactly 54 bytes.
var Head = schema.MustCompile(headSchema)
