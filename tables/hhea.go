package tables

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/schema"
)

var hheaSchema = &schema.Table{
	Name: "hhea",
	Tag:  otcodec.T("hhea"),
	Fields: []schema.Field{
		schema.U16("majorVersion", schema.Const(1)),
		schema.U16("minorVersion", schema.Const(0)),
		schema.I16("ascender"),
		schema.I16("descender"),
		schema.I16("lineGap"),
		schema.U16("advanceWidthMax"),
		schema.I16("minLeftSideBearing"),
		schema.I16("minRightSideBearing"),
		schema.I16("xMaxExtent"),
		schema.I16("caretSlopeRise"),
		schema.I16("caretSlopeRun"),
		schema.I16("caretOffset"),
		schema.I16("reserved0"),
		schema.I16("reserved1"),
		schema.I16("reserved2"),
		schema.I16("reserved3"),
		schema.I16("metricDataFormat"),
		schema.U16("numberOfHMetrics"),
	},
}

// Hhea is the codec for the horizontal header table. numberOfHMetrics
// feeds the 'hmtx' codec as an external read argument.
var Hhea = schema.MustCompile(hheaSchema)
