package tables

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/schema"
)

// Read-argument names of the 'hmtx' codec. Neither count is stored in
// the table itself: numberOfHMetrics lives in 'hhea', numGlyphs in
// 'maxp'.
const (
	ArgNumGlyphs        = "numGlyphs"
	ArgNumberOfHMetrics = "numberOfHMetrics"
)

var longHorMetricSchema = &schema.Table{
	Name: "longHorMetric",
	Fields: []schema.Field{
		schema.U16("advanceWidth"),
		schema.I16("lsb"),
	},
}

var hmtxSchema = &schema.Table{
	Name: "hmtx",
	Tag:  otcodec.T("hmtx"),
	Args: []string{ArgNumGlyphs, ArgNumberOfHMetrics},
	Fields: []schema.Field{
		schema.Array("hMetrics", schema.RecordElem(longHorMetricSchema),
			schema.CountFromArg(ArgNumberOfHMetrics)),
		schema.Array("leftSideBearings", schema.ScalarElem(schema.TypeI16),
			schema.CountArgsDiff(ArgNumGlyphs, ArgNumberOfHMetrics)),
	},
}

// Hmtx is the codec for the horizontal metrics table. Reading requires
// both external arguments; trailing glyphs past numberOfHMetrics repeat
// the last advance width and store only a left side bearing.
var Hmtx = schema.MustCompile(hmtxSchema)

// LongHorMetric is the codec for one advance/bearing pair, for building
// the hMetrics array directly.
var LongHorMetric = schema.MustCompile(longHorMetricSchema)
