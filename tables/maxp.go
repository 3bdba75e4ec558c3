package tables

import (
	"github.com/npillmayer/otcodec"
	"github.com/npillmayer/otcodec/schema"
)

// Packed Version16Dot16 values discriminating the 'maxp' variants.
const (
	MaxpVersion05 = 0x00005000
	MaxpVersion10 = 0x00010000
)

var maxpHalfSchema = &schema.Table{
	Name: "maxp-0.5",
	Tag:  otcodec.T("maxp"),
	Fields: []schema.Field{
		schema.Version16("version", schema.Const(MaxpVersion05)),
		schema.U16("numGlyphs"),
	},
}

var maxpFullSchema = &schema.Table{
	Name: "maxp-1.0",
	Tag:  otcodec.T("maxp"),
	Fields: []schema.Field{
		schema.Version16("version", schema.Const(MaxpVersion10)),
		schema.U16("numGlyphs"),
		schema.U16("maxPoints"),
		schema.U16("maxContours"),
		schema.U16("maxCompositePoints"),
		schema.U16("maxCompositeContours"),
		schema.U16("maxZones"),
		schema.U16("maxTwilightPoints"),
		schema.U16("maxStorage"),
		schema.U16("maxFunctionDefs"),
		schema.U16("maxInstructionDefs"),
		schema.U16("maxStackElements"),
		schema.U16("maxSizeOfInstructions"),
		schema.U16("maxComponentElements"),
		schema.U16("maxComponentDepth"),
	},
}

// Maxp is the codec group for the maximum-profile table. CFF fonts
// carry the short 0.5 layout, TrueType outlines the full 1.0 layout;
// the leading Version16Dot16 value selects the variant.
var Maxp = schema.MustCompileGroup(&schema.Group{
	Name:      "maxp",
	Tag:       otcodec.T("maxp"),
	DiscWidth: 4,
	Variants: []schema.Variant{
		{Value: MaxpVersion05, Table: maxpHalfSchema},
		{Value: MaxpVersion10, Table: maxpFullSchema},
	},
})
