/*
Package tables declares codecs for a set of sfnt tables and their
sub-structures: 'head', 'hhea', 'hmtx', 'maxp', 'name', 'post' and the
GDEF layout table with the coverage and class-definition formats it
builds on.

The declarations double as a vocabulary tour: version groups ('maxp',
'post'), externally parameterized layouts ('hmtx'), computed counts and
data offsets ('name'), flag- and version-gated fields and nullable
offsets (GDEF). Each compiled codec is exported as a package variable
and is safe for concurrent use.
*/
package tables

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.otcodec'
func tracer() tracing.Trace {
	return tracing.Select("font.otcodec")
}
