/*
Package schema describes the binary layout of font tables.

A table schema is an ordered list of fields. Each field has a semantic
type — fixed-width scalar, inline record, stored offset to a sub-table,
or array — and attributes controlling presence (version gates, flag
gates), element counts and write-time derivation (computed counts,
constant formats, promoted versions). Field order is load-bearing:
the byte position of a field depends on the sizes of all fields declared
before it.

Schemas are pure data. Compile translates a schema into the two runtime
artifacts consumed by the codec:

▪︎ a reader descriptor, holding per-field position rules (a constant byte
base plus references to earlier variable-sized fields) and the table's
statically known minimum size, consumed by package otread;

▪︎ a writer descriptor, holding per-field serialization and derivation
rules, consumed by package otwrite.

Compile validates schema legality: a remainder array or per-element
variable-sized sequence must be the final field, count expressions may
only reference earlier scalar fields, nullable applies to offsets only,
and so on. Schema validation failures indicate author errors in a table
definition; they are never reachable from font data.

Tables with multiple sibling layouts selected by a leading format value
are declared as a Group of variants; the coverage formats in package
tables show the canonical shape.
*/
package schema

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.otcodec'
func tracer() tracing.Trace {
	return tracing.Select("font.otcodec")
}
