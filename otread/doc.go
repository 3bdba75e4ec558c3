/*
Package otread is the zero-copy read runtime of the codec.

Given a byte buffer, a starting offset and a compiled schema (package
schema), Read produces a TableRef: a borrowed, non-owning view over the
buffer. Constructing a TableRef validates only the table's statically
known minimum length; every field accessor re-validates its own byte
range lazily, so the parse cost of a table is bounded by the fields a
client actually touches.

A TableRef is a value type carrying the buffer and integer offsets —
no pointers into decoded structure. It is immutable after construction:
count fields and gate discriminants are resolved exactly once when the
ref is created and cached inside the ref value itself, never in shared
state. Arbitrarily many TableRefs over the same buffer may be used
concurrently without synchronization.

The defining safety property of this package is that adversarial byte
input can only ever produce a typed *Error — never a panic, an
out-of-bounds read, or an unbounded loop. All read errors are per-table
and recoverable; the caller decides whether to abandon the whole font or
to skip the offending table.
*/
package otread

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.otcodec'
func tracer() tracing.Trace {
	return tracing.Select("font.otcodec")
}
