/*
Package otwrite is the serialization runtime of the codec.

Callers build an owned table graph — a fully materialized value graph
with scalars by value, records inline and offset targets as child
*Table nodes, shared children referenced rather than duplicated — and
hand its root to Serialize. FromRef converts a parsed otread.TableRef
into owned form by a deep, bounds-validated copy.

Serialization is two-phase. Phase one traverses the graph depth-first,
encoding every node into big-endian bytes with null placeholders at
offset positions; identical nodes are deduplicated in an object store,
so two offset fields pointing at the same (or an equal) child serialize
one copy and two equal offset values. Computed fields — counts,
constant format values, promoted versions, data offsets — are evaluated
here, once child structure is known. The graph must be acyclic; a cycle
fails serialization rather than looping.

Phase two orders the nodes so that every child is placed after all of
its referrers (a Kahn topological sort, parent-first — the conventional
sfnt layout; the exact order among siblings is a documented but
non-normative convention), concatenates them, and backpatches every
offset position with the distance from its referrer's start. A distance
exceeding the field's declared offset width fails with OffsetOverflow
rather than truncating; no partial byte stream is ever returned.

Version discriminants are never caller-chosen: a table is written at
its base version, promoted deterministically to the minimal version
covering its populated optional fields.

Independent roots may be serialized concurrently; SerializeAll does so
on parallel goroutines. A single owned graph must not be mutated while
it is being serialized.
*/
package otwrite

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.otcodec'
func tracer() tracing.Trace {
	return tracing.Select("font.otcodec")
}
