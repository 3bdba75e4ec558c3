/*
Package otcodec is a codec framework for binary font-table data.

OpenType and TrueType fonts store their information as a collection of
tagged tables: tag-length-value structures whose fields are big-endian
scalars, inline records, counted arrays and stored offsets to sub-tables.
This module compiles a declarative description of such a table (a schema)
into two runtime artifacts:

▪︎ a read-side descriptor, driving a zero-copy, bounds-checked view over
raw font bytes (package otread), and

▪︎ a write-side descriptor, driving an owned table representation and a
graph serializer that packs tables into a final byte stream with resolved
offsets (package otwrite).

The codec deliberately does not interpret table semantics. Shaping,
hinting, rasterization and subsetting policy are clients of this module;
they consume it solely through "parse bytes at offset X as table type T"
and "serialize this table graph to bytes".

Package otcodec itself holds the value types shared by both runtimes:
table tags, glyph indices, and the fixed-point and date scalars of the
sfnt format family.

# Byte order

All multi-byte values in font files are big-endian (the sfnt convention).
The encode/decode helpers in this package follow it without exception.

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otcodec
