// Package testbuf builds big-endian byte buffers for codec tests.
package testbuf

import "encoding/binary"

// Buffer accumulates big-endian encoded values. The zero value is ready
// to use.
type Buffer struct {
	b []byte
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// U8 appends one byte.
func (buf *Buffer) U8(v uint8) *Buffer {
	buf.b = append(buf.b, v)
	return buf
}

// U16 appends a big-endian uint16.
func (buf *Buffer) U16(v uint16) *Buffer {
	buf.b = binary.BigEndian.AppendUint16(buf.b, v)
	return buf
}

// I16 appends a big-endian int16.
func (buf *Buffer) I16(v int16) *Buffer {
	return buf.U16(uint16(v))
}

// U24 appends a big-endian 3-byte unsigned integer.
func (buf *Buffer) U24(v uint32) *Buffer {
	buf.b = append(buf.b, byte(v>>16), byte(v>>8), byte(v))
	return buf
}

// U32 appends a big-endian uint32.
func (buf *Buffer) U32(v uint32) *Buffer {
	buf.b = binary.BigEndian.AppendUint32(buf.b, v)
	return buf
}

// U64 appends a big-endian uint64.
func (buf *Buffer) U64(v uint64) *Buffer {
	buf.b = binary.BigEndian.AppendUint64(buf.b, v)
	return buf
}

// Tag appends a 4-byte tag from its string form.
func (buf *Buffer) Tag(s string) *Buffer {
	t := []byte(s)
	for len(t) < 4 {
		t = append(t, ' ')
	}
	buf.b = append(buf.b, t[:4]...)
	return buf
}

// Bytes appends raw bytes.
func (buf *Buffer) Bytes(b []byte) *Buffer {
	buf.b = append(buf.b, b...)
	return buf
}

// Skip appends n zero bytes.
func (buf *Buffer) Skip(n int) *Buffer {
	buf.b = append(buf.b, make([]byte, n)...)
	return buf
}

// PatchU16 overwrites two bytes at pos with a big-endian uint16,
// typically an offset recorded with Len beforehand.
func (buf *Buffer) PatchU16(pos int, v uint16) *Buffer {
	binary.BigEndian.PutUint16(buf.b[pos:], v)
	return buf
}

// Len returns the current byte length.
func (buf *Buffer) Len() int {
	return len(buf.b)
}

// Build returns the accumulated bytes.
func (buf *Buffer) Build() []byte {
	return buf.b
}
