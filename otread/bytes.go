package otread

import "math"

// Raw big-endian decoding over the backing buffer. All range arithmetic
// goes through the checked helpers so that hostile counts and offsets
// cannot wrap around.

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])<<0
}

func u32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

func u64(b []byte) uint64 {
	_ = b[7]
	return uint64(u32(b))<<32 | uint64(u32(b[4:]))
}

// scalarAt decodes a big-endian integer of the given width at pos,
// sign-extending if signed. The caller has verified the range.
func scalarAt(b []byte, pos, width int, signed bool) int64 {
	var v uint64
	switch width {
	case 1:
		v = uint64(b[pos])
	case 2:
		v = uint64(u16(b[pos:]))
	case 3:
		v = uint64(u24(b[pos:]))
	case 4:
		v = uint64(u32(b[pos:]))
	case 8:
		v = u64(b[pos:])
	}
	if signed && width < 8 {
		shift := uint(64 - width*8)
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

// checkedMulInt checks for overflow in multiplication of two non-negative
// integers.
func checkedMulInt(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// checkedAddInt checks for overflow in addition of two non-negative
// integers.
func checkedAddInt(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}
