package otcodec

import (
	"errors"
	"fmt"
	"time"
)

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// Fixed is a signed 16.16 fixed-point number, used for version numbers
// ('head'.fontRevision) and various metric scalars.
type Fixed int32

// FixedFromFloat converts a float64 to 16.16 fixed-point, truncating
// towards zero.
func FixedFromFloat(f float64) Fixed {
	return Fixed(f * 65536.0)
}

// Float returns the value of f as a float64.
func (f Fixed) Float() float64 {
	return float64(f) / 65536.0
}

func (f Fixed) String() string {
	return fmt.Sprintf("%.5f", f.Float())
}

// F2Dot14 is a signed 2.14 fixed-point number, used by variation axis
// coordinates and some rendering metrics.
type F2Dot14 int16

// Float returns the value of f as a float64.
func (f F2Dot14) Float() float64 {
	return float64(f) / 16384.0
}

// LongDateTime is a date in seconds since 1904-01-01T00:00:00 UTC,
// stored as a signed 64-bit integer ('head'.created and friends).
type LongDateTime int64

// macEpoch is 1904-01-01 midnight UTC, the sfnt date epoch.
var macEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

// Time converts d to a time.Time.
func (d LongDateTime) Time() time.Time {
	return macEpoch.Add(time.Duration(d) * time.Second)
}

// MakeLongDateTime converts a time.Time to the sfnt date representation.
func MakeLongDateTime(t time.Time) LongDateTime {
	return LongDateTime(t.Sub(macEpoch) / time.Second)
}

// Version16Dot16 is a packed version number with the major version in the
// upper 16 bits and a BCD-ish minor version in the lower 16 bits. It is a
// legacy scheme used by the 'maxp', 'post' and 'vhea' tables; e.g. version
// 0.5 is stored as 0x00005000.
type Version16Dot16 uint32

// MakeVersion16Dot16 packs major and minor into the legacy representation.
// Minor versions are single decimal digits (0…9).
func MakeVersion16Dot16(major, minor uint16) Version16Dot16 {
	return Version16Dot16(uint32(major)<<16 | uint32(minor&0xf)<<12)
}

// Major returns the major version.
func (v Version16Dot16) Major() uint16 {
	return uint16(v >> 16)
}

// Minor returns the minor version digit.
func (v Version16Dot16) Minor() uint16 {
	return uint16(v) >> 12 & 0xf
}

func (v Version16Dot16) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// MajorMinor packs a major.minor version pair, stored in fonts as two
// consecutive uint16 fields. The packed form is what version gates and
// version promotion compare against.
type MajorMinor uint32

// MakeMajorMinor packs a major and minor version number.
func MakeMajorMinor(major, minor uint16) MajorMinor {
	return MajorMinor(uint32(major)<<16 | uint32(minor))
}

// Major returns the major version.
func (v MajorMinor) Major() uint16 {
	return uint16(v >> 16)
}

// Minor returns the minor version.
func (v MajorMinor) Minor() uint16 {
	return uint16(v)
}

func (v MajorMinor) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// Uint24 is an unsigned 24-bit integer, used by 24-bit offsets and a few
// table fields (e.g. in 'sbix'). Only the lower 24 bits are significant.
type Uint24 uint32

// MaxUint24 is the largest value representable in 24 bits.
const MaxUint24 = 1<<24 - 1

var errUint24Range = errors.New("value out of range for uint24")

// MakeUint24 converts v to a Uint24, with a range check.
func MakeUint24(v uint32) (Uint24, error) {
	if v > MaxUint24 {
		return 0, errUint24Range
	}
	return Uint24(v), nil
}
