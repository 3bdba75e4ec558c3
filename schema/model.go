package schema

import (
	"github.com/npillmayer/otcodec"
)

// --- Scalar types ----------------------------------------------------------

// ScalarType describes a fixed-width big-endian integer field.
type ScalarType struct {
	Width  int // byte width: 1, 2, 3, 4 or 8
	Signed bool
}

// Scalar types used by sfnt tables.
var (
	TypeU8       = ScalarType{Width: 1}
	TypeI8       = ScalarType{Width: 1, Signed: true}
	TypeU16      = ScalarType{Width: 2}
	TypeI16      = ScalarType{Width: 2, Signed: true}
	TypeU24      = ScalarType{Width: 3}
	TypeU32      = ScalarType{Width: 4}
	TypeI32      = ScalarType{Width: 4, Signed: true}
	TypeTag      = ScalarType{Width: 4}
	TypeFixed    = ScalarType{Width: 4, Signed: true}
	TypeF2Dot14  = ScalarType{Width: 2, Signed: true}
	TypeVersion  = ScalarType{Width: 4} // Version16Dot16
	TypeDateTime = ScalarType{Width: 8, Signed: true}
)

// --- Field kinds -----------------------------------------------------------

// Kind discriminates the semantic type of a field.
type Kind int

const (
	KindScalar Kind = iota // fixed-width integer
	KindRecord             // inline fixed-shape sub-structure
	KindOffset             // stored offset to a sub-table
	KindArray              // counted array with fixed element stride
	KindSeq                // array of per-element variable-sized records, forward-only
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRecord:
		return "record"
	case KindOffset:
		return "offset"
	case KindArray:
		return "array"
	case KindSeq:
		return "sequence"
	}
	return "unknown"
}

// --- Count rules -----------------------------------------------------------

// CountKind discriminates how an array's element count is determined.
type CountKind int

const (
	CountFixed     CountKind = iota // a literal element count
	CountField                      // value of an earlier scalar field (minus Delta)
	CountRemainder                  // consume all remaining bytes of the table
	CountArg                        // external read-time argument (minus Delta)
	CountArgDiff                    // difference of two external arguments
)

// Count determines the number of elements of an array field.
type Count struct {
	Kind     CountKind
	N        int    // CountFixed
	Ref      string // CountField: name of an earlier scalar field
	Arg      string // CountArg, CountArgDiff: read-argument name
	MinusArg string // CountArgDiff: subtracted read-argument name
	Delta    int    // subtracted from the field/argument value
}

// CountOf declares a literal element count.
func CountOf(n int) Count {
	return Count{Kind: CountFixed, N: n}
}

// CountIn declares the count to be the value of an earlier scalar field.
func CountIn(field string) Count {
	return Count{Kind: CountField, Ref: field}
}

// CountInMinus declares the count to be the value of an earlier scalar
// field minus a constant (the classic "count - 1" pattern).
func CountInMinus(field string, delta int) Count {
	return Count{Kind: CountField, Ref: field, Delta: delta}
}

// Remainder declares that the array consumes all bytes up to the end of
// the enclosing table. Legal only on the table's final field.
func Remainder() Count {
	return Count{Kind: CountRemainder}
}

// CountFromArg declares the count to be an externally supplied read-time
// argument, e.g. a glyph count known only from an unrelated table.
func CountFromArg(name string) Count {
	return Count{Kind: CountArg, Arg: name}
}

// CountArgsDiff declares the count to be the difference of two external
// read-time arguments ('hmtx' left side bearings: numGlyphs - numberOfHMetrics).
func CountArgsDiff(a, b string) Count {
	return Count{Kind: CountArgDiff, Arg: a, MinusArg: b}
}

// --- Presence rules --------------------------------------------------------

// PresenceKind discriminates when a field is present in the byte stream.
type PresenceKind int

const (
	PresAlways PresenceKind = iota
	PresSince               // present iff table version >= Version
	PresIfFlag              // present iff a bit is set in an earlier flags field
)

// Presence determines whether a field occupies bytes in a given table
// instance.
type Presence struct {
	Kind      PresenceKind
	Version   uint32 // PresSince: minimum packed version
	FlagField string // PresIfFlag: name of an earlier scalar field
	Bit       uint   // PresIfFlag: bit number within the flags field
}

// --- Write-time derivation -------------------------------------------------

// ComputeKind discriminates how a write-only field value is derived.
type ComputeKind int

const (
	ComputeNone       ComputeKind = iota
	ComputeConst                  // a literal constant (format numbers, magic values)
	ComputeCount                  // element count of a sibling array (minus Delta)
	ComputeVersion                // version promoted from populated optional fields
	ComputeDataOffset             // byte offset just past a sibling field, from table start
)

// Compute describes the write-time derivation of a field value. Computed
// fields are evaluated once the table's child structure is known and are
// ordinary scalars thereafter.
type Compute struct {
	Kind  ComputeKind
	Ref   string // ComputeCount, ComputeDataOffset: sibling field name
	Value uint64 // ComputeConst
	Delta int    // ComputeCount: subtracted from the element count
}

// --- Offsets and array elements --------------------------------------------

// Target is the destination type of an offset field: either a single
// table schema or a format-dispatched group of sibling schemas.
type Target interface {
	TargetName() string
}

// OffsetSpec describes a stored offset field or array element.
// Offsets are byte distances from the start of the enclosing table
// (for offsets inside inline records: from the start of the table
// containing the record, per sfnt convention). With SelfRelative set
// the distance counts from the position of the offset field itself,
// as cmap format 4 does for idRangeOffset. A stored value of zero
// denotes "absent" when the offset is nullable.
type OffsetSpec struct {
	Width        int // 2, 3 or 4 bytes
	To           Target
	Nullable     bool
	SelfRelative bool
}

// Element describes array elements. Exactly one member is non-nil.
type Element struct {
	Scalar *ScalarType
	Record *Table
	Offset *OffsetSpec
}

// ScalarElem declares array elements of a fixed-width scalar type.
func ScalarElem(t ScalarType) Element {
	st := t
	return Element{Scalar: &st}
}

// RecordElem declares array elements of an inline fixed-shape record.
func RecordElem(rec *Table) Element {
	return Element{Record: rec}
}

// OffsetElem declares array elements that are stored offsets to target.
func OffsetElem(width int, target Target, nullable bool) Element {
	return Element{Offset: &OffsetSpec{Width: width, To: target, Nullable: nullable}}
}

// SelfOffsetElem declares array elements that are offsets counted from
// the element's own position rather than from the table start.
func SelfOffsetElem(width int, target Target, nullable bool) Element {
	return Element{Offset: &OffsetSpec{Width: width, To: target, Nullable: nullable, SelfRelative: true}}
}

// --- Fields ----------------------------------------------------------------

// Field is one entry of a table schema. Fields are ordered; later field
// positions depend on the sizes of earlier variable-length fields.
type Field struct {
	Name     string
	Kind     Kind
	Scalar   ScalarType // KindScalar
	Record   *Table     // KindRecord, KindSeq element schema
	Offset   OffsetSpec // KindOffset
	Elem     Element    // KindArray
	Count    Count      // KindArray, KindSeq
	Presence Presence
	Compute  Compute
}

// FieldOption modifies a field declaration.
type FieldOption func(*Field)

// Since gates the field on a minimum packed table version.
func Since(v uint32) FieldOption {
	return func(f *Field) {
		f.Presence = Presence{Kind: PresSince, Version: v}
	}
}

// IfFlag gates the field on a bit of an earlier scalar flags field.
func IfFlag(flagsField string, bit uint) FieldOption {
	return func(f *Field) {
		f.Presence = Presence{Kind: PresIfFlag, FlagField: flagsField, Bit: bit}
	}
}

// Const marks the field write-time computed as a literal constant.
func Const(v uint64) FieldOption {
	return func(f *Field) {
		f.Compute = Compute{Kind: ComputeConst, Value: v}
	}
}

// ComputedCount marks the field write-time computed as the element count
// of the named sibling array.
func ComputedCount(arrayField string) FieldOption {
	return func(f *Field) {
		f.Compute = Compute{Kind: ComputeCount, Ref: arrayField}
	}
}

// ComputedCountMinus is ComputedCount with a constant subtracted
// (e.g. segCountX2-style derived counts store count-1).
func ComputedCountMinus(arrayField string, delta int) FieldOption {
	return func(f *Field) {
		f.Compute = Compute{Kind: ComputeCount, Ref: arrayField, Delta: delta}
	}
}

// ComputedVersion marks the field as the table's version discriminant.
// On write its value is promoted deterministically from the table's base
// version and the minimum versions of populated optional fields; on read
// its value feeds Since gates.
func ComputedVersion() FieldOption {
	return func(f *Field) {
		f.Compute = Compute{Kind: ComputeVersion}
	}
}

// ComputedDataOffset marks the field write-time computed as the byte
// offset just past the named sibling field, measured from table start
// ('name'.storageOffset).
func ComputedDataOffset(afterField string) FieldOption {
	return func(f *Field) {
		f.Compute = Compute{Kind: ComputeDataOffset, Ref: afterField}
	}
}

func newScalar(name string, t ScalarType, opts []FieldOption) Field {
	f := Field{Name: name, Kind: KindScalar, Scalar: t}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// U8 declares an unsigned 8-bit scalar field.
func U8(name string, opts ...FieldOption) Field { return newScalar(name, TypeU8, opts) }

// I8 declares a signed 8-bit scalar field.
func I8(name string, opts ...FieldOption) Field { return newScalar(name, TypeI8, opts) }

// U16 declares an unsigned 16-bit scalar field.
func U16(name string, opts ...FieldOption) Field { return newScalar(name, TypeU16, opts) }

// I16 declares a signed 16-bit scalar field.
func I16(name string, opts ...FieldOption) Field { return newScalar(name, TypeI16, opts) }

// U24 declares an unsigned 24-bit scalar field.
func U24(name string, opts ...FieldOption) Field { return newScalar(name, TypeU24, opts) }

// U32 declares an unsigned 32-bit scalar field.
func U32(name string, opts ...FieldOption) Field { return newScalar(name, TypeU32, opts) }

// I32 declares a signed 32-bit scalar field.
func I32(name string, opts ...FieldOption) Field { return newScalar(name, TypeI32, opts) }

// TagField declares a 4-byte tag field.
func TagField(name string, opts ...FieldOption) Field { return newScalar(name, TypeTag, opts) }

// Fixed declares a 16.16 fixed-point field.
func Fixed(name string, opts ...FieldOption) Field { return newScalar(name, TypeFixed, opts) }

// F2Dot14 declares a 2.14 fixed-point field.
func F2Dot14(name string, opts ...FieldOption) Field { return newScalar(name, TypeF2Dot14, opts) }

// Version16 declares a legacy Version16Dot16 field.
func Version16(name string, opts ...FieldOption) Field { return newScalar(name, TypeVersion, opts) }

// DateTime declares a 64-bit sfnt date field.
func DateTime(name string, opts ...FieldOption) Field { return newScalar(name, TypeDateTime, opts) }

// MajorMinor declares a packed major.minor version pair, stored as two
// consecutive uint16 values. The packed uint32 is what version gates
// compare against.
func MajorMinor(name string, opts ...FieldOption) Field {
	return newScalar(name, ScalarType{Width: 4}, opts)
}

// Struct declares an inline fixed-shape record field.
func Struct(name string, rec *Table, opts ...FieldOption) Field {
	f := Field{Name: name, Kind: KindRecord, Record: rec}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func newOffset(name string, width int, target Target, opts []FieldOption) Field {
	f := Field{Name: name, Kind: KindOffset, Offset: OffsetSpec{Width: width, To: target}}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Offset16 declares a 16-bit offset field to target.
func Offset16(name string, target Target, opts ...FieldOption) Field {
	return newOffset(name, 2, target, opts)
}

// Offset24 declares a 24-bit offset field to target.
func Offset24(name string, target Target, opts ...FieldOption) Field {
	return newOffset(name, 3, target, opts)
}

// Offset32 declares a 32-bit offset field to target.
func Offset32(name string, target Target, opts ...FieldOption) Field {
	return newOffset(name, 4, target, opts)
}

// Nullable marks an offset field as nullable: a stored value of zero
// resolves to "absent" rather than to position zero.
func Nullable() FieldOption {
	return func(f *Field) {
		f.Offset.Nullable = true
	}
}

// SelfRelative marks an offset field as counting from its own position
// rather than from the start of the enclosing table.
func SelfRelative() FieldOption {
	return func(f *Field) {
		f.Offset.SelfRelative = true
	}
}

// Array declares a counted array field with fixed element stride,
// supporting O(1) indexed access.
func Array(name string, elem Element, count Count, opts ...FieldOption) Field {
	f := Field{Name: name, Kind: KindArray, Elem: elem, Count: count}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Seq declares an array of per-element variable-sized records. Random
// access degrades to a forward-only scan (O(n) indexing); the read
// runtime exposes such fields as a lazy sequence, never as an indexable
// range.
func Seq(name string, rec *Table, count Count, opts ...FieldOption) Field {
	f := Field{Name: name, Kind: KindSeq, Record: rec, Count: count}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// RemainderBytes declares a trailing raw byte array consuming the rest
// of the table ('name' storage area and similar blobs).
func RemainderBytes(name string, opts ...FieldOption) Field {
	return Array(name, ScalarElem(TypeU8), Remainder(), opts...)
}

// --- Tables and groups -----------------------------------------------------

// Table is the schema of one table or record layout: ordered fields plus
// the table-level attributes of the declaration vocabulary (tag,
// read-time arguments, base version for promotion).
type Table struct {
	Name       string
	Tag        otcodec.Tag
	Args       []string // externally supplied read-time parameters
	MinVersion uint32   // packed base version; promotion never goes below it
	Fields     []Field

	codec *Codec // memoized compile result
}

// TargetName implements Target.
func (t *Table) TargetName() string {
	return t.Name
}

// Group is a family of sibling table layouts selected by a leading
// format or version discriminant. Every variant shares the discriminant
// as its first field, declared Const with the variant's value.
type Group struct {
	Name      string
	Tag       otcodec.Tag
	DiscWidth int // byte width of the discriminant scalar (2 or 4)
	Variants  []Variant

	codec *GroupCodec // memoized compile result
}

// Variant associates one discriminant value with its layout.
type Variant struct {
	Value uint64
	Table *Table
}

// TargetName implements Target.
func (g *Group) TargetName() string {
	return g.Name
}
