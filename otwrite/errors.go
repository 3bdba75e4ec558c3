package otwrite

import "fmt"

// ErrorKind classifies serialization failures.
type ErrorKind int

const (
	// ErrOffsetOverflow: a resolved offset distance exceeds the field's
	// declared width.
	ErrOffsetOverflow ErrorKind = iota
	// ErrCyclicGraph: the owned table graph contains a cycle.
	ErrCyclicGraph
	// ErrMissingTarget: a non-nullable offset field has no child table.
	ErrMissingTarget
	// ErrBadValue: a field value does not fit its declared type, or
	// contradicts the table's flags.
	ErrBadValue
	// ErrSchemaMismatch: a child table was built from a schema that is
	// not the offset field's declared target.
	ErrSchemaMismatch
	// ErrUnknownField: Set was called with a field name the schema does
	// not declare, or with a value for a computed field.
	ErrUnknownField
	// ErrUnknownFormat: NewFormat was called with a discriminant value
	// the group does not declare.
	ErrUnknownFormat
)

func (k ErrorKind) String() string {
	switch k {
	case ErrOffsetOverflow:
		return "offset overflow"
	case ErrCyclicGraph:
		return "cyclic table graph"
	case ErrMissingTarget:
		return "missing offset target"
	case ErrBadValue:
		return "bad field value"
	case ErrSchemaMismatch:
		return "schema mismatch"
	case ErrUnknownField:
		return "unknown field"
	case ErrUnknownFormat:
		return "unknown format"
	}
	return "unknown"
}

// Error is a structured serialization failure, reporting which table
// and field triggered it. Serialization of a root aborts entirely on
// the first error; there is no partial output.
type Error struct {
	Kind  ErrorKind
	Table string // schema name of the offending table
	Field string // offending field, if attributable
	Width int    // ErrOffsetOverflow: declared offset width in bits
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Kind == ErrOffsetOverflow {
		msg = fmt.Sprintf("%s (width %d)", msg, e.Width)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s/%s: %s", e.Table, e.Field, msg)
	}
	return fmt.Sprintf("%s: %s", e.Table, msg)
}

func writeErr(kind ErrorKind, table, field string) *Error {
	return &Error{Kind: kind, Table: table, Field: field}
}

func writeErrWidth(kind ErrorKind, table, field string, bits int) *Error {
	return &Error{Kind: kind, Table: table, Field: field, Width: bits}
}
