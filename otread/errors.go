package otread

import "fmt"

// ErrorKind classifies read failures.
type ErrorKind int

const (
	// ErrOutOfBounds: a field, array range or offset target exceeds
	// the backing buffer.
	ErrOutOfBounds ErrorKind = iota
	// ErrInvalidDiscriminant: a format or version value matches no
	// declared layout.
	ErrInvalidDiscriminant
	// ErrMissingRequiredOffset: a non-nullable offset field stores zero.
	ErrMissingRequiredOffset
	// ErrMalformedOffset: a stored offset does not yield a usable
	// target position (the target computation overflows).
	ErrMalformedOffset
	// ErrInvalidCount: a count expression yields a negative or
	// overflowing element count.
	ErrInvalidCount
	// ErrFieldNotPresent: the field is gated off by the table's version
	// or flags.
	ErrFieldNotPresent
	// ErrBadFieldAccess: the accessor does not match the field's
	// declared type, or the field name is unknown (an API usage error,
	// reported as an error rather than a panic).
	ErrBadFieldAccess
	// ErrMissingArgument: a read-time argument required by the schema
	// was not supplied.
	ErrMissingArgument
)

func (k ErrorKind) String() string {
	switch k {
	case ErrOutOfBounds:
		return "out of bounds"
	case ErrInvalidDiscriminant:
		return "invalid discriminant"
	case ErrMissingRequiredOffset:
		return "missing required offset"
	case ErrMalformedOffset:
		return "malformed offset"
	case ErrInvalidCount:
		return "invalid count"
	case ErrFieldNotPresent:
		return "field not present"
	case ErrBadFieldAccess:
		return "bad field access"
	case ErrMissingArgument:
		return "missing read argument"
	}
	return "unknown"
}

// Error is a structured read failure. All accessors of this package
// return *Error values; no read error is ever escalated into a panic.
type Error struct {
	Kind  ErrorKind
	Table string // schema name of the table being read
	Field string // field being accessed, if attributable
	Value int64  // offending value (discriminant, offset, count)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	switch e.Kind {
	case ErrInvalidDiscriminant, ErrMalformedOffset, ErrInvalidCount:
		msg = fmt.Sprintf("%s %d", msg, e.Value)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s/%s: %s", e.Table, e.Field, msg)
	}
	return fmt.Sprintf("%s: %s", e.Table, msg)
}

func readErr(kind ErrorKind, table, field string) *Error {
	return &Error{Kind: kind, Table: table, Field: field}
}

func readErrValue(kind ErrorKind, table, field string, v int64) *Error {
	return &Error{Kind: kind, Table: table, Field: field, Value: v}
}
