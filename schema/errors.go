package schema

import "fmt"

// ValidationError reports an illegal table schema. Validation failures
// are author errors in a table definition and are only ever produced at
// schema-compile time, never from font data.
type ValidationError struct {
	Table string // schema name
	Field string // offending field, if attributable
	Issue string // human-readable description
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema %s/%s: %s", e.Table, e.Field, e.Issue)
	}
	return fmt.Sprintf("schema %s: %s", e.Table, e.Issue)
}

func invalid(table *Table, field string, format string, args ...interface{}) error {
	return &ValidationError{
		Table: table.Name,
		Field: field,
		Issue: fmt.Sprintf(format, args...),
	}
}
