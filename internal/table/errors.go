package table

import "errors"

// ErrColumnNotFound is returned when a column name is not present in a table.
var ErrColumnNotFound = errors.New("column not found")

// LoadError reports input that cannot be parsed into a table at all. Callers
// treat it as "no data available"; no partial table accompanies it.
type LoadError struct {
	// Cause is a human-readable description of what went wrong.
	Cause string
	// Err is the underlying parse error, if any.
	Err error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return "load: " + e.Cause + ": " + e.Err.Error()
	}
	return "load: " + e.Cause
}

func (e *LoadError) Unwrap() error { return e.Err }
