package contracts

import (
	"errors"
	"fmt"
)

// Client-facing errors. The messages are returned verbatim in {"error": ...}
var (
	ErrInvalidRequest   = errors.New("Invalid request format. Expected a list.")
	ErrInvalidInputData = errors.New("Invalid input data.")
	ErrPeriodNotFound   = errors.New("Reporting period not found.")
)

// ValidationError pinpoints the record and field that voided a batch.
// It always unwraps to ErrInvalidInputData.
type ValidationError struct {
	Index  int    // 0-based record position
	Field  string // empty when the record itself is malformed
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("record %d: field %q: %s", e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInputData
}

// IsClientError reports whether err should be answered with 400
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrInvalidInputData)
}
