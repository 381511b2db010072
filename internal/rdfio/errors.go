package rdfio

import (
	"errors"
	"fmt"
)

// SyntaxError reports malformed input with its 1-based position.
type SyntaxError struct {
	Format  Format
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Format, e.Line, e.Column, e.Message)
}

// IsSyntaxError returns true if err is a *SyntaxError.
// Uses errors.As to handle wrapped errors.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
