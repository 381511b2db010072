package engine

import (
	"errors"
	"fmt"
)

// ExpansionError represents an error that stopped an expansion.
//
// Expansion errors include:
//   - Binding format: a value list is malformed (gaps, duplicates)
//   - Inconsistent binding: linked variables have differing lengths
//   - Unbound variable: an emitted statement needs a variable with no binding
//   - Residual variable: a rewritten statement still holds a variable
//   - Plan too large: the instantiation ceiling was exceeded
//   - Invalid position: substitution put a term where RDF forbids it
//
// Every expansion error is terminal for its Expand call. No partial
// output accompanies it.
type ExpansionError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Group lists the members of the affected variable group.
	Group string

	// Variable identifies the affected variable.
	Variable string

	// Statement is the template or rewritten statement involved.
	Statement string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes expansion errors.
type ErrorCode string

const (
	// ErrCodeInvalidTemplate indicates the template failed validation.
	ErrCodeInvalidTemplate ErrorCode = "INVALID_TEMPLATE"

	// ErrCodeBindingFormat indicates a malformed value list.
	ErrCodeBindingFormat ErrorCode = "BINDING_FORMAT"

	// ErrCodeInconsistentBinding indicates linked variables disagree in length.
	ErrCodeInconsistentBinding ErrorCode = "INCONSISTENT_BINDING"

	// ErrCodeUnboundVariable indicates a required variable has no binding.
	ErrCodeUnboundVariable ErrorCode = "UNBOUND_VARIABLE"

	// ErrCodeResidualVariable indicates a variable survived substitution.
	ErrCodeResidualVariable ErrorCode = "RESIDUAL_VARIABLE"

	// ErrCodePlanTooLarge indicates the instantiation ceiling was exceeded.
	ErrCodePlanTooLarge ErrorCode = "PLAN_TOO_LARGE"

	// ErrCodeInvalidPosition indicates a term in a position RDF forbids.
	ErrCodeInvalidPosition ErrorCode = "INVALID_POSITION"

	// ErrCodeInternal indicates a broken engine invariant.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error implements the error interface.
func (e *ExpansionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Variable != "" && e.Statement != "":
		msg += fmt.Sprintf(" (variable=%s, statement=%s)", e.Variable, e.Statement)
	case e.Variable != "":
		msg += fmt.Sprintf(" (variable=%s)", e.Variable)
	case e.Group != "":
		msg += fmt.Sprintf(" (group=%s)", e.Group)
	case e.Statement != "":
		msg += fmt.Sprintf(" (statement=%s)", e.Statement)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ExpansionError) Unwrap() error {
	return e.Err
}

// Code returns the code of the first ExpansionError in err's chain, or ""
// when there is none.
func Code(err error) ErrorCode {
	var ee *ExpansionError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return err != nil && Code(err) == code
}

// IsBindingFormatError returns true if the error is a binding format error.
// Uses errors.As to handle wrapped errors.
func IsBindingFormatError(err error) bool {
	return hasCode(err, ErrCodeBindingFormat)
}

// IsInconsistentBindingError returns true if linked variables disagreed in length.
func IsInconsistentBindingError(err error) bool {
	return hasCode(err, ErrCodeInconsistentBinding)
}

// IsUnboundVariableError returns true if a required variable had no binding.
func IsUnboundVariableError(err error) bool {
	return hasCode(err, ErrCodeUnboundVariable)
}

// IsResidualVariableError returns true if a variable survived substitution.
func IsResidualVariableError(err error) bool {
	return hasCode(err, ErrCodeResidualVariable)
}

// IsPlanTooLargeError returns true if the instantiation ceiling was exceeded.
func IsPlanTooLargeError(err error) bool {
	return hasCode(err, ErrCodePlanTooLarge)
}

// IsInvalidPositionError returns true if a term landed in a forbidden position.
func IsInvalidPositionError(err error) bool {
	return hasCode(err, ErrCodeInvalidPosition)
}

// IsInvalidTemplateError returns true if the template failed validation.
func IsInvalidTemplateError(err error) bool {
	return hasCode(err, ErrCodeInvalidTemplate)
}

// NewInconsistentBindingError creates an ExpansionError for a length mismatch.
// lengths maps each bound member to its sequence length.
func NewInconsistentBindingError(group string, lengths map[string]int) *ExpansionError {
	details := make(map[string]string, len(lengths))
	for v, n := range lengths {
		details[v] = fmt.Sprintf("%d", n)
	}
	return &ExpansionError{
		Code:    ErrCodeInconsistentBinding,
		Message: "linked variables are bound to different numbers of values",
		Group:   group,
		Details: details,
	}
}

// NewUnboundVariableError creates an ExpansionError for a missing binding.
func NewUnboundVariableError(variable, statement string) *ExpansionError {
	return &ExpansionError{
		Code:      ErrCodeUnboundVariable,
		Message:   "variable has no binding",
		Variable:  variable,
		Statement: statement,
	}
}

// NewResidualVariableError creates an ExpansionError for a surviving variable.
func NewResidualVariableError(variable, statement string) *ExpansionError {
	return &ExpansionError{
		Code:      ErrCodeResidualVariable,
		Message:   "variable left after substitution",
		Variable:  variable,
		Statement: statement,
	}
}

// NewInvalidPositionError creates an ExpansionError for a misplaced term.
func NewInvalidPositionError(position, statement, message string) *ExpansionError {
	return &ExpansionError{
		Code:      ErrCodeInvalidPosition,
		Message:   message,
		Statement: statement,
		Details:   map[string]string{"position": position},
	}
}

// NewPlanTooLargeError creates an ExpansionError for an exceeded ceiling.
func NewPlanTooLargeError(count, limit int) *ExpansionError {
	return &ExpansionError{
		Code:    ErrCodePlanTooLarge,
		Message: fmt.Sprintf("expansion needs more than %d instantiations", limit),
		Details: map[string]string{
			"instantiations": fmt.Sprintf("%d", count),
			"limit":          fmt.Sprintf("%d", limit),
		},
	}
}

func internalError(format string, args ...any) *ExpansionError {
	return &ExpansionError{Code: ErrCodeInternal, Message: fmt.Sprintf(format, args...)}
}
