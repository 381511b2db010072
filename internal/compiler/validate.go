package compiler

import (
	"fmt"

	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// Template validation error codes (E200-E299)
const (
	// Linking errors (E201-E209)
	ErrLinkNotVariable = "E201" // linking statement endpoint is not a variable
	ErrLinkLiteral     = "E202" // linking statement object is a literal

	// Position errors (E210-E219)
	ErrInvalidSubject   = "E210" // subject must be an IRI or blank node
	ErrInvalidPredicate = "E211" // predicate must be an IRI
	ErrMissingObject    = "E212" // object is absent
	ErrInvalidBundleID  = "E213" // bundle identifier must be an IRI or blank node

	// Structure errors (E220-E229)
	ErrDuplicateBundle = "E220" // bundle identifier repeated within one scope
	ErrRepeatedBundle  = "E221" // constant bundle identifier inside a variable bundle
)

// ValidationError represents a template validation error.
type ValidationError struct {
	Field     string `json:"field"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	Statement string `json:"statement,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("[%s] %s: %s (in %s)", e.Code, e.Field, e.Message, e.Statement)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// TemplateError aggregates the validation errors that stopped Classify.
type TemplateError struct {
	Errors []ValidationError
}

func (e *TemplateError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "invalid template"
	case 1:
		return "invalid template: " + e.Errors[0].Error()
	default:
		return fmt.Sprintf("invalid template: %s (and %d more)", e.Errors[0].Error(), len(e.Errors)-1)
	}
}

// Validate checks a template graph for structural errors.
// Returns all errors found (does not fail-fast).
func Validate(g *ir.Graph, vocab config.Vocabulary) []ValidationError {
	var errs []ValidationError
	validateGraph(g, vocab, false, &errs)
	return errs
}

// validateGraph checks one graph level. multiplied is true below a bundle
// whose identifier is a variable.
func validateGraph(g *ir.Graph, vocab config.Vocabulary, multiplied bool, errs *[]ValidationError) {
	for _, s := range g.Statements {
		validateStatement(s, vocab, errs)
	}

	seen := make(map[ir.Term]bool)
	for _, b := range g.Bundles {
		if !b.ID.IsIRI() && !b.ID.IsBlank() {
			*errs = append(*errs, ValidationError{
				Field:   "bundle",
				Message: fmt.Sprintf("bundle identifier must be an IRI or blank node, got %s", b.ID.Kind),
				Code:    ErrInvalidBundleID,
			})
		}
		if seen[b.ID] {
			*errs = append(*errs, ValidationError{
				Field:   "bundle",
				Message: fmt.Sprintf("bundle %s appears more than once in the same scope", b.ID),
				Code:    ErrDuplicateBundle,
			})
		}
		// A constant IRI would name every copy of the bundle.
		if multiplied && b.ID.IsIRI() && !config.IsVariable(b.ID, vocab) {
			*errs = append(*errs, ValidationError{
				Field:   "bundle",
				Message: fmt.Sprintf("bundle %s inside a variable bundle would repeat in every instance; use a variable or blank identifier", b.ID),
				Code:    ErrRepeatedBundle,
			})
		}
		seen[b.ID] = true
		validateGraph(&b.Graph, vocab, multiplied || config.IsVariable(b.ID, vocab), errs)
	}
}

func validateStatement(s ir.Statement, vocab config.Vocabulary, errs *[]ValidationError) {
	add := func(field, code, msg string) {
		*errs = append(*errs, ValidationError{Field: field, Message: msg, Code: code, Statement: s.String()})
	}

	if !s.Subject.IsIRI() && !s.Subject.IsBlank() {
		add("subject", ErrInvalidSubject, fmt.Sprintf("subject must be an IRI or blank node, got %s", s.Subject.Kind))
	}
	if !s.Predicate.IsIRI() {
		add("predicate", ErrInvalidPredicate, fmt.Sprintf("predicate must be an IRI, got %s", s.Predicate.Kind))
	}
	if s.Object.IsZero() {
		add("object", ErrMissingObject, "object is required")
	}

	if !vocab.IsLinked(s.Predicate) {
		return
	}
	if s.Object.IsLiteral() {
		add("object", ErrLinkLiteral, "linked object must be a variable, got a literal")
		return
	}
	if !config.IsVariable(s.Subject, vocab) {
		add("subject", ErrLinkNotVariable, fmt.Sprintf("linked subject %s is not a variable", s.Subject))
	}
	if !s.Object.IsZero() && !config.IsVariable(s.Object, vocab) {
		add("object", ErrLinkNotVariable, fmt.Sprintf("linked object %s is not a variable", s.Object))
	}
}
