package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/provtmpl/internal/rdfio"
)

// AssertionError is returned when an assertion fails.
// It includes the output to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Output   []string // Full output for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull output:\n")
	for i, line := range e.Output {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
	}

	return buf.String()
}

// assertContains checks that every listed statement is in the output.
func assertContains(output []string, assertion Assertion) error {
	var missing []string
	for _, line := range assertion.Statements {
		if !slices.Contains(output, normalizeLine(line)) {
			missing = append(missing, line)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: fmt.Sprintf("statements %v", assertion.Statements),
		Actual:   fmt.Sprintf("missing %v", missing),
		Output:   output,
	}
}

// assertAbsent checks that no listed statement is in the output.
func assertAbsent(output []string, assertion Assertion) error {
	var found []string
	for _, line := range assertion.Statements {
		if slices.Contains(output, normalizeLine(line)) {
			found = append(found, line)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: fmt.Sprintf("none of %v", assertion.Statements),
		Actual:   fmt.Sprintf("found %v", found),
		Output:   output,
	}
}

// assertOrder checks that the statements appear in the listed order.
// Statements don't need to be consecutive.
func assertOrder(output []string, assertion Assertion) error {
	prev := -1
	prevLine := ""
	for _, line := range assertion.Statements {
		want := normalizeLine(line)
		pos := slices.Index(output, want)
		if pos == -1 {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("statement %s in output", line),
				Actual:   "not found",
				Output:   output,
			}
		}
		if pos < prev {
			return &AssertionError{
				Type:     AssertOrder,
				Expected: fmt.Sprintf("%s after %s", line, prevLine),
				Actual:   fmt.Sprintf("found at position %d, before position %d", pos+1, prev+1),
				Output:   output,
			}
		}
		prev, prevLine = pos, line
	}
	return nil
}

// assertCount checks the number of output statements, optionally only
// those with the assertion's predicate.
func assertCount(output []string, assertion Assertion) error {
	count := len(output)
	what := "statements"
	if assertion.Predicate != "" {
		what = "statements with predicate " + assertion.Predicate
		count = 0
		for _, line := range output {
			st, err := rdfio.ParseQuad(line)
			if err == nil && st.Predicate.Value == assertion.Predicate {
				count++
			}
		}
	}
	if count == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCount,
		Expected: fmt.Sprintf("%d %s", assertion.Count, what),
		Actual:   fmt.Sprintf("%d %s", count, what),
		Output:   output,
	}
}

// assertBundles checks the top-level bundle identifiers in order.
func assertBundles(result *Result, assertion Assertion) error {
	want := make([]string, len(assertion.Bundles))
	for i, id := range assertion.Bundles {
		want[i] = id
		if t, err := rdfio.ParseTerm(id); err == nil {
			want[i] = t.String()
		}
	}
	if slices.Equal(want, result.Bundles) {
		return nil
	}
	return &AssertionError{
		Type:     AssertBundles,
		Expected: fmt.Sprintf("bundles %v", want),
		Actual:   fmt.Sprintf("bundles %v", result.Bundles),
		Output:   result.Output,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertContains:
			err = assertContains(result.Output, assertion)
		case AssertAbsent:
			err = assertAbsent(result.Output, assertion)
		case AssertOrder:
			err = assertOrder(result.Output, assertion)
		case AssertCount:
			err = assertCount(result.Output, assertion)
		case AssertBundles:
			err = assertBundles(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
