package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provtmpl/internal/ir"
)

// TestValidateValidTemplate tests a well-formed template has no errors.
func TestValidateValidTemplate(t *testing.T) {
	g := graphOf(
		tri(v("a"), linked, v("b")),
		tri(v("a"), ex("p"), v("b")),
		tri(ir.NewBlank("x"), ex("p"), ir.NewLiteral("lit", "")),
	)
	g.Bundle(v("bundle")).Add(tri(v("a"), ex("q"), ex("o")))

	assert.Empty(t, Validate(g, vocab))
}

// TestValidateStatementPositions tests RDF position rules.
func TestValidateStatementPositions(t *testing.T) {
	tests := []struct {
		name string
		stmt ir.Statement
		code string
	}{
		{"literal subject", tri(ir.NewLiteral("s", ""), ex("p"), ex("o")), ErrInvalidSubject},
		{"missing subject", tri(ir.Term{}, ex("p"), ex("o")), ErrInvalidSubject},
		{"blank predicate", tri(ex("s"), ir.NewBlank("p"), ex("o")), ErrInvalidPredicate},
		{"literal predicate", tri(ex("s"), ir.NewLiteral("p", ""), ex("o")), ErrInvalidPredicate},
		{"missing object", tri(ex("s"), ex("p"), ir.Term{}), ErrMissingObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(graphOf(tt.stmt), vocab)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.stmt.String(), errs[0].Statement)
		})
	}
}

// TestValidateLinkEndpoints tests linking statements connect variables only.
func TestValidateLinkEndpoints(t *testing.T) {
	tests := []struct {
		name string
		stmt ir.Statement
		code string
	}{
		{"constant subject", tri(ex("a"), linked, v("b")), ErrLinkNotVariable},
		{"constant object", tri(v("a"), linked, ex("b")), ErrLinkNotVariable},
		{"blank object", tri(v("a"), linked, ir.NewBlank("b")), ErrLinkNotVariable},
		{"literal object", tri(v("a"), linked, ir.NewLiteral("b", "")), ErrLinkLiteral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(graphOf(tt.stmt), vocab)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.code, errs[0].Code)
		})
	}
}

// TestValidateLinkWithVargen tests generated variables may be linked.
func TestValidateLinkWithVargen(t *testing.T) {
	assert.Empty(t, Validate(graphOf(tri(vg("id"), linked, v("a"))), vocab))
}

// TestValidateBundles tests bundle identifier rules.
func TestValidateBundles(t *testing.T) {
	g := ir.NewGraph()
	g.Bundles = append(g.Bundles,
		&ir.Bundle{ID: ex("b")},
		&ir.Bundle{ID: ex("b")},
		&ir.Bundle{ID: ir.NewLiteral("b", "")},
	)

	errs := Validate(g, vocab)

	var codes []string
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	assert.ElementsMatch(t, []string{ErrDuplicateBundle, ErrInvalidBundleID}, codes)
}

// TestValidateRepeatedBundle tests a constant bundle below a variable bundle.
func TestValidateRepeatedBundle(t *testing.T) {
	g := ir.NewGraph()
	outer := g.Bundle(v("outer")).Graph
	outer.Bundle(ex("inner"))
	outer.Bundle(ir.NewBlank("scratch")).Graph.Bundle(ex("deep"))
	outer.Bundle(v("inner"))
	g.Bundle(ex("plain")).Graph.Bundle(ex("nested"))

	errs := Validate(g, vocab)

	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.Equal(t, ErrRepeatedBundle, e.Code)
	}
	assert.Contains(t, errs[0].Message, "http://example.org/inner")
	assert.Contains(t, errs[1].Message, "http://example.org/deep")
}

// TestValidateNestedBundles tests statements inside nested bundles are checked.
func TestValidateNestedBundles(t *testing.T) {
	g := ir.NewGraph()
	inner := g.Bundle(ex("outer")).Graph.Bundle(ex("inner"))
	inner.Add(tri(ir.NewLiteral("s", ""), ex("p"), ex("o")))

	errs := Validate(g, vocab)

	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvalidSubject, errs[0].Code)
}

// TestValidateCollectsAllErrors tests validation does not stop at the first error.
func TestValidateCollectsAllErrors(t *testing.T) {
	g := graphOf(
		tri(ir.NewLiteral("s", ""), ex("p"), ex("o")),
		tri(ex("s"), ir.NewBlank("p"), ex("o")),
		tri(ex("a"), linked, ex("b")),
	)

	errs := Validate(g, vocab)

	assert.Len(t, errs, 4)
}

// TestValidationErrorFormat tests error string formatting.
func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "subject", Message: "bad", Code: ErrInvalidSubject}
	assert.Equal(t, "[E210] subject: bad", err.Error())

	err.Statement = "<s> <p> <o> ."
	assert.Equal(t, "[E210] subject: bad (in <s> <p> <o> .)", err.Error())
}

// TestTemplateErrorFormat tests the aggregate error message.
func TestTemplateErrorFormat(t *testing.T) {
	one := ValidationError{Field: "f", Message: "m", Code: "E210"}
	assert.Equal(t, "invalid template: [E210] f: m", (&TemplateError{Errors: []ValidationError{one}}).Error())
	assert.Equal(t, "invalid template: [E210] f: m (and 1 more)",
		(&TemplateError{Errors: []ValidationError{one, one}}).Error())
}
