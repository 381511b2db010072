package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermString(t *testing.T) {
	tests := []struct {
		name     string
		term     Term
		expected string
	}{
		{"iri", NewIRI("http://example.org/a"), "<http://example.org/a>"},
		{"blank", NewBlank("b0"), "_:b0"},
		{"blank strips prefix", NewBlank("_:b1"), "_:b1"},
		{"plain literal", NewLiteral("hello", ""), `"hello"`},
		{"explicit xsd string", NewLiteral("hello", XSDString), `"hello"`},
		{"typed literal", NewLiteral("42", XSDInteger), `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"lang literal", NewLangLiteral("chat", "FR"), `"chat"@fr`},
		{"escaped literal", NewLiteral("a \"b\"\n", ""), `"a \"b\"\n"`},
		{"iri with space", NewIRI("http://example.org/a b"), `<http://example.org/a\u0020b>`},
		{"zero", Term{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.term.String())
		})
	}
}

// TestTermEquality verifies terms compare structurally.
func TestTermEquality(t *testing.T) {
	assert.Equal(t, NewIRI("http://x"), NewIRI("http://x"))
	assert.NotEqual(t, NewIRI("x"), NewBlank("x"))
	assert.NotEqual(t, NewLiteral("1", XSDInteger), NewLiteral("1", ""))
	assert.Equal(t, NewLangLiteral("a", "EN"), NewLangLiteral("a", "en"))

	m := map[Term]int{NewIRI("http://x"): 1}
	assert.Equal(t, 1, m[NewIRI("http://x")])
}

func TestTermHasPrefix(t *testing.T) {
	ns := "http://openprovenance.org/var#"
	assert.True(t, NewIRI(ns+"x").HasPrefix(ns))
	assert.False(t, NewLiteral(ns+"x", "").HasPrefix(ns))
	assert.False(t, NewBlank("x").HasPrefix(ns))
	assert.False(t, NewIRI(ns+"x").HasPrefix(""))
}

func TestTermKindString(t *testing.T) {
	assert.Equal(t, "iri", KindIRI.String())
	assert.Equal(t, "literal", KindLiteral.String())
	assert.Equal(t, "blank", KindBlank.String())
	assert.Equal(t, "none", KindNone.String())
}
