package ir

import (
	"fmt"
	"strings"
)

// TermKind tags the variant held by a Term.
type TermKind uint8

const (
	// KindNone is the zero Term (absent graph context, unset position).
	KindNone TermKind = iota

	// KindIRI is an absolute IRI reference.
	KindIRI

	// KindLiteral is a literal with an optional datatype or language tag.
	KindLiteral

	// KindBlank is a blank node identified by a document-local label.
	KindBlank
)

// String returns the lower-case kind name used in error messages.
func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	case KindBlank:
		return "blank"
	default:
		return "none"
	}
}

// Well-known datatype IRIs.
const (
	XSDString     = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger    = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDecimal    = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDDouble     = "http://www.w3.org/2001/XMLSchema#double"
	XSDBoolean    = "http://www.w3.org/2001/XMLSchema#boolean"
	RDFLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"

	RDFType  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFFirst = "http://www.w3.org/1999/02/22-rdf-syntax-ns#first"
	RDFRest  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#rest"
	RDFNil   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#nil"
)

// Term is a tagged union over IRI, Literal and BlankNode.
//
// Value holds the IRI string, the literal lexical form, or the blank node
// label (without the "_:" prefix). Datatype and Lang are only meaningful
// for literals; a plain literal carries Datatype == XSDString and a
// language-tagged literal carries Datatype == RDFLangString.
//
// Term is comparable and safe to use as a map key.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// NewIRI creates an IRI term.
func NewIRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// NewBlank creates a blank node term. A leading "_:" is stripped.
func NewBlank(label string) Term {
	return Term{Kind: KindBlank, Value: strings.TrimPrefix(label, "_:")}
}

// NewLiteral creates a literal with the given datatype.
// An empty datatype means xsd:string.
func NewLiteral(lexical, datatype string) Term {
	if datatype == "" {
		datatype = XSDString
	}
	return Term{Kind: KindLiteral, Value: lexical, Datatype: datatype}
}

// NewLangLiteral creates a language-tagged literal. Tags are lower-cased
// so that structurally equal terms compare equal.
func NewLangLiteral(lexical, lang string) Term {
	return Term{
		Kind:     KindLiteral,
		Value:    lexical,
		Datatype: RDFLangString,
		Lang:     strings.ToLower(lang),
	}
}

// IsZero reports whether t is the absent term.
func (t Term) IsZero() bool {
	return t.Kind == KindNone
}

// IsIRI reports whether t is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsBlank reports whether t is a blank node.
func (t Term) IsBlank() bool { return t.Kind == KindBlank }

// IsLiteral reports whether t is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// HasPrefix reports whether t is an IRI starting with prefix.
func (t Term) HasPrefix(prefix string) bool {
	return t.Kind == KindIRI && prefix != "" && strings.HasPrefix(t.Value, prefix)
}

// String renders the term in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + escapeIRI(t.Value) + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := `"` + EscapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" && t.Datatype != XSDString {
			return s + "^^<" + escapeIRI(t.Datatype) + ">"
		}
		return s
	default:
		return ""
	}
}

// GoString keeps %#v output readable in test failures.
func (t Term) GoString() string {
	return fmt.Sprintf("ir.Term(%s)", t.String())
}

// EscapeLiteral escapes a lexical form for a double-quoted N-Triples string.
func EscapeLiteral(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeIRI escapes the characters N-Triples forbids inside <...>.
func escapeIRI(s string) string {
	if !strings.ContainsAny(s, "<>\"{}|^`\\ ") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '<', '>', '"', '{', '}', '|', '^', '`', '\\', ' ':
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
