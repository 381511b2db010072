package ir

import (
	"bytes"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalTerm renders a term for hashing.
//
// Differences from Term.String:
//  1. Literal lexical forms are NFC normalized
//  2. Language tags are lower-cased
//  3. The zero term renders as the empty string
func CanonicalTerm(t Term) string {
	if t.Kind != KindLiteral {
		return t.String()
	}
	c := t
	c.Value = norm.NFC.String(t.Value)
	c.Lang = strings.ToLower(t.Lang)
	return c.String()
}

// CanonicalStatement renders one statement as a canonical N-Quads line
// (without trailing newline).
func CanonicalStatement(s Statement) string {
	var b strings.Builder
	b.WriteString(CanonicalTerm(s.Subject))
	b.WriteByte(' ')
	b.WriteString(CanonicalTerm(s.Predicate))
	b.WriteByte(' ')
	b.WriteString(CanonicalTerm(s.Object))
	if !s.Graph.IsZero() {
		b.WriteByte(' ')
		b.WriteString(CanonicalTerm(s.Graph))
	}
	b.WriteString(" .")
	return b.String()
}

// MarshalCanonical serializes a graph as canonical N-Quads in Walk order.
//
// Order is preserved, not sorted: expansion output order is part of the
// determinism contract, so two graphs with the same statements in a
// different order hash differently.
//
// Empty bundles are recorded with a marker line so that a bundle with no
// statements still contributes to the hash.
func MarshalCanonical(g *Graph) []byte {
	var buf bytes.Buffer
	marshalCanonicalGraph(&buf, g)
	return buf.Bytes()
}

func marshalCanonicalGraph(buf *bytes.Buffer, g *Graph) {
	for _, s := range g.Statements {
		buf.WriteString(CanonicalStatement(s))
		buf.WriteByte('\n')
	}
	for _, b := range g.Bundles {
		if b.Graph.Len() == 0 {
			buf.WriteString("# bundle ")
			buf.WriteString(CanonicalTerm(b.ID))
			buf.WriteByte('\n')
		}
		marshalCanonicalGraph(buf, &b.Graph)
	}
}

// MarshalCanonicalSet serializes a graph as sorted, de-duplicated
// canonical N-Quads lines. Used where input order carries no meaning,
// such as hashing a bindings graph for run identity.
func MarshalCanonicalSet(g *Graph) []byte {
	lines := make([]string, 0, g.Len())
	for _, q := range g.Quads() {
		lines = append(lines, CanonicalStatement(q))
	}
	slices.Sort(lines)
	lines = slices.Compact(lines)

	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// MarshalCanonicalPairs serializes key/value pairs sorted by key, one
// "key=value" per line with NFC-normalized values.
func MarshalCanonicalPairs(pairs map[string]string) []byte {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(norm.NFC.String(pairs[k]))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
