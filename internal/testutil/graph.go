package testutil

import (
	"strconv"

	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// Namespaces used by test templates.
const (
	EX  = "http://example.org/"
	VAR = config.DefaultVarNamespace
	GEN = config.DefaultVargenNamespace
)

// IRI returns an IRI in the example namespace.
func IRI(local string) ir.Term { return ir.NewIRI(EX + local) }

// Var returns a template variable in the default variable namespace.
func Var(name string) ir.Term { return ir.NewIRI(VAR + name) }

// Vargen returns a generated variable in the default vargen namespace.
func Vargen(name string) ir.Term { return ir.NewIRI(GEN + name) }

// Literal returns a plain string literal.
func Literal(s string) ir.Term { return ir.NewLiteral(s, "") }

// GraphBuilder assembles test graphs statement by statement.
//
// Example:
//
//	g := testutil.NewGraph().
//		Triple(testutil.Var("e"), testutil.IRI("p"), testutil.Literal("x")).
//		Bundle(testutil.Var("b"), func(b *testutil.GraphBuilder) {
//			b.Triple(testutil.Var("e"), testutil.IRI("q"), testutil.IRI("o"))
//		}).
//		Build()
type GraphBuilder struct {
	g     *ir.Graph
	owner *ir.Bundle
}

// NewGraph starts an empty graph.
func NewGraph() *GraphBuilder {
	return &GraphBuilder{g: ir.NewGraph()}
}

// Triple appends a statement to the current graph or bundle.
func (b *GraphBuilder) Triple(s, p, o ir.Term) *GraphBuilder {
	st := ir.Statement{Subject: s, Predicate: p, Object: o}
	if b.owner != nil {
		b.owner.Add(st)
	} else {
		b.g.Add(st)
	}
	return b
}

// Link appends a tmpl:linked statement between two variables.
func (b *GraphBuilder) Link(from, to ir.Term) *GraphBuilder {
	return b.Triple(from, ir.NewIRI(config.DefaultTmplNamespace+"linked"), to)
}

// Values appends tmpl:value_N bindings for v, one per value.
func (b *GraphBuilder) Values(v ir.Term, values ...ir.Term) *GraphBuilder {
	for i, val := range values {
		b.Triple(v, ir.NewIRI(config.DefaultTmplNamespace+"value_"+strconv.Itoa(i)), val)
	}
	return b
}

// Bundle appends a nested bundle named id and fills it with fn.
func (b *GraphBuilder) Bundle(id ir.Term, fn func(*GraphBuilder)) *GraphBuilder {
	parent := b.g
	if b.owner != nil {
		parent = &b.owner.Graph
	}
	nb := &ir.Bundle{ID: id}
	parent.Bundles = append(parent.Bundles, nb)
	if fn != nil {
		fn(&GraphBuilder{g: &nb.Graph, owner: nb})
	}
	return b
}

// Build returns the assembled graph.
func (b *GraphBuilder) Build() *ir.Graph {
	return b.g
}
