package ir

import "strings"

// Statement is an ordered (subject, predicate, object, graph) tuple.
// Graph is the zero Term for statements in the default graph.
type Statement struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// Terms returns subject, predicate and object in order.
func (s Statement) Terms() [3]Term {
	return [3]Term{s.Subject, s.Predicate, s.Object}
}

// String renders the statement as one N-Quads line without the newline.
func (s Statement) String() string {
	var b strings.Builder
	b.WriteString(s.Subject.String())
	b.WriteByte(' ')
	b.WriteString(s.Predicate.String())
	b.WriteByte(' ')
	b.WriteString(s.Object.String())
	if !s.Graph.IsZero() {
		b.WriteByte(' ')
		b.WriteString(s.Graph.String())
	}
	b.WriteString(" .")
	return b.String()
}

// Graph is an ordered collection of statements plus named sub-bundles.
// It is used for templates, bindings and expansion output alike.
type Graph struct {
	Statements []Statement
	Bundles    []*Bundle
}

// Bundle is a named sub-graph. ID may itself be a template variable.
type Bundle struct {
	ID    Term
	Graph Graph
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends statements to the graph, clearing their graph context.
func (g *Graph) Add(stmts ...Statement) {
	for _, s := range stmts {
		s.Graph = Term{}
		g.Statements = append(g.Statements, s)
	}
}

// AddTriple appends a default-graph statement.
func (g *Graph) AddTriple(subj, pred, obj Term) {
	g.Statements = append(g.Statements, Statement{Subject: subj, Predicate: pred, Object: obj})
}

// Bundle returns the direct child bundle named id, creating it if absent.
func (g *Graph) Bundle(id Term) *Bundle {
	for _, b := range g.Bundles {
		if b.ID == id {
			return b
		}
	}
	b := &Bundle{ID: id}
	g.Bundles = append(g.Bundles, b)
	return b
}

// Add appends statements to the bundle, stamping them with the bundle ID.
func (b *Bundle) Add(stmts ...Statement) {
	for _, s := range stmts {
		s.Graph = b.ID
		b.Graph.Statements = append(b.Graph.Statements, s)
	}
}

// Len returns the number of statements in the graph and all nested bundles.
func (g *Graph) Len() int {
	n := len(g.Statements)
	for _, b := range g.Bundles {
		n += b.Graph.Len()
	}
	return n
}

// Walk visits every statement depth-first: own statements in order, then
// each bundle in order. The bundle argument is nil for root statements.
// Walk stops at the first error returned by fn.
func (g *Graph) Walk(fn func(b *Bundle, s Statement) error) error {
	return g.walk(nil, fn)
}

func (g *Graph) walk(owner *Bundle, fn func(*Bundle, Statement) error) error {
	for _, s := range g.Statements {
		if err := fn(owner, s); err != nil {
			return err
		}
	}
	for _, b := range g.Bundles {
		if err := b.Graph.walk(b, fn); err != nil {
			return err
		}
	}
	return nil
}

// Quads flattens the graph into statements in Walk order. Every
// statement's Graph field is set to its innermost bundle identifier.
func (g *Graph) Quads() []Statement {
	out := make([]Statement, 0, g.Len())
	_ = g.Walk(func(b *Bundle, s Statement) error {
		if b == nil {
			s.Graph = Term{}
		} else {
			s.Graph = b.ID
		}
		out = append(out, s)
		return nil
	})
	return out
}

// FromQuads builds a graph from a flat statement list. Statements with a
// graph context are grouped into bundles in first-appearance order;
// relative statement order within each graph is preserved.
func FromQuads(quads []Statement) *Graph {
	g := NewGraph()
	for _, q := range quads {
		if q.Graph.IsZero() {
			g.Statements = append(g.Statements, q)
			continue
		}
		g.Bundle(q.Graph).Add(q)
	}
	return g
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Statements: append([]Statement(nil), g.Statements...),
	}
	for _, b := range g.Bundles {
		c.Bundles = append(c.Bundles, &Bundle{ID: b.ID, Graph: *b.Graph.Clone()})
	}
	return c
}

// BlankLabels returns every blank node label used anywhere in the graph,
// including bundle identifiers.
func (g *Graph) BlankLabels() map[string]struct{} {
	labels := make(map[string]struct{})
	g.collectLabels(labels)
	return labels
}

func (g *Graph) collectLabels(labels map[string]struct{}) {
	for _, s := range g.Statements {
		for _, t := range s.Terms() {
			if t.IsBlank() {
				labels[t.Value] = struct{}{}
			}
		}
	}
	for _, b := range g.Bundles {
		if b.ID.IsBlank() {
			labels[b.ID.Value] = struct{}{}
		}
		b.Graph.collectLabels(labels)
	}
}
