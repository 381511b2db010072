package rdfio

import (
	"slices"
	"strings"

	"github.com/roach88/provtmpl/internal/ir"
)

var (
	rdfType  = ir.NewIRI(ir.RDFType)
	rdfFirst = ir.NewIRI(ir.RDFFirst)
	rdfRest  = ir.NewIRI(ir.RDFRest)
	rdfNil   = ir.NewIRI(ir.RDFNil)
)

// parseAbbreviated parses a Turtle or TriG document.
func (p *parser) parseAbbreviated() error {
	for {
		p.skipWS()
		if p.eof() {
			return nil
		}
		if err := p.statement(); err != nil {
			return err
		}
	}
}

func (p *parser) statement() error {
	switch {
	case p.peek() == '@':
		return p.atDirective()
	case p.keyword("PREFIX"):
		p.consume(len("PREFIX"))
		return p.prefixDecl(false)
	case p.keyword("BASE"):
		p.consume(len("BASE"))
		return p.baseDecl(false)
	case p.format == TriG && p.keyword("GRAPH"):
		p.consume(len("GRAPH"))
		p.skipWS()
		label, err := p.graphLabel()
		if err != nil {
			return err
		}
		return p.wrappedGraph(label)
	case p.format == TriG && p.peek() == '{':
		return p.wrappedGraph(ir.Term{})
	}
	return p.triplesOrGraph()
}

func (p *parser) atDirective() error {
	switch {
	case strings.HasPrefix(p.src[p.pos:], "@prefix"):
		p.consume(len("@prefix"))
		return p.prefixDecl(true)
	case strings.HasPrefix(p.src[p.pos:], "@base"):
		p.consume(len("@base"))
		return p.baseDecl(true)
	default:
		return p.errorf("unknown directive")
	}
}

func (p *parser) prefixDecl(dotted bool) error {
	p.skipWS()
	start := p.pos
	for !p.eof() && p.peek() != ':' {
		r := p.peek()
		if !isNameChar(r) && r != '.' {
			return p.errorf("invalid prefix name")
		}
		p.next()
	}
	name := p.src[start:p.pos]
	if err := p.expect(':'); err != nil {
		return err
	}
	p.skipWS()
	ns, err := p.iriRef()
	if err != nil {
		return err
	}
	p.prefixes.Set(name, ns)
	if dotted {
		return p.expect('.')
	}
	return nil
}

func (p *parser) baseDecl(dotted bool) error {
	p.skipWS()
	iri, err := p.iriRef()
	if err != nil {
		return err
	}
	p.base = iri
	if dotted {
		return p.expect('.')
	}
	return nil
}

// triplesOrGraph handles a top-level statement that starts with a term:
// a triples statement, or in TriG a labelled graph block.
func (p *parser) triplesOrGraph() error {
	bracket := p.peek() == '['
	mark := len(p.out)
	subj, err := p.subject()
	if err != nil {
		return err
	}
	p.skipWS()

	if p.format == TriG && p.peek() == '{' {
		if len(p.out) != mark || (!subj.IsIRI() && !subj.IsBlank()) {
			return p.errorf("graph label must be an IRI or blank node")
		}
		return p.wrappedGraph(subj)
	}

	if !(bracket && p.peek() == '.') {
		if err := p.predicateObjectList(subj); err != nil {
			return err
		}
	}
	return p.expect('.')
}

func (p *parser) graphLabel() (ir.Term, error) {
	switch {
	case p.peek() == '[':
		p.next()
		if err := p.expect(']'); err != nil {
			return ir.Term{}, err
		}
		return p.fresh(), nil
	case strings.HasPrefix(p.src[p.pos:], "_:"):
		return p.blankLabel()
	default:
		return p.iri()
	}
}

// wrappedGraph parses { triples } into graph g. The final statement's
// dot is optional.
func (p *parser) wrappedGraph(g ir.Term) error {
	if err := p.expect('{'); err != nil {
		return err
	}
	prev := p.graph
	p.graph = g
	if !g.IsZero() && !slices.Contains(p.graphs, g) {
		p.graphs = append(p.graphs, g)
	}
	defer func() { p.graph = prev }()

	for {
		p.skipWS()
		if p.peek() == '}' {
			p.next()
			return nil
		}
		bracket := p.peek() == '['
		subj, err := p.subject()
		if err != nil {
			return err
		}
		p.skipWS()
		if !(bracket && (p.peek() == '.' || p.peek() == '}')) {
			if err := p.predicateObjectList(subj); err != nil {
				return err
			}
			p.skipWS()
		}
		switch p.peek() {
		case '.':
			p.next()
		case '}':
		default:
			return p.errorf("expected '.' or '}', found %s", p.describe())
		}
	}
}

func (p *parser) subject() (ir.Term, error) {
	switch r := p.peek(); {
	case r == '[':
		return p.blankNodePropertyList()
	case r == '(':
		return p.collection()
	case strings.HasPrefix(p.src[p.pos:], "_:"):
		return p.blankLabel()
	default:
		return p.iri()
	}
}

func (p *parser) verb() (ir.Term, error) {
	if p.peek() == 'a' && p.keyword("a") {
		p.next()
		return rdfType, nil
	}
	return p.iri()
}

func (p *parser) predicateObjectList(subj ir.Term) error {
	for {
		p.skipWS()
		pred, err := p.verb()
		if err != nil {
			return err
		}
		if err := p.objectList(subj, pred); err != nil {
			return err
		}

		p.skipWS()
		if p.peek() != ';' {
			return nil
		}
		for p.peek() == ';' {
			p.next()
			p.skipWS()
		}
		switch p.peek() {
		case '.', ']', '}', 0:
			return nil
		}
	}
}

func (p *parser) objectList(subj, pred ir.Term) error {
	for {
		p.skipWS()
		obj, err := p.object()
		if err != nil {
			return err
		}
		p.emit(subj, pred, obj)
		p.skipWS()
		if p.peek() != ',' {
			return nil
		}
		p.next()
	}
}

func (p *parser) object() (ir.Term, error) {
	switch r := p.peek(); {
	case r == '[':
		return p.blankNodePropertyList()
	case r == '(':
		return p.collection()
	case r == '"' || r == '\'':
		return p.literal()
	case r == '+' || r == '-' || isDigitRune(r) || (r == '.' && isDigit(p.peekAt(1))):
		return p.number()
	case strings.HasPrefix(p.src[p.pos:], "true") && p.keyword("true"):
		p.consume(4)
		return ir.NewLiteral("true", ir.XSDBoolean), nil
	case strings.HasPrefix(p.src[p.pos:], "false") && p.keyword("false"):
		p.consume(5)
		return ir.NewLiteral("false", ir.XSDBoolean), nil
	case strings.HasPrefix(p.src[p.pos:], "_:"):
		return p.blankLabel()
	default:
		return p.iri()
	}
}

// blankNodePropertyList parses [ predicateObjectList ] and returns the
// anonymous node.
func (p *parser) blankNodePropertyList() (ir.Term, error) {
	p.next()
	node := p.fresh()
	p.skipWS()
	if p.peek() == ']' {
		p.next()
		return node, nil
	}
	if err := p.predicateObjectList(node); err != nil {
		return ir.Term{}, err
	}
	if err := p.expect(']'); err != nil {
		return ir.Term{}, err
	}
	return node, nil
}

// collection parses ( items ) into an rdf:first / rdf:rest chain.
func (p *parser) collection() (ir.Term, error) {
	p.next()
	var items []ir.Term
	for {
		p.skipWS()
		if p.eof() {
			return ir.Term{}, p.errorf("unterminated collection")
		}
		if p.peek() == ')' {
			p.next()
			break
		}
		item, err := p.object()
		if err != nil {
			return ir.Term{}, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return rdfNil, nil
	}

	head := p.fresh()
	cell := head
	for i, item := range items {
		p.emit(cell, rdfFirst, item)
		rest := rdfNil
		if i < len(items)-1 {
			rest = p.fresh()
		}
		p.emit(cell, rdfRest, rest)
		cell = rest
	}
	return head, nil
}
