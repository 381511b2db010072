package rdfio

import (
	"strings"

	"github.com/roach88/provtmpl/internal/ir"
)

// parseLines parses N-Triples or N-Quads: one statement per line, full
// IRIs only, no abbreviations.
func (p *parser) parseLines() error {
	for {
		p.skipInlineWS()
		switch {
		case p.eof():
			return nil
		case p.peek() == '\n' || p.peek() == '\r' || p.peek() == '#':
			p.skipWS()
			continue
		}
		if err := p.nquadLine(); err != nil {
			return err
		}
	}
}

func (p *parser) nquadLine() error {
	subj, err := p.lineNode()
	if err != nil {
		return err
	}
	p.skipInlineWS()
	pred, err := p.iri()
	if err != nil {
		return err
	}
	p.skipInlineWS()

	var obj ir.Term
	if p.peek() == '"' {
		obj, err = p.literal()
	} else {
		obj, err = p.lineNode()
	}
	if err != nil {
		return err
	}
	p.skipInlineWS()

	var graph ir.Term
	if p.peek() != '.' {
		if p.format != NQuads {
			return p.errorf("expected '.', found %s", p.describe())
		}
		if graph, err = p.lineNode(); err != nil {
			return err
		}
		p.skipInlineWS()
	}
	if p.peek() != '.' {
		return p.errorf("expected '.', found %s", p.describe())
	}
	p.next()

	p.skipInlineWS()
	if p.peek() == '#' {
		for !p.eof() && p.peek() != '\n' {
			p.next()
		}
	}
	if !p.eof() && p.peek() != '\n' && p.peek() != '\r' {
		return p.errorf("expected end of line, found %s", p.describe())
	}

	p.out = append(p.out, ir.Statement{Subject: subj, Predicate: pred, Object: obj, Graph: graph})
	return nil
}

// lineNode reads an IRI or a blank node label.
func (p *parser) lineNode() (ir.Term, error) {
	if strings.HasPrefix(p.src[p.pos:], "_:") {
		return p.blankLabel()
	}
	return p.iri()
}

func (p *parser) skipInlineWS() {
	for p.peek() == ' ' || p.peek() == '\t' {
		p.next()
	}
}

// ParseQuad parses a single N-Quads line such as Statement.String returns.
// Blank node labels are kept as written.
func ParseQuad(line string) (ir.Statement, error) {
	p := newParser(strings.TrimRight(line, "\r\n"), NQuads)
	p.skipInlineWS()
	if err := p.nquadLine(); err != nil {
		return ir.Statement{}, err
	}
	return p.out[0], nil
}

// ParseTerm parses a single IRI, blank node or literal in N-Quads syntax,
// the inverse of Term.String.
func ParseTerm(s string) (ir.Term, error) {
	p := newParser(s, NQuads)
	var (
		t   ir.Term
		err error
	)
	if p.peek() == '"' {
		t, err = p.literal()
	} else {
		t, err = p.lineNode()
	}
	if err != nil {
		return ir.Term{}, err
	}
	if !p.eof() {
		return ir.Term{}, p.errorf("unexpected %s after term", p.describe())
	}
	return t, nil
}
