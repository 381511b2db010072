package rdfio

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/provtmpl/internal/ir"
)

// Document is a parsed RDF document.
type Document struct {
	Graph *ir.Graph

	// Prefixes declared by the document, in declaration order.
	Prefixes *Prefixes

	// Base is the last base IRI declared, if any.
	Base string
}

// UUIDNamespace returns the namespace the document binds to the uuid
// prefix. A template declaring it chooses where generated identifiers live.
func (d *Document) UUIDNamespace() (string, bool) {
	ns, ok := d.Prefixes.Lookup("uuid")
	if !ok || ns == "" {
		return "", false
	}
	return ns, true
}

// Read parses r in the given format.
func Read(r io.Reader, format Format) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", format, err)
	}
	return Parse(string(src), format)
}

// Parse parses src in the given format.
func Parse(src string, format Format) (*Document, error) {
	p := newParser(strings.TrimPrefix(src, "\uFEFF"), format)

	var err error
	switch format {
	case NTriples, NQuads:
		err = p.parseLines()
	case Turtle, TriG:
		err = p.parseAbbreviated()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	p.nameAnonymous()
	g := ir.NewGraph()
	for _, label := range p.graphs {
		g.Bundle(label)
	}
	for _, q := range p.out {
		if q.Graph.IsZero() {
			g.Statements = append(g.Statements, q)
			continue
		}
		g.Bundle(q.Graph).Add(q)
	}
	return &Document{
		Graph:    g,
		Prefixes: p.prefixes,
		Base:     p.base,
	}, nil
}

// ReadFile parses the file at path, choosing the format by extension.
func ReadFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// nameAnonymous replaces anonymous placeholders with labels b0, b1, ...
// skipping labels written in the document.
func (p *parser) nameAnonymous() {
	if p.anon == 0 {
		return
	}
	names := make(map[string]string, p.anon)
	next := 0
	label := func(placeholder string) string {
		if l, ok := names[placeholder]; ok {
			return l
		}
		for {
			candidate := "b" + strconv.Itoa(next)
			next++
			if _, taken := p.explicit[candidate]; !taken {
				names[placeholder] = candidate
				return candidate
			}
		}
	}
	rename := func(t ir.Term) ir.Term {
		if t.IsBlank() && strings.HasPrefix(t.Value, anonMarker) {
			return ir.NewBlank(label(t.Value))
		}
		return t
	}
	for i, l := range p.graphs {
		p.graphs[i] = rename(l)
	}
	for i, st := range p.out {
		p.out[i] = ir.Statement{
			Subject:   rename(st.Subject),
			Predicate: st.Predicate,
			Object:    rename(st.Object),
			Graph:     rename(st.Graph),
		}
	}
}
