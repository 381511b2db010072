package rdfio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/roach88/provtmpl/internal/ir"
)

// Write serializes g in the given format. Abbreviated formats compact IRIs
// with prefixes; only the prefixes actually used are declared. A nil
// prefixes value means DefaultPrefixes.
func Write(w io.Writer, g *ir.Graph, format Format, prefixes *Prefixes) error {
	if !format.SupportsBundles() && len(g.Bundles) > 0 {
		return fmt.Errorf("%w: %s", ErrBundlesUnsupported, format)
	}
	if prefixes == nil {
		prefixes = DefaultPrefixes()
	}

	bw := bufio.NewWriter(w)
	switch format {
	case NTriples, NQuads:
		for _, st := range g.Quads() {
			bw.WriteString(st.String())
			bw.WriteByte('\n')
		}
	case Turtle, TriG:
		tw := &turtleWriter{prefixes: prefixes, used: make(map[string]bool)}
		tw.graph(g)
		tw.header(bw)
		bw.Write(tw.body.Bytes())
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return bw.Flush()
}

// WriteFile writes g to path, choosing the format by extension.
func WriteFile(path string, g *ir.Graph, prefixes *Prefixes) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, g, format, prefixes); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Marshal returns g serialized in the given format.
func Marshal(g *ir.Graph, format Format, prefixes *Prefixes) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, g, format, prefixes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type turtleWriter struct {
	prefixes *Prefixes
	used     map[string]bool
	body     bytes.Buffer
}

func (w *turtleWriter) header(out *bufio.Writer) {
	n := 0
	for _, p := range w.prefixes.List() {
		if !w.used[p.Name] {
			continue
		}
		fmt.Fprintf(out, "@prefix %s: %s .\n", p.Name, ir.NewIRI(p.Namespace))
		n++
	}
	if n > 0 && w.body.Len() > 0 {
		out.WriteByte('\n')
	}
}

// graph writes root statements, then every bundle as a graph block.
// Nested bundles are written as sibling blocks after their parent.
func (w *turtleWriter) graph(g *ir.Graph) {
	w.triples(g.Statements, "")
	var blocks func(bundles []*ir.Bundle)
	blocks = func(bundles []*ir.Bundle) {
		for _, b := range bundles {
			if w.body.Len() > 0 {
				w.body.WriteByte('\n')
			}
			w.body.WriteString(w.term(b.ID))
			w.body.WriteString(" {\n")
			w.triples(b.Graph.Statements, "  ")
			w.body.WriteString("}\n")
			blocks(b.Graph.Bundles)
		}
	}
	blocks(g.Bundles)
}

// triples writes runs of statements sharing a subject with ';' and runs
// sharing a predicate with ','. Statement order is preserved.
func (w *turtleWriter) triples(stmts []ir.Statement, indent string) {
	for i := 0; i < len(stmts); {
		subj := stmts[i].Subject
		j := i
		for j < len(stmts) && stmts[j].Subject == subj {
			j++
		}

		w.body.WriteString(indent)
		w.body.WriteString(w.term(subj))
		w.body.WriteByte(' ')
		for k := i; k < j; {
			pred := stmts[k].Predicate
			m := k
			for m < j && stmts[m].Predicate == pred {
				m++
			}
			if k > i {
				w.body.WriteString(" ;\n")
				w.body.WriteString(indent)
				w.body.WriteString("    ")
			}
			w.body.WriteString(w.predicate(pred))
			w.body.WriteByte(' ')
			for x := k; x < m; x++ {
				if x > k {
					w.body.WriteString(", ")
				}
				w.body.WriteString(w.term(stmts[x].Object))
			}
			k = m
		}
		w.body.WriteString(" .\n")
		i = j
	}
}

func (w *turtleWriter) predicate(t ir.Term) string {
	if t.IsIRI() && t.Value == ir.RDFType {
		return "a"
	}
	return w.term(t)
}

func (w *turtleWriter) term(t ir.Term) string {
	switch t.Kind {
	case ir.KindIRI:
		return w.iri(t.Value)
	case ir.KindLiteral:
		s := `"` + ir.EscapeLiteral(t.Value) + `"`
		switch {
		case t.Lang != "":
			return s + "@" + t.Lang
		case t.Datatype != "" && t.Datatype != ir.XSDString:
			return s + "^^" + w.iri(t.Datatype)
		default:
			return s
		}
	default:
		return t.String()
	}
}

func (w *turtleWriter) iri(iri string) string {
	if p, name, ok := w.prefixes.Compact(iri); ok {
		w.used[p.Name] = true
		return name
	}
	return ir.NewIRI(iri).String()
}
