package binding

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// FormatError reports a malformed value list for one variable.
type FormatError struct {
	Variable ir.Term
	Message  string
}

func (e *FormatError) Error() string {
	if e.Variable.IsZero() {
		return "binding format: " + e.Message
	}
	return fmt.Sprintf("binding format: %s: %s", e.Variable, e.Message)
}

// IsFormatError returns true if the error is a FormatError.
// Uses errors.As to handle wrapped errors.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

type style uint8

const (
	styleNone style = iota
	styleIndexed
	style2D
	styleList
)

func (s style) String() string {
	switch s {
	case styleIndexed:
		return "value_N"
	case style2D:
		return "2dvalue_N_M"
	case styleList:
		return "values list"
	default:
		return "none"
	}
}

// entry accumulates the raw assertions for one variable.
type entry struct {
	style   style
	indexed map[int]ir.Term
	twoD    map[int]map[int]ir.Term
	list    ir.Term
}

// Resolve reads a bindings graph into a Table.
//
// Three assertion patterns are recognised for a variable subject:
//
//	var:x tmpl:value_0 ex:a .           # indexed, one value per instance
//	var:x tmpl:2dvalue_0_1 "b" .        # instance 0, value 1
//	var:x tmpl:values ( ex:a ex:b ) .   # RDF collection, rdf:nil is empty
//
// Indices must run from 0 without gaps or repeats. One variable may use
// only one pattern. Other predicates on variables are ignored, and
// statements in every graph of the dataset are considered.
func Resolve(g *ir.Graph, vocab config.Vocabulary) (*Table, error) {
	quads := g.Quads()
	cells := collectCells(quads)

	var order []ir.Term
	entries := make(map[ir.Term]*entry)
	get := func(v ir.Term) *entry {
		e, ok := entries[v]
		if !ok {
			e = &entry{}
			entries[v] = e
			order = append(order, v)
		}
		return e
	}

	for _, q := range quads {
		if !config.IsVariable(q.Subject, vocab) || !q.Predicate.IsIRI() {
			continue
		}
		pred := q.Predicate.Value
		v := q.Subject

		switch {
		case pred == vocab.ValuesPredicate:
			e := get(v)
			if err := e.setStyle(v, styleList); err != nil {
				return nil, err
			}
			if !e.list.IsZero() {
				return nil, &FormatError{Variable: v, Message: "more than one values list"}
			}
			e.list = q.Object

		case strings.HasPrefix(pred, vocab.Value2DPrefix):
			i, j, err := parse2DIndex(strings.TrimPrefix(pred, vocab.Value2DPrefix))
			if err != nil {
				return nil, &FormatError{Variable: v, Message: err.Error()}
			}
			e := get(v)
			if err := e.setStyle(v, style2D); err != nil {
				return nil, err
			}
			if e.twoD == nil {
				e.twoD = make(map[int]map[int]ir.Term)
			}
			row := e.twoD[i]
			if row == nil {
				row = make(map[int]ir.Term)
				e.twoD[i] = row
			}
			if _, dup := row[j]; dup {
				return nil, &FormatError{Variable: v, Message: fmt.Sprintf("duplicate position %d_%d", i, j)}
			}
			row[j] = q.Object

		case strings.HasPrefix(pred, vocab.ValuePrefix):
			i, err := parseIndex(strings.TrimPrefix(pred, vocab.ValuePrefix))
			if err != nil {
				return nil, &FormatError{Variable: v, Message: err.Error()}
			}
			e := get(v)
			if err := e.setStyle(v, styleIndexed); err != nil {
				return nil, err
			}
			if e.indexed == nil {
				e.indexed = make(map[int]ir.Term)
			}
			if _, dup := e.indexed[i]; dup {
				return nil, &FormatError{Variable: v, Message: fmt.Sprintf("duplicate position %d", i)}
			}
			e.indexed[i] = q.Object
		}
	}

	t := NewTable()
	for _, v := range order {
		instances, err := entries[v].instances(v, cells)
		if err != nil {
			return nil, err
		}
		t.Set(v, instances)
	}
	return t, nil
}

func (e *entry) setStyle(v ir.Term, s style) error {
	if e.style != styleNone && e.style != s {
		return &FormatError{Variable: v, Message: fmt.Sprintf("mixes %s and %s bindings", e.style, s)}
	}
	e.style = s
	return nil
}

func (e *entry) instances(v ir.Term, cells map[ir.Term]*cell) ([][]ir.Term, error) {
	switch e.style {
	case styleIndexed:
		if err := checkContiguous(keys(e.indexed)); err != nil {
			return nil, &FormatError{Variable: v, Message: err.Error()}
		}
		out := make([][]ir.Term, len(e.indexed))
		for i := range out {
			out[i] = []ir.Term{e.indexed[i]}
		}
		return out, nil

	case style2D:
		if err := checkContiguous(keys(e.twoD)); err != nil {
			return nil, &FormatError{Variable: v, Message: err.Error()}
		}
		out := make([][]ir.Term, len(e.twoD))
		for i := range out {
			row := e.twoD[i]
			if err := checkContiguous(keys(row)); err != nil {
				return nil, &FormatError{Variable: v, Message: fmt.Sprintf("instance %d: %v", i, err)}
			}
			out[i] = make([]ir.Term, len(row))
			for j := range out[i] {
				out[i][j] = row[j]
			}
		}
		return out, nil

	case styleList:
		items, err := walkList(e.list, cells)
		if err != nil {
			return nil, &FormatError{Variable: v, Message: err.Error()}
		}
		out := make([][]ir.Term, len(items))
		for i, item := range items {
			out[i] = []ir.Term{item}
		}
		return out, nil
	}
	return nil, nil
}

// cell is one rdf:first / rdf:rest pair of a collection.
type cell struct {
	first, rest []ir.Term
}

func collectCells(quads []ir.Statement) map[ir.Term]*cell {
	cells := make(map[ir.Term]*cell)
	for _, q := range quads {
		if !q.Subject.IsBlank() || !q.Predicate.IsIRI() {
			continue
		}
		switch q.Predicate.Value {
		case ir.RDFFirst, ir.RDFRest:
		default:
			continue
		}
		c := cells[q.Subject]
		if c == nil {
			c = &cell{}
			cells[q.Subject] = c
		}
		if q.Predicate.Value == ir.RDFFirst {
			c.first = append(c.first, q.Object)
		} else {
			c.rest = append(c.rest, q.Object)
		}
	}
	return cells
}

func walkList(head ir.Term, cells map[ir.Term]*cell) ([]ir.Term, error) {
	var items []ir.Term
	seen := make(map[ir.Term]bool)
	node := head
	for {
		if node.IsIRI() && node.Value == ir.RDFNil {
			return items, nil
		}
		if !node.IsBlank() {
			return nil, fmt.Errorf("values list node %s is not a collection", node)
		}
		if seen[node] {
			return nil, fmt.Errorf("values list is cyclic at %s", node)
		}
		seen[node] = true
		c := cells[node]
		if c == nil || len(c.first) != 1 || len(c.rest) != 1 {
			return nil, fmt.Errorf("values list node %s needs exactly one rdf:first and one rdf:rest", node)
		}
		items = append(items, c.first[0])
		node = c.rest[0]
	}
}

// parseIndex reads a position written in decimal digits only, without a
// sign or leading zeros.
func parseIndex(s string) (int, error) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid position %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return n, nil
}

func parse2DIndex(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, "_")
	if !ok {
		return 0, 0, fmt.Errorf("invalid 2-D position %q", s)
	}
	i, err := parseIndex(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid 2-D position %q", s)
	}
	j, err := parseIndex(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid 2-D position %q", s)
	}
	return i, j, nil
}

// checkContiguous requires idx to be exactly 0..len(idx)-1.
func checkContiguous(idx []int) error {
	slices.Sort(idx)
	for want, got := range idx {
		if got != want {
			return fmt.Errorf("positions %v do not run from 0 without gaps", idx)
		}
	}
	return nil
}

func keys[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
