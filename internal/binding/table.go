// Package binding resolves template variables to their bound values.
//
// A Table maps each variable to an ordered list of instances; each
// instance is an ordered list of terms. Ordinary bindings have exactly one
// term per instance. Two-dimensional bindings (tmpl:2dvalue_N_M, nested
// arrays in JSON) may carry several.
//
// A variable present in the table with zero instances is explicitly empty.
// A variable absent from the table is unbound. The planner treats the two
// differently.
package binding

import (
	"fmt"
	"strconv"

	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// Table holds resolved bindings. Read-only once resolution finishes.
type Table struct {
	values map[ir.Term][][]ir.Term
	order  []ir.Term
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{values: make(map[ir.Term][][]ir.Term)}
}

// Set binds variable v to instances. A nil or empty slice marks v as
// explicitly empty. Rebinding keeps v's original position.
func (t *Table) Set(v ir.Term, instances [][]ir.Term) {
	if _, ok := t.values[v]; !ok {
		t.order = append(t.order, v)
	}
	if instances == nil {
		instances = [][]ir.Term{}
	}
	t.values[v] = instances
}

// SetValues binds v to one term per instance.
func (t *Table) SetValues(v ir.Term, values ...ir.Term) {
	instances := make([][]ir.Term, len(values))
	for i, val := range values {
		instances[i] = []ir.Term{val}
	}
	t.Set(v, instances)
}

// Lookup returns the instances bound to v and whether v is present.
func (t *Table) Lookup(v ir.Term) ([][]ir.Term, bool) {
	vals, ok := t.values[v]
	return vals, ok
}

// Len returns the number of instances bound to v (0 when unbound).
func (t *Table) Len(v ir.Term) int {
	return len(t.values[v])
}

// Variables returns bound variables in first-binding order.
func (t *Table) Variables() []ir.Term {
	return t.order
}

// Graph renders the table as a bindings graph using indexed predicates.
// Explicitly empty variables are written as an empty collection. The
// result resolves back to an equal table.
func (t *Table) Graph(vocab config.Vocabulary) *ir.Graph {
	g := ir.NewGraph()
	for _, v := range t.order {
		instances := t.values[v]
		if len(instances) == 0 {
			g.AddTriple(v, ir.NewIRI(vocab.ValuesPredicate), ir.NewIRI(ir.RDFNil))
			continue
		}
		twoD := false
		for _, inst := range instances {
			if len(inst) != 1 {
				twoD = true
				break
			}
		}
		for i, inst := range instances {
			if !twoD {
				g.AddTriple(v, ir.NewIRI(vocab.ValuePrefix+strconv.Itoa(i)), inst[0])
				continue
			}
			for j, val := range inst {
				pred := fmt.Sprintf("%s%d_%d", vocab.Value2DPrefix, i, j)
				g.AddTriple(v, ir.NewIRI(pred), val)
			}
		}
	}
	return g
}
