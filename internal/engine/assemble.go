package engine

import "github.com/roach88/provtmpl/internal/ir"

// assemble builds the output graph from the plan and the rewritten batch
// results (indexed by Batch.Seq).
//
// Each scope instance contributes its verbatim statements first, then its
// batches in plan order, then its bundle instances in template order.
// Nothing is deduplicated.
func assemble(p *Plan, results [][]ir.Statement) *ir.Graph {
	out := ir.NewGraph()
	assembleScope(out, nil, p.Root, results)
	return out
}

func assembleScope(g *ir.Graph, owner *ir.Bundle, inst *ScopeInstance, results [][]ir.Statement) {
	add := g.Add
	if owner != nil {
		add = owner.Add
	}

	add(inst.Verbatim...)
	for _, b := range inst.Batches {
		add(results[b.Seq]...)
	}

	for _, child := range inst.Bundles {
		nb := &ir.Bundle{ID: child.ID}
		g.Bundles = append(g.Bundles, nb)
		assembleScope(&nb.Graph, nb, child, results)
	}
}
