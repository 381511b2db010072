package engine

import "github.com/roach88/provtmpl/internal/config"

// Summary describes a plan for reporting (validate --plan, run logs).
type Summary struct {
	Groups         []GroupSummary `json:"groups"`
	Scopes         int            `json:"scopes"`
	Units          int            `json:"units"`
	Verbatim       int            `json:"verbatim_statements"`
	Batches        int            `json:"batches"`
	Instantiations int            `json:"instantiations"`
}

// GroupSummary describes one variable group.
type GroupSummary struct {
	Index          int      `json:"index"`
	Members        []string `json:"members"`
	Length         int      `json:"length"`
	Bound          bool     `json:"bound"`
	Empty          bool     `json:"empty"`
	BundleVariable bool     `json:"bundle_variable"`
	Generated      int      `json:"generated,omitempty"`
}

// Summarize reports the shape of a plan.
func Summarize(p *Plan) Summary {
	vocab := p.Template.Vocabulary
	s := Summary{
		Batches:        len(p.Batches),
		Instantiations: p.Instantiations,
	}

	for _, gp := range p.Groups {
		members := make([]string, len(gp.Group.Members))
		for i, m := range gp.Group.Members {
			members[i] = localName(m.Value, vocab)
		}
		s.Groups = append(s.Groups, GroupSummary{
			Index:          gp.Group.Index,
			Members:        members,
			Length:         gp.Length,
			Bound:          gp.Bound,
			Empty:          gp.Empty,
			BundleVariable: gp.Group.IsBundleVariable,
			Generated:      gp.Generated,
		})
	}

	for _, scope := range p.Template.Scopes() {
		s.Scopes++
		s.Units += len(scope.Units)
	}

	var countVerbatim func(inst *ScopeInstance)
	countVerbatim = func(inst *ScopeInstance) {
		s.Verbatim += len(inst.Verbatim)
		for _, child := range inst.Bundles {
			countVerbatim(child)
		}
	}
	countVerbatim(p.Root)
	return s
}

func localName(iri string, vocab config.Vocabulary) string {
	switch {
	case len(iri) > len(vocab.VarNamespace) && iri[:len(vocab.VarNamespace)] == vocab.VarNamespace:
		return "var:" + iri[len(vocab.VarNamespace):]
	case len(iri) > len(vocab.VargenNamespace) && iri[:len(vocab.VargenNamespace)] == vocab.VargenNamespace:
		return "vargen:" + iri[len(vocab.VargenNamespace):]
	default:
		return iri
	}
}
