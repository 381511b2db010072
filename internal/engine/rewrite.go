package engine

import (
	"fmt"

	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// substitution maps each variable to the terms it takes in one batch.
// Most variables carry exactly one term; two-dimensional bindings carry
// several and multiply the statements they occur in.
type substitution map[ir.Term][]ir.Term

// substitutionFor builds the substitution of batch b from the plan.
func (p *Plan) substitutionFor(b *Batch) (substitution, error) {
	subst := make(substitution)
	for _, u := range b.Units {
		for _, v := range u.Variables {
			if _, done := subst[v]; done {
				continue
			}
			g, ok := p.Template.GroupOf(v)
			if !ok {
				return nil, internalError("variable %s has no group", v)
			}
			idx, ok := b.Indices[g.Index]
			if !ok {
				return nil, internalError("batch %d has no index for group %d", b.Seq, g.Index)
			}
			vals, ok := p.Groups[g.Index].Values(v)
			if !ok || idx >= len(vals) {
				return nil, internalError("variable %s has no value at index %d", v, idx)
			}
			subst[v] = vals[idx]
		}
	}
	return subst, nil
}

// rewriteBatch produces the statements of one batch: every statement of
// every unit, in unit order then statement order, with variables
// substituted and blank nodes renamed to the batch's fresh labels.
func rewriteBatch(p *Plan, b *Batch) ([]ir.Statement, error) {
	subst, err := p.substitutionFor(b)
	if err != nil {
		return nil, err
	}

	var out []ir.Statement
	for _, u := range b.Units {
		for _, st := range u.Statements {
			rewritten, err := rewriteStatement(st, subst, b.Blanks, p.Template.Vocabulary)
			if err != nil {
				return nil, err
			}
			out = append(out, rewritten...)
		}
	}
	return out, nil
}

// rewriteStatement substitutes one template statement. A position holding
// a multi-valued variable yields one statement per value; several such
// positions yield their cross product, subject outermost.
func rewriteStatement(st ir.Statement, subst substitution, blanks map[string]string, vocab config.Vocabulary) ([]ir.Statement, error) {
	options := func(t ir.Term) []ir.Term {
		if vals, ok := subst[t]; ok {
			return vals
		}
		if t.IsBlank() {
			if fresh, ok := blanks[t.Value]; ok {
				return []ir.Term{ir.NewBlank(fresh)}
			}
		}
		return []ir.Term{t}
	}

	subjects := options(st.Subject)
	predicates := options(st.Predicate)
	objects := options(st.Object)

	out := make([]ir.Statement, 0, len(subjects)*len(predicates)*len(objects))
	for _, s := range subjects {
		for _, p := range predicates {
			for _, o := range objects {
				r := ir.Statement{Subject: s, Predicate: p, Object: o}
				if err := checkStatement(r, vocab); err != nil {
					return nil, err
				}
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// checkStatement rejects rewritten statements that still hold a variable
// or put a term where RDF forbids it.
func checkStatement(st ir.Statement, vocab config.Vocabulary) error {
	for _, t := range st.Terms() {
		if config.IsVariable(t, vocab) {
			return NewResidualVariableError(t.String(), st.String())
		}
	}
	if !st.Subject.IsIRI() && !st.Subject.IsBlank() {
		return NewInvalidPositionError("subject", st.String(),
			fmt.Sprintf("subject must be an IRI or blank node, got %s", st.Subject.Kind))
	}
	if !st.Predicate.IsIRI() {
		return NewInvalidPositionError("predicate", st.String(),
			fmt.Sprintf("predicate must be an IRI, got %s", st.Predicate.Kind))
	}
	return nil
}
