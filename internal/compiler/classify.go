package compiler

import (
	"slices"

	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// Classify validates a template graph and classifies its variables into
// groups and its statements into units.
//
// Returns *TemplateError when validation fails. The input graph is not
// modified.
func Classify(g *ir.Graph, vocab config.Vocabulary) (*Template, error) {
	if errs := Validate(g, vocab); len(errs) > 0 {
		return nil, &TemplateError{Errors: errs}
	}

	c := &classifier{
		vocab:   vocab,
		index:   make(map[ir.Term]int),
		bundles: make(map[ir.Term]bool),
		used:    make(map[ir.Term]bool),
		labels:  make(map[string]struct{}),
	}
	c.discover(g)

	for _, l := range c.links {
		c.uf.union(c.index[l.From], c.index[l.To])
	}

	t := &Template{
		Vocabulary: vocab,
		Links:      c.links,
		variables:  c.vars,
		groupOf:    make(map[ir.Term]int, len(c.vars)),
		labels:     c.labels,
	}
	t.Groups = c.buildGroups(t.groupOf)
	t.Root = c.buildScope(g, ir.Term{}, nil, t.groupOf)
	t.Warnings = append(AnalyzeLinks(c.links, vocab), c.linkOnlyWarnings(t.Groups)...)
	return t, nil
}

type classifier struct {
	vocab config.Vocabulary

	uf      unionFind
	vars    []ir.Term
	index   map[ir.Term]int
	bundles map[ir.Term]bool
	used    map[ir.Term]bool
	links   []Link
	labels  map[string]struct{}
}

// discover walks the graph in discovery order, registering variables,
// linking directives and blank labels.
func (c *classifier) discover(g *ir.Graph) {
	for _, s := range g.Statements {
		if c.vocab.IsLinked(s.Predicate) {
			c.variable(s.Subject)
			c.variable(s.Object)
			c.links = append(c.links, Link{From: s.Subject, To: s.Object})
			continue
		}
		for _, term := range s.Terms() {
			c.label(term)
			if c.variable(term) {
				c.used[term] = true
			}
		}
	}
	for _, b := range g.Bundles {
		c.label(b.ID)
		if c.variable(b.ID) {
			c.used[b.ID] = true
			c.bundles[b.ID] = true
		}
		c.discover(&b.Graph)
	}
}

// variable registers t if it is a variable and reports whether it is.
func (c *classifier) variable(t ir.Term) bool {
	if !config.IsVariable(t, c.vocab) {
		return false
	}
	if _, ok := c.index[t]; !ok {
		c.index[t] = c.uf.add()
		c.vars = append(c.vars, t)
	}
	return true
}

func (c *classifier) label(t ir.Term) {
	if t.IsBlank() {
		c.labels[t.Value] = struct{}{}
	}
}

// buildGroups numbers groups by their first discovered member.
func (c *classifier) buildGroups(groupOf map[ir.Term]int) []*Group {
	var groups []*Group
	byRoot := make(map[int]int)
	for _, v := range c.vars {
		root := c.uf.find(c.index[v])
		gi, ok := byRoot[root]
		if !ok {
			gi = len(groups)
			byRoot[root] = gi
			groups = append(groups, &Group{Index: gi})
		}
		grp := groups[gi]
		grp.Members = append(grp.Members, v)
		grp.IsBundleVariable = grp.IsBundleVariable || c.bundles[v]
		grp.Used = grp.Used || c.used[v]
		groupOf[v] = gi
	}
	return groups
}

// buildScope normalises one graph level and partitions it into units.
func (c *classifier) buildScope(g *ir.Graph, id ir.Term, parentFixed []int, groupOf map[ir.Term]int) *Scope {
	s := &Scope{ID: id, Group: -1, Fixed: parentFixed}
	if gi, ok := groupOf[id]; ok {
		s.Group = gi
		if !slices.Contains(parentFixed, gi) {
			s.Fixed = append(slices.Clone(parentFixed), gi)
		}
	}

	var stmts []ir.Statement
	for _, st := range g.Statements {
		if c.vocab.IsLinked(st.Predicate) {
			continue
		}
		st.Predicate = c.vocab.Alias(st.Predicate)
		st.Graph = ir.Term{}
		stmts = append(stmts, st)
	}
	s.Units = c.partition(stmts, s.Fixed, groupOf)

	for _, b := range g.Bundles {
		s.Bundles = append(s.Bundles, c.buildScope(&b.Graph, b.ID, s.Fixed, groupOf))
	}
	return s
}

// partition splits statements into units connected by shared blank nodes.
// Units are ordered by their first statement.
func (c *classifier) partition(stmts []ir.Statement, fixed []int, groupOf map[ir.Term]int) []*Unit {
	var uf unionFind
	owner := make(map[string]int)
	for i, st := range stmts {
		uf.add()
		for _, term := range st.Terms() {
			if !term.IsBlank() {
				continue
			}
			if j, ok := owner[term.Value]; ok {
				uf.union(i, j)
			} else {
				owner[term.Value] = i
			}
		}
	}

	var units []*Unit
	byRoot := make(map[int]*Unit)
	for i, st := range stmts {
		root := uf.find(i)
		u, ok := byRoot[root]
		if !ok {
			u = &Unit{Index: len(units)}
			byRoot[root] = u
			units = append(units, u)
		}
		u.Statements = append(u.Statements, st)
		u.Positions = append(u.Positions, i)
	}

	for _, u := range units {
		seen := make(map[ir.Term]bool)
		for _, st := range u.Statements {
			for _, term := range st.Terms() {
				if seen[term] || !config.IsVariable(term, c.vocab) {
					continue
				}
				seen[term] = true
				u.Variables = append(u.Variables, term)
				gi := groupOf[term]
				if !slices.Contains(u.Groups, gi) {
					u.Groups = append(u.Groups, gi)
				}
			}
		}
		slices.Sort(u.Groups)
		for _, gi := range u.Groups {
			if !slices.Contains(fixed, gi) {
				u.Free = append(u.Free, gi)
			}
		}
		u.Verbatim = len(u.Variables) == 0 && len(fixed) == 0
	}
	return units
}

// linkOnlyWarnings reports groups whose members never occur outside
// linking statements.
func (c *classifier) linkOnlyWarnings(groups []*Group) []Warning {
	var warnings []Warning
	for _, g := range groups {
		if g.Used {
			continue
		}
		warnings = append(warnings, Warning{
			Code:    WarnLinkOnly,
			Path:    localNames(g.Members, c.vocab),
			Message: "variables " + g.String() + " occur only in linking statements",
			Level:   "info",
		})
	}
	return warnings
}
