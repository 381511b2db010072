package compiler

import (
	"strconv"
	"strings"

	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// Template is a classified template graph.
type Template struct {
	Vocabulary config.Vocabulary

	// Groups in discovery order. Group.Index is the position in this slice.
	Groups []*Group

	// Root is the default-graph scope. Bundles nest below it.
	Root *Scope

	// Links are the linking directives removed from the template.
	Links []Link

	// Warnings are non-fatal findings (link cycles, link-only variables).
	Warnings []Warning

	variables []ir.Term
	groupOf   map[ir.Term]int
	labels    map[string]struct{}
}

// GroupOf returns the group a variable belongs to.
func (t *Template) GroupOf(v ir.Term) (*Group, bool) {
	i, ok := t.groupOf[v]
	if !ok {
		return nil, false
	}
	return t.Groups[i], true
}

// Variables returns every variable in discovery order.
func (t *Template) Variables() []ir.Term {
	return t.variables
}

// IsVariable reports whether t is a variable under the template's vocabulary.
func (t *Template) IsVariable(term ir.Term) bool {
	return config.IsVariable(term, t.Vocabulary)
}

// BlankLabels returns the blank node labels used by the template.
func (t *Template) BlankLabels() map[string]struct{} {
	return t.labels
}

// Scopes returns every scope depth-first, root first.
func (t *Template) Scopes() []*Scope {
	var out []*Scope
	var visit func(s *Scope)
	visit = func(s *Scope) {
		out = append(out, s)
		for _, b := range s.Bundles {
			visit(b)
		}
	}
	visit(t.Root)
	return out
}

// Group is a set of variables that expand in lockstep.
type Group struct {
	Index   int
	Members []ir.Term

	// IsBundleVariable is set when a member names a bundle; the group then
	// multiplies the whole bundle rather than individual statements.
	IsBundleVariable bool

	// Used is false when members occur only in linking statements.
	Used bool
}

// String lists the members in discovery order.
func (g *Group) String() string {
	names := make([]string, len(g.Members))
	for i, m := range g.Members {
		names[i] = m.String()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Scope is the root graph or one bundle of the template.
type Scope struct {
	// ID is the bundle identifier; zero for the root scope.
	ID ir.Term

	// Group is the group of a variable bundle identifier, -1 otherwise.
	Group int

	// Fixed lists the groups fixed by this scope and its ancestors,
	// outermost first. Statements inside see one value per fixed group.
	Fixed []int

	Units   []*Unit
	Bundles []*Scope
}

// IsRoot reports whether s is the default-graph scope.
func (s *Scope) IsRoot() bool {
	return s.ID.IsZero()
}

// Multiplied reports whether any enclosing bundle is driven by a variable.
func (s *Scope) Multiplied() bool {
	return len(s.Fixed) > 0
}

// Unit is a maximal set of statements in one scope connected through
// shared blank nodes.
type Unit struct {
	// Index is the unit's position in its scope.
	Index int

	// Statements in template order. Graph fields are cleared.
	Statements []ir.Statement

	// Positions holds each statement's index among the scope's statements.
	Positions []int

	// Variables occurring in the unit, in discovery order.
	Variables []ir.Term

	// Groups referenced by the unit's variables, ascending.
	Groups []int

	// Free is Groups minus the scope's fixed groups: the groups the unit
	// multiplies over.
	Free []int

	// Verbatim units hold no variables and sit in an unmultiplied scope.
	// They are copied once, unchanged.
	Verbatim bool
}

// Signature returns the unit's free groups as a comparable key.
func (u *Unit) Signature() string {
	var b strings.Builder
	for i, g := range u.Free {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(g))
	}
	return b.String()
}

// Link is one linking directive.
type Link struct {
	From ir.Term
	To   ir.Term
}
