package engine

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/provtmpl/internal/binding"
	"github.com/roach88/provtmpl/internal/compiler"
	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// Plan is a validated expansion plan. Building it performs every check
// that can fail before rewriting begins: group lengths, unbound
// variables, bundle identifiers and the instantiation ceiling. Fresh blank
// labels and generated identifiers are also allocated here, serially, so
// rewriting is a pure function of the plan and may run in parallel.
type Plan struct {
	Template *compiler.Template

	// Groups is indexed like Template.Groups.
	Groups []*GroupPlan

	// Root is the single instance of the default-graph scope.
	Root *ScopeInstance

	// Batches lists every instantiated batch. Batch.Seq is its index.
	Batches []*Batch

	// Instantiations counts batches and scope instances.
	Instantiations int
}

// GroupPlan holds the resolved values of one variable group.
type GroupPlan struct {
	Group *compiler.Group

	// Length is the group's multiplicity.
	Length int

	// Bound is true when at least one member appears in the bindings.
	Bound bool

	// Empty is true when the group is bound to zero values. Everything
	// depending on an empty group is omitted from the output.
	Empty bool

	// Generated counts identifiers produced for unbound vargen members.
	Generated int

	values map[ir.Term][][]ir.Term
}

// Values returns the instances of member v, after vargen filling.
func (g *GroupPlan) Values(v ir.Term) ([][]ir.Term, bool) {
	vals, ok := g.values[v]
	return vals, ok
}

// ScopeInstance is one copy of a template scope in the output.
type ScopeInstance struct {
	Scope *compiler.Scope

	// ID is the output bundle identifier; zero for the root.
	ID ir.Term

	// Indices maps each fixed group to its instance index.
	Indices map[int]int

	// Verbatim statements in template order.
	Verbatim []ir.Statement

	Batches []*Batch
	Bundles []*ScopeInstance
}

// Batch is one combination of instance indices applied to every unit that
// shares a signature within one scope instance.
type Batch struct {
	Seq   int
	Units []*compiler.Unit

	// Indices maps every group the units see (fixed and free) to an index.
	Indices map[int]int

	// Blanks maps template blank labels to the batch's fresh labels.
	Blanks map[string]string
}

type planner struct {
	tmpl  *compiler.Template
	table *binding.Table
	vocab config.Vocabulary
	idgen IDGenerator
	namer *blankNamer
	quota *QuotaEnforcer
	plan  *Plan
}

// buildPlan computes the expansion plan for a classified template.
func buildPlan(tmpl *compiler.Template, table *binding.Table, idgen IDGenerator, limit int) (*Plan, error) {
	reserved := maps.Clone(tmpl.BlankLabels())
	for _, v := range table.Variables() {
		vals, _ := table.Lookup(v)
		for _, inst := range vals {
			for _, t := range inst {
				if t.IsBlank() {
					reserved[t.Value] = struct{}{}
				}
			}
		}
	}

	p := &planner{
		tmpl:  tmpl,
		table: table,
		vocab: tmpl.Vocabulary,
		idgen: idgen,
		namer: newBlankNamer(reserved),
		quota: NewQuotaEnforcer(limit),
		plan:  &Plan{Template: tmpl},
	}

	for _, g := range tmpl.Groups {
		gp, err := p.group(g)
		if err != nil {
			return nil, err
		}
		p.plan.Groups = append(p.plan.Groups, gp)
	}

	roots, err := p.scope(tmpl.Root, map[int]int{}, nil)
	if err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, internalError("root scope planned %d times", len(roots))
	}
	p.plan.Root = roots[0]
	p.plan.Instantiations = p.quota.Current()
	return p.plan, nil
}

// group resolves the members of g and fills unbound vargen members.
func (p *planner) group(g *compiler.Group) (*GroupPlan, error) {
	gp := &GroupPlan{Group: g, values: make(map[ir.Term][][]ir.Term)}

	lengths := make(map[string]int)
	for _, m := range g.Members {
		vals, ok := p.table.Lookup(m)
		if !ok {
			continue
		}
		gp.values[m] = vals
		lengths[m.String()] = len(vals)
		if !gp.Bound {
			gp.Length = len(vals)
			gp.Bound = true
		} else if len(vals) != gp.Length {
			gp.Length = -1
		}
	}
	if gp.Length < 0 {
		return nil, NewInconsistentBindingError(g.String(), lengths)
	}

	if !gp.Bound && slices.ContainsFunc(g.Members, p.isVargen) {
		gp.Length = 1
	}
	for _, m := range g.Members {
		if _, ok := gp.values[m]; ok || !p.isVargen(m) {
			continue
		}
		vals := make([][]ir.Term, gp.Length)
		for i := range vals {
			id := p.idgen.Generate(m, i)
			vals[i] = []ir.Term{ir.NewIRI(p.vocab.UUIDNamespace + id)}
			gp.Generated++
		}
		gp.values[m] = vals
	}

	gp.Empty = gp.Bound && gp.Length == 0
	return gp, nil
}

func (p *planner) isVargen(t ir.Term) bool {
	return config.IsVargen(t, p.vocab)
}

// scope plans every instance of s under the given fixed indices. A bundle
// driven by a new group is planned once per index of that group.
func (p *planner) scope(s *compiler.Scope, indices map[int]int, pins map[string]string) ([]*ScopeInstance, error) {
	if s.Group < 0 {
		inst, err := p.instance(s, indices, pins)
		if err != nil {
			return nil, err
		}
		return []*ScopeInstance{inst}, nil
	}
	if _, fixed := indices[s.Group]; fixed {
		inst, err := p.instance(s, indices, pins)
		if err != nil {
			return nil, err
		}
		return []*ScopeInstance{inst}, nil
	}

	gp := p.plan.Groups[s.Group]
	if gp.Empty {
		return nil, nil
	}
	if _, ok := gp.values[s.ID]; !ok {
		return nil, NewUnboundVariableError(s.ID.String(), "bundle "+s.ID.String())
	}

	var out []*ScopeInstance
	for i := 0; i < gp.Length; i++ {
		next := maps.Clone(indices)
		next[s.Group] = i
		inst, err := p.instance(s, next, pins)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// instance plans one copy of s: its identifier, verbatim statements,
// batches and nested bundles. pins maps the blank labels of bundles
// visible from s to their output labels.
func (p *planner) instance(s *compiler.Scope, indices map[int]int, pins map[string]string) (*ScopeInstance, error) {
	if err := p.quota.Check(); err != nil {
		return nil, err
	}

	inst := &ScopeInstance{Scope: s, Indices: indices}
	id, err := p.bundleID(s, indices, pins)
	if err != nil {
		return nil, err
	}
	inst.ID = id
	pins = p.pinBundles(s, pins)

	type positioned struct {
		pos  int
		stmt ir.Statement
	}
	var verbatim []positioned
	var signatures []string
	bySig := make(map[string][]*compiler.Unit)
	for _, u := range s.Units {
		if u.Verbatim {
			for i, st := range u.Statements {
				verbatim = append(verbatim, positioned{u.Positions[i], st})
			}
			continue
		}
		sig := u.Signature()
		if _, ok := bySig[sig]; !ok {
			signatures = append(signatures, sig)
		}
		bySig[sig] = append(bySig[sig], u)
	}
	slices.SortFunc(verbatim, func(a, b positioned) int { return cmp.Compare(a.pos, b.pos) })
	for _, v := range verbatim {
		inst.Verbatim = append(inst.Verbatim, v.stmt)
	}

	for _, sig := range signatures {
		if err := p.batches(inst, bySig[sig], pins); err != nil {
			return nil, err
		}
	}

	for _, child := range s.Bundles {
		children, err := p.scope(child, indices, pins)
		if err != nil {
			return nil, err
		}
		inst.Bundles = append(inst.Bundles, children...)
	}
	return inst, nil
}

// batches plans one batch per combination of the units' free groups.
// Combinations run in odometer order: the first discovered group is
// outermost and the last varies fastest.
func (p *planner) batches(inst *ScopeInstance, units []*compiler.Unit, pins map[string]string) error {
	free := units[0].Free
	for _, gi := range free {
		if p.plan.Groups[gi].Empty {
			return nil
		}
	}

	for _, u := range units {
		for _, v := range u.Variables {
			gp, ok := p.groupOf(v)
			if !ok {
				return internalError("variable %s has no group", v)
			}
			if _, bound := gp.values[v]; !bound {
				return NewUnboundVariableError(v.String(), firstStatementWith(u, v))
			}
		}
	}

	lengths := make([]int, len(free))
	for i, gi := range free {
		lengths[i] = p.plan.Groups[gi].Length
	}

	return odometer(lengths, func(combo []int) error {
		if err := p.quota.Check(); err != nil {
			return err
		}
		indices := maps.Clone(inst.Indices)
		for i, gi := range free {
			indices[gi] = combo[i]
		}
		b := &Batch{
			Seq:     len(p.plan.Batches),
			Units:   units,
			Indices: indices,
			Blanks:  p.freshBlanks(units, pins),
		}
		p.plan.Batches = append(p.plan.Batches, b)
		inst.Batches = append(inst.Batches, b)
		return nil
	})
}

// bundleID resolves the output identifier of a scope instance.
func (p *planner) bundleID(s *compiler.Scope, indices map[int]int, pins map[string]string) (ir.Term, error) {
	switch {
	case s.IsRoot():
		return ir.Term{}, nil

	case s.Group >= 0:
		gp := p.plan.Groups[s.Group]
		vals, ok := gp.values[s.ID]
		if !ok {
			return ir.Term{}, NewUnboundVariableError(s.ID.String(), "bundle "+s.ID.String())
		}
		inst := vals[indices[s.Group]]
		where := "bundle " + s.ID.String()
		if len(inst) != 1 {
			return ir.Term{}, NewInvalidPositionError("bundle", where,
				fmt.Sprintf("bundle identifier bound to %d values", len(inst)))
		}
		id := inst[0]
		if config.IsVariable(id, p.vocab) {
			return ir.Term{}, NewResidualVariableError(id.String(), where)
		}
		if !id.IsIRI() && !id.IsBlank() {
			return ir.Term{}, NewInvalidPositionError("bundle", where,
				fmt.Sprintf("bundle identifier must be an IRI or blank node, got %s", id.Kind))
		}
		return id, nil

	case s.ID.IsBlank():
		label, ok := pins[s.ID.Value]
		if !ok {
			return ir.Term{}, internalError("bundle %s planned without a label", s.ID)
		}
		return ir.NewBlank(label), nil

	default:
		return s.ID, nil
	}
}

// pinBundles extends pins with the blank identifiers of the bundles nested
// in s, down to the next variable-driven bundle. A bundle outside any
// multiplied scope keeps its label; inside one it gets a fresh label per
// instance. Statements naming the bundle reuse the pinned label.
func (p *planner) pinBundles(s *compiler.Scope, pins map[string]string) map[string]string {
	out := maps.Clone(pins)
	var walk func(children []*compiler.Scope)
	walk = func(children []*compiler.Scope) {
		for _, c := range children {
			if c.Group >= 0 {
				continue
			}
			if c.ID.IsBlank() {
				if _, ok := out[c.ID.Value]; !ok {
					label := c.ID.Value
					if c.Multiplied() {
						label = p.namer.Fresh(label)
					}
					if out == nil {
						out = make(map[string]string)
					}
					out[c.ID.Value] = label
				}
			}
			walk(c.Bundles)
		}
	}
	walk(s.Bundles)
	return out
}

// freshBlanks allocates one fresh label per distinct blank node in units,
// in statement order. Pinned bundle labels are reused.
func (p *planner) freshBlanks(units []*compiler.Unit, pins map[string]string) map[string]string {
	var blanks map[string]string
	for _, u := range units {
		for _, st := range u.Statements {
			for _, t := range st.Terms() {
				if !t.IsBlank() {
					continue
				}
				if blanks == nil {
					blanks = make(map[string]string)
				}
				if _, ok := blanks[t.Value]; ok {
					continue
				}
				if label, ok := pins[t.Value]; ok {
					blanks[t.Value] = label
				} else {
					blanks[t.Value] = p.namer.Fresh(t.Value)
				}
			}
		}
	}
	return blanks
}

func (p *planner) groupOf(v ir.Term) (*GroupPlan, bool) {
	g, ok := p.tmpl.GroupOf(v)
	if !ok {
		return nil, false
	}
	return p.plan.Groups[g.Index], true
}

// odometer calls fn for every combination of indices below lengths, last
// position fastest. An empty lengths slice yields one empty combination.
func odometer(lengths []int, fn func(combo []int) error) error {
	for _, n := range lengths {
		if n == 0 {
			return nil
		}
	}
	combo := make([]int, len(lengths))
	for {
		if err := fn(slices.Clone(combo)); err != nil {
			return err
		}
		i := len(combo) - 1
		for ; i >= 0; i-- {
			combo[i]++
			if combo[i] < lengths[i] {
				break
			}
			combo[i] = 0
		}
		if i < 0 {
			return nil
		}
	}
}

func firstStatementWith(u *compiler.Unit, v ir.Term) string {
	for _, st := range u.Statements {
		if st.Subject == v || st.Predicate == v || st.Object == v {
			return st.String()
		}
	}
	return ""
}
