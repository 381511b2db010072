package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// Warning codes (W200-W299)
const (
	WarnLinkCycle = "W201" // directed linking statements form a cycle
	WarnSelfLink  = "W202" // variable linked to itself
	WarnLinkOnly  = "W203" // group occurs only in linking statements
)

// Warning is a non-fatal template finding.
//
// Link cycles are warnings, not errors: linking is an equivalence
// relation, so a cycle only restates links that already hold.
type Warning struct {
	Code    string   `json:"code"`
	Path    []string `json:"path,omitempty"` // Variable local names
	Message string   `json:"message"`
	Level   string   `json:"level"` // "warning" or "info"
}

// AnalyzeLinks performs static analysis of the directed linking graph.
//
// The algorithm:
//  1. Build variable → linked variables graph from linking statements
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a warning
//
// Nodes are visited in first-appearance order so warnings are stable.
func AnalyzeLinks(links []Link, vocab config.Vocabulary) []Warning {
	if len(links) == 0 {
		return nil
	}

	graph := buildLinkGraph(links, vocab)
	sccs := tarjanSCC(graph)

	var warnings []Warning
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, sccToWarning(scc, graph))
		}
	}
	return warnings
}

// linkGraph maps a variable to the variables it links to. nodes keeps
// first-appearance order.
type linkGraph struct {
	nodes []string
	edges map[string][]string
}

func buildLinkGraph(links []Link, vocab config.Vocabulary) linkGraph {
	g := linkGraph{edges: make(map[string][]string)}
	node := func(t ir.Term) string {
		name := vocab.LocalName(t)
		if _, ok := g.edges[name]; !ok {
			g.edges[name] = []string{}
			g.nodes = append(g.nodes, name)
		}
		return name
	}
	for _, l := range links {
		from := node(l.From)
		to := node(l.To)
		g.edges[from] = append(g.edges[from], to)
	}
	return g
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, g linkGraph) bool {
	for _, neighbor := range g.edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(g linkGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToWarning(scc []string, g linkGraph) Warning {
	if len(scc) == 1 {
		v := scc[0]
		return Warning{
			Code:    WarnSelfLink,
			Path:    []string{v, v},
			Message: fmt.Sprintf("variable linked to itself: %s", v),
			Level:   "info",
		}
	}

	path := reconstructCyclePath(scc, g)
	return Warning{
		Code:    WarnLinkCycle,
		Path:    path,
		Message: fmt.Sprintf("linking cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges within the SCC from its last-popped
// node until it returns to the start.
func reconstructCyclePath(scc []string, g linkGraph) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, n := range scc {
		inSCC[n] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range g.edges[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}

func localNames(terms []ir.Term, vocab config.Vocabulary) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = vocab.LocalName(t)
	}
	return out
}
