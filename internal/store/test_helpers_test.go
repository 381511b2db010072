package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/provtmpl/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const ex = "http://example.org/"

func exIRI(local string) ir.Term { return ir.NewIRI(ex + local) }

// createTestGraph builds an output graph with root statements, a bundle
// holding a nested bundle, and an empty bundle.
func createTestGraph() *ir.Graph {
	g := ir.NewGraph()
	g.AddTriple(exIRI("a"), exIRI("p"), ir.NewLiteral("one", ""))
	g.AddTriple(ir.NewBlank("b_1"), exIRI("p"), ir.NewLangLiteral("zwei", "de"))

	outer := g.Bundle(exIRI("bundle1"))
	outer.Add(ir.Statement{Subject: exIRI("x"), Predicate: exIRI("q"), Object: ir.NewLiteral("3", ir.XSDInteger)})
	inner := outer.Graph.Bundle(ir.NewBlank("inner"))
	inner.Add(ir.Statement{Subject: exIRI("y"), Predicate: exIRI("q"), Object: exIRI("z")})

	g.Bundle(exIRI("empty"))
	return g
}

// createTestRun creates a run record for g with fixed input hashes.
func createTestRun(name string, g *ir.Graph) Run {
	return NewRun("template-"+name, "bindings-"+name, "vocabulary", g)
}
