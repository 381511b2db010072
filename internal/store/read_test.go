package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/provtmpl/internal/ir"
)

func TestReadRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	g := createTestGraph()
	run := createTestRun("roundtrip", g)

	if _, err := s.WriteRun(ctx, run, g); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}

	want := run
	want.Seq = 1
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadRun() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "nonexistent")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("ReadRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("runs is nil, want empty slice")
	}
	if len(runs) != 0 {
		t.Errorf("len(runs) = %d, want 0", len(runs))
	}
}

func TestListRuns_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	names := []string{"zeta", "alpha", "mid"}
	var ids []string
	for _, name := range names {
		g := createTestGraph()
		run := createTestRun(name, g)
		ids = append(ids, run.ID)
		if _, err := s.WriteRun(ctx, run, g); err != nil {
			t.Fatalf("WriteRun(%s) failed: %v", name, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	var got []string
	for _, r := range runs {
		got = append(got, r.ID)
	}
	if diff := cmp.Diff(ids, got); diff != "" {
		t.Errorf("ListRuns() order mismatch (-want +got):\n%s", diff)
	}
}

func TestFindRunsByOutput(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	g := createTestGraph()
	a := createTestRun("a", g)
	b := createTestRun("b", g)
	other := ir.NewGraph()
	other.AddTriple(exIRI("s"), exIRI("p"), exIRI("o"))
	c := createTestRun("c", other)

	for _, w := range []struct {
		run Run
		g   *ir.Graph
	}{{a, g}, {b, g}, {c, other}} {
		if _, err := s.WriteRun(ctx, w.run, w.g); err != nil {
			t.Fatalf("WriteRun() failed: %v", err)
		}
	}

	runs, err := s.FindRunsByOutput(ctx, ir.OutputHash(g))
	if err != nil {
		t.Fatalf("FindRunsByOutput() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != a.ID || runs[1].ID != b.ID {
		t.Errorf("runs = [%s %s], want [%s %s]", runs[0].ID, runs[1].ID, a.ID, b.ID)
	}
}

func TestReadGraph_RebuildsBundles(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	g := createTestGraph()
	run := createTestRun("graph", g)

	if _, err := s.WriteRun(ctx, run, g); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadGraph(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadGraph() failed: %v", err)
	}
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("ReadGraph() mismatch (-want +got):\n%s", diff)
	}
	if ir.OutputHash(got) != run.OutputHash {
		t.Error("output hash of read graph differs from stored run")
	}
}

func TestReadStatements_OutputOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	g := createTestGraph()
	run := createTestRun("statements", g)

	if _, err := s.WriteRun(ctx, run, g); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadStatements(ctx, run.ID)
	if err != nil {
		t.Fatalf("ReadStatements() failed: %v", err)
	}
	if diff := cmp.Diff(g.Quads(), got); diff != "" {
		t.Errorf("ReadStatements() mismatch (-want +got):\n%s", diff)
	}
	if got[3].Graph != ir.NewBlank("inner") {
		t.Errorf("nested statement graph = %v, want _:inner", got[3].Graph)
	}
}

func TestReadStatements_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadStatements(context.Background(), "nonexistent")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("ReadStatements() error = %v, want ErrRunNotFound", err)
	}
}

func TestReadGraph_CorruptQuad(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	g := ir.NewGraph()
	g.AddTriple(exIRI("a"), exIRI("p"), exIRI("b"))
	run := createTestRun("corrupt", g)

	if _, err := s.WriteRun(ctx, run, g); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE statements SET quad = 'not a quad' WHERE run_id = ?`, run.ID); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if _, err := s.ReadGraph(ctx, run.ID); err == nil {
		t.Error("expected error for corrupt quad")
	}
}
