package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/provtmpl/internal/binding"
	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/engine"
	"github.com/roach88/provtmpl/internal/ir"
	"github.com/roach88/provtmpl/internal/rdfio"
	"github.com/roach88/provtmpl/internal/store"
	"github.com/roach88/provtmpl/internal/testutil"
)

// RunOptions control scenario execution.
type RunOptions struct {
	// UpdateGolden rewrites golden files instead of comparing against them.
	UpdateGolden bool

	// Logger receives engine logs. Default: discarded.
	Logger *slog.Logger
}

// Harness is the test execution engine for one scenario.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	prefixes *rdfio.Prefixes
	opts     RunOptions
}

// Run executes a test scenario and returns the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(scenario, RunOptions{})
}

// RunWithOptions executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store for isolation.
//
// Execution flow:
// 1. Load the template, bindings and configuration
// 2. Expand with deterministic identifier generation
// 3. Record the run and read its output back from the store
// 4. Check expectations, assertions and the golden file
//
// The returned error reports scenarios that cannot run at all (missing
// files, syntax errors). Expansion errors are part of the Result.
func RunWithOptions(scenario *Scenario, opts RunOptions) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	eng, err := newEngine(scenario, opts.Logger)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:    st,
		engine:   eng,
		prefixes: rdfio.DefaultPrefixes(),
		opts:     opts,
	}
	return h.run(context.Background(), scenario)
}

func newEngine(s *Scenario, logger *slog.Logger) (*engine.Engine, error) {
	opts := []engine.EngineOption{engine.WithLogger(logger)}
	if s.Config != "" {
		cfg, err := config.Load(s.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		opts = append(opts, engine.WithConfig(cfg))
	}
	if s.Options.Workers > 0 {
		opts = append(opts, engine.WithWorkers(s.Options.Workers))
	}
	if s.Options.MaxInstantiations > 0 {
		opts = append(opts, engine.WithMaxInstantiations(s.Options.MaxInstantiations))
	}
	if s.Options.IDs != IDsSeeded {
		opts = append(opts, engine.WithIDGenerator(testutil.NewSequenceGenerator()))
	}
	return engine.New(opts...), nil
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	doc, err := h.loadTemplate(s)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	if ns, ok := doc.UUIDNamespace(); ok {
		h.engine = h.engine.With(engine.WithUUIDNamespace(ns))
	}

	result := NewResult()
	table, err := h.loadBindings(s)
	if err != nil && engine.Code(err) == "" {
		return nil, fmt.Errorf("failed to load bindings: %w", err)
	}

	var res *engine.Result
	if err == nil {
		res, err = h.engine.ExpandTable(doc.Graph, table)
	}
	if err != nil {
		result.ErrorCode = string(engine.Code(err))
		result.Error = err.Error()
		switch {
		case s.Expect.Error == "":
			result.AddError(fmt.Sprintf("unexpected expansion error: %v", err))
		case s.Expect.Error != result.ErrorCode:
			result.AddError(fmt.Sprintf("expected error %s, got %s: %v", s.Expect.Error, result.ErrorCode, err))
		}
		return result, nil
	}
	if s.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected error %s, expansion succeeded with %d statements", s.Expect.Error, res.Output.Len()))
		return result, nil
	}

	output, err := h.record(ctx, res)
	if err != nil {
		return nil, err
	}
	result.RunID = res.RunID
	result.OutputHash = res.OutputHash
	for _, st := range output.Quads() {
		result.Output = append(result.Output, st.String())
	}
	for _, b := range output.Bundles {
		result.Bundles = append(result.Bundles, b.ID.String())
	}

	if len(s.Expect.Statements) > 0 {
		want := make([]string, len(s.Expect.Statements))
		for i, line := range s.Expect.Statements {
			want[i] = normalizeLine(line)
		}
		if diff := cmp.Diff(want, result.Output); diff != "" {
			result.AddError(fmt.Sprintf("output mismatch (-want +got):\n%s", diff))
		}
	}

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}

	if s.Golden != "" {
		if err := h.checkGolden(s.Golden, output, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// record writes the run to the store and reads its output back, so every
// check runs against what a later replay would see.
func (h *Harness) record(ctx context.Context, res *engine.Result) (*ir.Graph, error) {
	run := store.NewRun(res.TemplateHash, res.BindingsHash, res.VocabularyHash, res.Output)
	if _, err := h.store.WriteRun(ctx, run, res.Output); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	output, err := h.store.ReadGraph(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	if got := ir.OutputHash(output); got != res.OutputHash {
		return nil, fmt.Errorf("stored output hash %s differs from expansion %s", got, res.OutputHash)
	}
	return output, nil
}

func (h *Harness) loadTemplate(s *Scenario) (*rdfio.Document, error) {
	var (
		doc *rdfio.Document
		err error
	)
	if s.TemplateFile != "" {
		doc, err = rdfio.ReadFile(s.TemplateFile)
	} else {
		doc, err = parseInline(s.Template, s.Format)
	}
	if err != nil {
		return nil, err
	}
	h.prefixes.Merge(doc.Prefixes)
	return doc, nil
}

func (h *Harness) loadBindings(s *Scenario) (*binding.Table, error) {
	if s.Bindings == "" && s.BindingsFile == "" {
		return binding.NewTable(), nil
	}

	if s.BindingsFormat == BindingsFormatV3 {
		if s.BindingsFile != "" {
			f, err := os.Open(s.BindingsFile)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return h.engine.ResolveV3(f)
		}
		return h.engine.ResolveV3(strings.NewReader(s.Bindings))
	}

	var (
		doc *rdfio.Document
		err error
	)
	if s.BindingsFile != "" {
		doc, err = rdfio.ReadFile(s.BindingsFile)
	} else {
		doc, err = parseInline(s.Bindings, s.Format)
	}
	if err != nil {
		return nil, err
	}
	return h.engine.Resolve(doc.Graph)
}

func parseInline(src, format string) (*rdfio.Document, error) {
	f := rdfio.TriG
	if format != "" {
		var err error
		if f, err = rdfio.ParseFormat(format); err != nil {
			return nil, err
		}
	}
	return rdfio.Parse(src, f)
}

// normalizeLine re-renders an N-Quads line in canonical spacing.
// Lines are validated when the scenario loads.
func normalizeLine(line string) string {
	st, err := rdfio.ParseQuad(line)
	if err != nil {
		return line
	}
	return st.String()
}

// GoldenOutput renders an output graph for golden comparison: TriG with
// the given prefixes, or the default prefixes when nil.
func GoldenOutput(output *ir.Graph, prefixes *rdfio.Prefixes) ([]byte, error) {
	return rdfio.Marshal(output, rdfio.TriG, prefixes)
}

func (h *Harness) checkGolden(path string, output *ir.Graph, result *Result) error {
	got, err := GoldenOutput(output, h.prefixes)
	if err != nil {
		return fmt.Errorf("failed to render golden output: %w", err)
	}

	if h.opts.UpdateGolden {
		if err := os.WriteFile(path, got, 0o644); err != nil {
			return fmt.Errorf("failed to update golden file: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, got) {
		result.AddError(fmt.Sprintf("golden mismatch %s (-want +got):\n%s", path, cmp.Diff(string(want), string(got))))
	}
	return nil
}
