package engine

import (
	"errors"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/provtmpl/internal/binding"
	"github.com/roach88/provtmpl/internal/compiler"
	"github.com/roach88/provtmpl/internal/config"
	"github.com/roach88/provtmpl/internal/ir"
)

// DefaultMaxInstantiations is the default instantiation ceiling per run.
const DefaultMaxInstantiations = config.DefaultMaxInstantiations

// Engine expands PROV templates.
//
// An Engine holds configuration only. Every call builds its own plan,
// namer and output, so one Engine may serve concurrent callers.
type Engine struct {
	vocab             config.Vocabulary
	maxInstantiations int
	workers           int
	idgen             IDGenerator
	logger            *slog.Logger
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithVocabulary sets the template vocabulary.
// Default: config.DefaultVocabulary().
func WithVocabulary(v config.Vocabulary) EngineOption {
	return func(e *Engine) {
		e.vocab = v
	}
}

// WithMaxInstantiations sets the instantiation ceiling.
//
// Default: 100000 (DefaultMaxInstantiations)
// Use WithMaxInstantiations(10) for testing PLAN_TOO_LARGE.
func WithMaxInstantiations(n int) EngineOption {
	return func(e *Engine) {
		e.maxInstantiations = n
	}
}

// WithWorkers sets how many batches are rewritten concurrently.
// Output is identical for any worker count. Default: 1.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// WithIDGenerator sets the generator for unbound vargen variables.
// Default: a SeededGenerator keyed by the run identity.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		e.idgen = g
	}
}

// WithUUIDNamespace sets the namespace of generated vargen identifiers,
// replacing the vocabulary's. An empty namespace is ignored.
func WithUUIDNamespace(ns string) EngineOption {
	return func(e *Engine) {
		if ns != "" {
			e.vocab.UUIDNamespace = ns
		}
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithConfig applies a loaded configuration file.
func WithConfig(c config.Config) EngineOption {
	return func(e *Engine) {
		e.vocab = c.Vocabulary
		e.maxInstantiations = c.Limits.MaxInstantiations
		if c.Limits.Workers > 0 {
			e.workers = c.Limits.Workers
		}
	}
}

// New creates an Engine. Options can be passed to configure the engine
// (e.g., WithVocabulary, WithWorkers).
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		vocab:             config.DefaultVocabulary(),
		maxInstantiations: DefaultMaxInstantiations,
		workers:           1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// With returns a copy of e with opts applied on top of its configuration.
func (e *Engine) With(opts ...EngineOption) *Engine {
	c := *e
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Vocabulary returns the engine's template vocabulary.
func (e *Engine) Vocabulary() config.Vocabulary {
	return e.vocab
}

// Result is the outcome of one expansion.
type Result struct {
	Output *ir.Graph
	Plan   *Plan

	// RunID identifies the inputs: template, bindings and vocabulary.
	RunID string

	TemplateHash   string
	BindingsHash   string
	VocabularyHash string
	OutputHash     string
}

// Expand expands template with the bindings graph using a default Engine.
func Expand(template, bindings *ir.Graph, opts ...EngineOption) (*ir.Graph, error) {
	return New(opts...).Expand(template, bindings)
}

// Expand resolves the bindings graph and expands template with it.
// Expansion is all-or-nothing: on error the returned graph is nil.
func (e *Engine) Expand(template, bindings *ir.Graph) (*ir.Graph, error) {
	res, err := e.ExpandGraph(template, bindings)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// ExpandGraph is Expand returning the full Result.
func (e *Engine) ExpandGraph(template, bindings *ir.Graph) (*Result, error) {
	table, err := e.Resolve(bindings)
	if err != nil {
		return nil, err
	}
	return e.ExpandTable(template, table)
}

// Resolve reads a bindings graph with the engine's vocabulary.
func (e *Engine) Resolve(bindings *ir.Graph) (*binding.Table, error) {
	table, err := binding.Resolve(bindings, e.vocab)
	if err != nil {
		return nil, wrapBindingError(err)
	}
	return table, nil
}

// ResolveV3 reads JSON v3 bindings with the engine's vocabulary.
func (e *Engine) ResolveV3(r io.Reader) (*binding.Table, error) {
	table, err := binding.ReadV3(r, e.vocab)
	if err != nil {
		return nil, wrapBindingError(err)
	}
	return table, nil
}

// ExpandTable expands template with already resolved bindings.
func (e *Engine) ExpandTable(template *ir.Graph, table *binding.Table) (*Result, error) {
	res, err := e.prepare(template, table)
	if err != nil {
		return nil, err
	}

	results, err := e.rewrite(res.Plan)
	if err != nil {
		return nil, err
	}

	res.Output = assemble(res.Plan, results)
	res.OutputHash = ir.OutputHash(res.Output)

	e.logger.Info("expansion complete",
		"run_id", res.RunID,
		"groups", len(res.Plan.Groups),
		"batches", len(res.Plan.Batches),
		"statements", res.Output.Len(),
		"output_hash", res.OutputHash,
	)
	return res, nil
}

// Plan classifies template and builds its expansion plan without
// rewriting anything. Used by validation and plan summaries.
func (e *Engine) Plan(template *ir.Graph, table *binding.Table) (*Plan, error) {
	res, err := e.prepare(template, table)
	if err != nil {
		return nil, err
	}
	return res.Plan, nil
}

// prepare computes run identity, classifies the template and builds the plan.
func (e *Engine) prepare(template *ir.Graph, table *binding.Table) (*Result, error) {
	res := &Result{
		TemplateHash:   ir.TemplateHash(template),
		BindingsHash:   ir.BindingsHash(table.Graph(e.vocab)),
		VocabularyHash: ir.VocabularyHash(e.vocab.Pairs()),
	}
	res.RunID = ir.RunID(res.TemplateHash, res.BindingsHash, res.VocabularyHash)

	tmpl, err := compiler.Classify(template, e.vocab)
	if err != nil {
		return nil, &ExpansionError{Code: ErrCodeInvalidTemplate, Message: err.Error(), Err: err}
	}
	for _, w := range tmpl.Warnings {
		e.logger.Warn("template warning", "code", w.Code, "message", w.Message)
	}
	for _, v := range table.Variables() {
		if _, ok := tmpl.GroupOf(v); !ok {
			e.logger.Warn("binding for variable not in template", "variable", v.Value)
		}
	}
	e.logger.Debug("template classified",
		"variables", len(tmpl.Variables()),
		"groups", len(tmpl.Groups),
		"links", len(tmpl.Links),
	)

	idgen := e.idgen
	if idgen == nil {
		idgen = NewSeededGenerator(res.RunID)
	}
	plan, err := buildPlan(tmpl, table, idgen, e.maxInstantiations)
	if err != nil {
		return nil, err
	}
	for _, gp := range plan.Groups {
		e.logger.Debug("group planned",
			"group", gp.Group.String(),
			"length", gp.Length,
			"bound", gp.Bound,
			"empty", gp.Empty,
			"generated", gp.Generated,
		)
	}
	e.logger.Debug("plan built",
		"batches", len(plan.Batches),
		"instantiations", plan.Instantiations,
	)

	res.Plan = plan
	return res, nil
}

// rewrite runs every batch and returns results indexed by Batch.Seq.
//
// With more than one worker, batches run concurrently; each writes only
// its own slot. When several batches fail, the error of the lowest Seq
// is returned so failures are reported deterministically.
func (e *Engine) rewrite(p *Plan) ([][]ir.Statement, error) {
	results := make([][]ir.Statement, len(p.Batches))

	if e.workers <= 1 {
		for _, b := range p.Batches {
			out, err := rewriteBatch(p, b)
			if err != nil {
				return nil, err
			}
			results[b.Seq] = out
		}
		return results, nil
	}

	errs := make([]error, len(p.Batches))
	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, b := range p.Batches {
		g.Go(func() error {
			out, err := rewriteBatch(p, b)
			results[b.Seq], errs[b.Seq] = out, err
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, firstError(errs)
	}
	return results, nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func wrapBindingError(err error) error {
	var fe *binding.FormatError
	if errors.As(err, &fe) {
		ee := &ExpansionError{Code: ErrCodeBindingFormat, Message: fe.Message, Err: err}
		if !fe.Variable.IsZero() {
			ee.Variable = fe.Variable.String()
		}
		return ee
	}
	return err
}
